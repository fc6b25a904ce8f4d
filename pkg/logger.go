package trigger

type Logger interface {
	Info(message string, module string)
	Error(string)
}

type discardLogger struct{}

func (discardLogger) Info(string, string) {}
func (discardLogger) Error(string)        {}

var logger Logger = discardLogger{}

// SetLogger installs the logger used by the package. A nil logger mutes it.
func SetLogger(l Logger) {
	if l == nil {
		logger = discardLogger{}
		return
	}
	logger = l
}
