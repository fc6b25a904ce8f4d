package main

import "log/slog"

type Logger struct {
	log *slog.Logger
}

func (l Logger) Info(message string, module string) {
	l.log.Info(message, "module", module)
}

func (l Logger) Error(message string) {
	l.log.Error(message)
}
