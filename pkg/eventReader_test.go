package trigger

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateEvents(t *testing.T, n int, seed uint64) []Event {
	t.Helper()
	generator := NewEventGenerator(StandardMapping{}, seed)
	events := make([]Event, n)
	for i := range events {
		event, err := generator.Generate(7, uint32(i))
		require.NoError(t, err)
		events[i] = event
	}
	return events
}

func TestEventFileRoundTrip(t *testing.T) {
	t.Parallel()

	events := generateEvents(t, 5, 1)
	var buf bytes.Buffer
	for _, event := range events {
		require.NoError(t, WriteEvent(&buf, EncodeEvent(event)))
	}

	reader := bytes.NewReader(buf.Bytes())
	var decoded []Event
	for {
		raw, err := ReadEventFromFile(reader)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, uint32(EVENT_MAGIC), raw.Header.Magic)
		if diff := cmp.Diff(EncodeEvent(events[len(decoded)]), raw); diff != "" {
			t.Fatalf("raw event mismatch (-want +got):\n%s", diff)
		}
		decoded = append(decoded, DecodeEvent(raw))
	}
	assert.Equal(t, events, decoded)
}

func TestReadEventFromBytes(t *testing.T) {
	t.Parallel()

	events := generateEvents(t, 2, 2)
	var buf bytes.Buffer
	for _, event := range events {
		require.NoError(t, WriteEvent(&buf, EncodeEvent(event)))
	}
	data := buf.Bytes()

	first, n, err := ReadEvent(data)
	require.NoError(t, err)
	assert.Equal(t, headerSize+first.Header.payloadSize(), n)
	second, m, err := ReadEvent(data[n:])
	require.NoError(t, err)
	assert.Equal(t, len(data), n+m)
	assert.Equal(t, uint32(0), first.Header.EventID)
	assert.Equal(t, uint32(1), second.Header.EventID)

	_, _, err = ReadEvent(data[:n-1])
	assert.ErrorIs(t, err, errBadEventLen)
	_, _, err = ReadEvent(data[:headerSize-1])
	assert.ErrorIs(t, err, errBadEventLen)
}

func TestReadEventErrors(t *testing.T) {
	t.Parallel()

	raw := EncodeEvent(generateEvents(t, 1, 3)[0])
	var buf bytes.Buffer
	require.NoError(t, WriteEvent(&buf, raw))
	data := buf.Bytes()

	t.Run("truncated payload", func(t *testing.T) {
		_, err := ReadEventFromFile(bytes.NewReader(data[:len(data)-3]))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
	t.Run("truncated header", func(t *testing.T) {
		_, err := ReadEventFromFile(bytes.NewReader(data[:3]))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
	t.Run("empty stream", func(t *testing.T) {
		_, err := ReadEventFromFile(bytes.NewReader(nil))
		assert.ErrorIs(t, err, io.EOF)
	})
	t.Run("bad magic", func(t *testing.T) {
		var bad bytes.Buffer
		require.NoError(t, binary.Write(&bad, binary.LittleEndian, EventHeaderStruct{Magic: 0xdeadbeef}))
		_, err := ReadEventFromFile(&bad)
		assert.ErrorContains(t, err, "magic")
	})
	t.Run("oversized header", func(t *testing.T) {
		var bad bytes.Buffer
		header := EventHeaderStruct{Magic: EVENT_MAGIC, NGeigerTPs: MAX_TPS_BY_EVENT + 1}
		require.NoError(t, binary.Write(&bad, binary.LittleEndian, header))
		_, err := ReadEventFromFile(&bad)
		var rangeErr *ErrRange
		assert.ErrorAs(t, err, &rangeErr)
	})
}

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Info(string, string) {}
func (l *recordingLogger) Error(message string) {
	l.errors = append(l.errors, message)
}

// Not parallel: swaps the package logger.
func TestDecodeEventSkipsBadWords(t *testing.T) {
	recorder := &recordingLogger{}
	SetLogger(recorder)
	t.Cleanup(func() { SetLogger(nil) })

	good := generateEvents(t, 1, 5)[0]
	raw := EncodeEvent(good)
	controlBoard, err := PackCaloTP(CaloTPFields{BoardID: CONTROL_BOARD_ID})
	require.NoError(t, err)
	raw.GeigerTPs = append(raw.GeigerTPs, GeigerTPRecord{HitID: 900, Clocktick800ns: 3, Word: 1 << GEIGER_FULL_SIZE})
	raw.CaloTPs = append(raw.CaloTPs, CaloTPRecord{HitID: 901, Clocktick25ns: 3, Word: controlBoard})

	event := DecodeEvent(raw)
	assert.Equal(t, good, event)
	require.Len(t, recorder.errors, 2)
	assert.Contains(t, recorder.errors[0], "geiger TP 900")
	assert.Contains(t, recorder.errors[1], "calo TP 901")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestWriteEventErrors(t *testing.T) {
	t.Parallel()

	raw := EncodeEvent(generateEvents(t, 1, 6)[0])
	assert.ErrorIs(t, WriteEvent(failingWriter{}, raw), io.ErrClosedPipe)
}
