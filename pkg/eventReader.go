package trigger

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	EVENT_MAGIC = 0x534e5447
	// Upper bound of primitives of a single event, to reject corrupted headers
	MAX_TPS_BY_EVENT = 1 << 20
)

type EventHeaderStruct struct {
	Magic      uint32
	RunNumber  uint32
	EventID    uint32
	NGeigerTPs uint32
	NCaloTPs   uint32
}

type GeigerTPRecord struct {
	HitID          uint32
	Clocktick800ns int64
	Word           uint64
}

type CaloTPRecord struct {
	HitID         uint32
	Clocktick25ns int64
	Word          uint64
}

// RawEvent is an event as stored on disk.
type RawEvent struct {
	Header    EventHeaderStruct
	GeigerTPs []GeigerTPRecord
	CaloTPs   []CaloTPRecord
}

var (
	headerSize     = binary.Size(EventHeaderStruct{})
	geigerTPSize   = binary.Size(GeigerTPRecord{})
	caloTPSize     = binary.Size(CaloTPRecord{})
	errBadEventLen = errors.New("event is truncated")
)

func (h EventHeaderStruct) payloadSize() int {
	return int(h.NGeigerTPs)*geigerTPSize + int(h.NCaloTPs)*caloTPSize
}

func (h EventHeaderStruct) validate() error {
	if h.Magic != EVENT_MAGIC {
		return fmt.Errorf("bad event magic 0x%08x", h.Magic)
	}
	if h.NGeigerTPs > MAX_TPS_BY_EVENT {
		return &ErrRange{Field: "geiger TPs by event", Value: int64(h.NGeigerTPs), Limit: MAX_TPS_BY_EVENT}
	}
	if h.NCaloTPs > MAX_TPS_BY_EVENT {
		return &ErrRange{Field: "calo TPs by event", Value: int64(h.NCaloTPs), Limit: MAX_TPS_BY_EVENT}
	}
	return nil
}

// ReadEventFromFile reads the next event of the stream. io.EOF is
// returned only when the stream ends between two events.
func ReadEventFromFile(r io.Reader) (RawEvent, error) {
	var raw RawEvent
	headerBinary := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBinary); err != nil {
		return raw, err
	}
	if err := binary.Read(bytes.NewReader(headerBinary), binary.LittleEndian, &raw.Header); err != nil {
		return raw, err
	}
	if err := raw.Header.validate(); err != nil {
		return raw, err
	}

	payload := make([]byte, raw.Header.payloadSize())
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return raw, fmt.Errorf("event %d: %w", raw.Header.EventID, err)
	}
	if err := readPayload(payload, &raw); err != nil {
		return raw, fmt.Errorf("event %d: %w", raw.Header.EventID, err)
	}
	return raw, nil
}

// ReadEvent decodes the event at the start of data and returns the number
// of bytes it used.
func ReadEvent(data []byte) (RawEvent, int, error) {
	var raw RawEvent
	if len(data) < headerSize {
		return raw, 0, errBadEventLen
	}
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &raw.Header); err != nil {
		return raw, 0, err
	}
	if err := raw.Header.validate(); err != nil {
		return raw, 0, err
	}
	end := headerSize + raw.Header.payloadSize()
	if len(data) < end {
		return raw, 0, errBadEventLen
	}
	if err := readPayload(data[headerSize:end], &raw); err != nil {
		return raw, 0, err
	}
	return raw, end, nil
}

func readPayload(payload []byte, raw *RawEvent) error {
	reader := bytes.NewReader(payload)
	raw.GeigerTPs = make([]GeigerTPRecord, raw.Header.NGeigerTPs)
	if err := binary.Read(reader, binary.LittleEndian, raw.GeigerTPs); err != nil {
		return err
	}
	raw.CaloTPs = make([]CaloTPRecord, raw.Header.NCaloTPs)
	if err := binary.Read(reader, binary.LittleEndian, raw.CaloTPs); err != nil {
		return err
	}
	return nil
}

func WriteEvent(w io.Writer, raw RawEvent) error {
	header := raw.Header
	header.Magic = EVENT_MAGIC
	header.NGeigerTPs = uint32(len(raw.GeigerTPs))
	header.NCaloTPs = uint32(len(raw.CaloTPs))
	if err := header.validate(); err != nil {
		return err
	}

	buffer := bytes.NewBuffer(make([]byte, 0, headerSize+header.payloadSize()))
	if err := binary.Write(buffer, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("error encoding event header: %w", err)
	}
	if err := binary.Write(buffer, binary.LittleEndian, raw.GeigerTPs); err != nil {
		return fmt.Errorf("error encoding geiger TPs: %w", err)
	}
	if err := binary.Write(buffer, binary.LittleEndian, raw.CaloTPs); err != nil {
		return fmt.Errorf("error encoding calo TPs: %w", err)
	}
	if _, err := w.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("error writing event %d: %w", header.EventID, err)
	}
	return nil
}
