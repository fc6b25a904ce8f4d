package trigger

import "fmt"

// Event holds the trigger primitives of one readout window.
type Event struct {
	RunNumber uint32
	EventID   uint32
	GeigerTPs []GeigerTP
	CaloTPs   []CaloTP
}

// EventResult is the trigger output for one event. Err is set when the
// event could not be processed, the other fields are then incomplete.
type EventResult struct {
	RunNumber          uint32
	EventID            uint32
	NGeigerTPs         int
	NCaloTPs           int
	TrackerRecords     []TrackerRecord
	CaloRecords        []CaloSummaryRecord
	CoincidenceRecords []CoincidenceRecord
	Err                error
}

func (r EventResult) Triggered() bool {
	return len(r.CoincidenceRecords) > 0
}

// DecodeEvent validates the raw words of an event and builds locked
// primitives from them. Invalid primitives are logged and skipped.
func DecodeEvent(raw RawEvent) Event {
	event := Event{
		RunNumber: raw.Header.RunNumber,
		EventID:   raw.Header.EventID,
		GeigerTPs: make([]GeigerTP, 0, len(raw.GeigerTPs)),
		CaloTPs:   make([]CaloTP, 0, len(raw.CaloTPs)),
	}
	for _, record := range raw.GeigerTPs {
		tp, err := NewGeigerTPFromWord(record.HitID, record.Clocktick800ns, record.Word)
		if err != nil {
			logger.Error(fmt.Sprintf("event %d: skipping geiger TP %d: %v", event.EventID, record.HitID, err))
			continue
		}
		event.GeigerTPs = append(event.GeigerTPs, tp)
	}
	for _, record := range raw.CaloTPs {
		tp, err := NewCaloTPFromWord(record.HitID, record.Clocktick25ns, record.Word)
		if err != nil {
			logger.Error(fmt.Sprintf("event %d: skipping calo TP %d: %v", event.EventID, record.HitID, err))
			continue
		}
		event.CaloTPs = append(event.CaloTPs, tp)
	}
	return event
}

// EncodeEvent is the inverse of DecodeEvent.
func EncodeEvent(event Event) RawEvent {
	raw := RawEvent{
		Header: EventHeaderStruct{
			Magic:      EVENT_MAGIC,
			RunNumber:  event.RunNumber,
			EventID:    event.EventID,
			NGeigerTPs: uint32(len(event.GeigerTPs)),
			NCaloTPs:   uint32(len(event.CaloTPs)),
		},
		GeigerTPs: make([]GeigerTPRecord, 0, len(event.GeigerTPs)),
		CaloTPs:   make([]CaloTPRecord, 0, len(event.CaloTPs)),
	}
	for _, tp := range event.GeigerTPs {
		raw.GeigerTPs = append(raw.GeigerTPs, GeigerTPRecord{HitID: tp.HitID(), Clocktick800ns: tp.Clocktick800ns(), Word: tp.Word()})
	}
	for _, tp := range event.CaloTPs {
		raw.CaloTPs = append(raw.CaloTPs, CaloTPRecord{HitID: tp.HitID(), Clocktick25ns: tp.Clocktick25ns(), Word: tp.Word()})
	}
	return raw
}
