package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	trigger "github.com/supernemo-dbd/trigger_go/pkg"
)

type FileReader struct {
	File     *os.File
	reader   *bufio.Reader
	EvtCount int
}

func NewFileReader(file *os.File) *FileReader {
	return &FileReader{File: file, reader: bufio.NewReader(file), EvtCount: -1}
}

// getNextEvent returns the next event to process, honouring skip and
// max_events. io.EOF marks the end of the selection.
func (f *FileReader) getNextEvent() (trigger.Event, error) {
	for {
		raw, err := trigger.ReadEventFromFile(f.reader)
		if err != nil {
			return trigger.Event{}, err
		}
		f.EvtCount++
		if f.EvtCount >= configuration.Skip+configuration.MaxEvents {
			if VerbosityLevel > 0 {
				logger.Info("Max events reached", "fileReader")
			}
			return trigger.Event{}, io.EOF
		}
		if f.EvtCount < configuration.Skip {
			if VerbosityLevel > 1 {
				message := fmt.Sprintf("Skipping event %d with ID %d", f.EvtCount, raw.Header.EventID)
				logger.Info(message, "fileReader")
			}
			continue
		}

		event := trigger.DecodeEvent(raw)
		if VerbosityLevel > 1 {
			message := fmt.Sprintf("Reading event %d with ID %d: %d geiger TPs, %d calo TPs",
				f.EvtCount, event.EventID, len(event.GeigerTPs), len(event.CaloTPs))
			logger.Info(message, "fileReader")
		}
		return event, nil
	}
}

// countEvents walks the file once and rewinds it. It also returns the run
// number of the first event.
func countEvents(file *os.File) (int, int, error) {
	defer file.Seek(0, io.SeekStart)

	evtCount := 0
	runNumber := -1
	reader := bufio.NewReader(file)
	for {
		raw, err := trigger.ReadEventFromFile(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return evtCount, runNumber, fmt.Errorf("error counting events: %w", err)
		}
		if runNumber < 0 {
			runNumber = int(raw.Header.RunNumber)
		}
		evtCount++
	}
	return evtCount, runNumber, nil
}
