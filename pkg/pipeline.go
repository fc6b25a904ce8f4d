package trigger

import "fmt"

// Pipeline is one set of trigger engines. It must not be shared between
// goroutines, but the memories behind it can.
type Pipeline struct {
	Tracker     *TrackerAlgorithm
	Calo        *CaloAlgorithm
	Coincidence *CoincidenceAlgorithm
}

func NewPipeline(mapping ElectronicMapping, memories TrackerMemories, config Configuration) (*Pipeline, error) {
	p := &Pipeline{
		Tracker:     NewTrackerAlgorithm(mapping),
		Calo:        NewCaloAlgorithm(mapping),
		Coincidence: NewCoincidenceAlgorithm(),
	}
	if err := p.Tracker.InitializeWithMemories(memories); err != nil {
		return nil, fmt.Errorf("error initializing tracker algorithm: %w", err)
	}
	if err := p.Calo.Initialize(config.CaloConfig()); err != nil {
		return nil, fmt.Errorf("error initializing calo algorithm: %w", err)
	}
	if err := p.Coincidence.Initialize(config.CoincidenceConfig()); err != nil {
		return nil, fmt.Errorf("error initializing coincidence algorithm: %w", err)
	}
	return p, nil
}

func (p *Pipeline) ProcessEvent(event Event) EventResult {
	result := EventResult{
		RunNumber:  event.RunNumber,
		EventID:    event.EventID,
		NGeigerTPs: len(event.GeigerTPs),
		NCaloTPs:   len(event.CaloTPs),
	}

	caloRecords, err := p.Calo.Process(event.CaloTPs)
	if err != nil {
		result.Err = fmt.Errorf("event %d: calo: %w", event.EventID, err)
		return result
	}
	trackerRecords, err := p.Tracker.Process(event.GeigerTPs)
	if err != nil {
		result.Err = fmt.Errorf("event %d: tracker: %w", event.EventID, err)
		return result
	}
	coincidences, err := p.Coincidence.Process(caloRecords, trackerRecords)
	if err != nil {
		result.Err = fmt.Errorf("event %d: coincidence: %w", event.EventID, err)
		return result
	}

	result.CaloRecords = caloRecords
	result.TrackerRecords = trackerRecords
	result.CoincidenceRecords = coincidences
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("event %d: %d tracker records, %d calo records, %d coincidences",
			event.EventID, len(trackerRecords), len(caloRecords), len(coincidences))
		logger.Info(message, "pipeline")
	}
	return result
}
