package trigger

import (
	"fmt"
)

const (
	// Latency of the calorimeter decision in 1600 ns clockticks
	SHIFT_COMPUTING_CLOCKTICK_1600NS = 1
	// Look-ahead after a calorimeter decision, in 25 ns clockticks.
	// Matches the buffer depth of the calorimeter boards.
	CALO_BOARD_BUFFER_DEPTH = 3
)

// CoincidenceCaloRecord is a calorimeter decision moved to the 1600 ns
// clock of the tracker.
type CoincidenceCaloRecord struct {
	Clocktick1600ns            int64
	ZoningWord                 [NUMBER_OF_SIDES]ZoningWord
	TotalMultiplicitySide      [NUMBER_OF_SIDES]uint8
	LTOSide                    [NUMBER_OF_SIDES]bool
	TotalMultiplicityThreshold bool
	XTInfo                     bool
	SingleSideCoinc            bool
	CaloFinaleDecision         bool
}

func newCoincidenceCaloRecord(summary CaloSummaryRecord) CoincidenceCaloRecord {
	return CoincidenceCaloRecord{
		Clocktick1600ns:            Clocktick25To1600(summary.Clocktick25ns) + SHIFT_COMPUTING_CLOCKTICK_1600NS,
		ZoningWord:                 summary.ZoningWord,
		TotalMultiplicitySide:      summary.TotalMultiplicitySide,
		LTOSide:                    summary.LTOSide,
		TotalMultiplicityThreshold: summary.TotalMultiplicityThreshold,
		XTInfo:                     summary.XTInfo,
		SingleSideCoinc:            summary.SingleSideCoinc,
		CaloFinaleDecision:         summary.CaloFinaleDecision,
	}
}

// merge adds a later summary. The merged zones are smeared to the next
// zone to cover hits on a zone boundary.
func (r *CoincidenceCaloRecord) merge(summary CaloSummaryRecord) {
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		r.ZoningWord[side] = ActiveNextZone(r.ZoningWord[side] | summary.ZoningWord[side])
		r.TotalMultiplicitySide[side] = max(r.TotalMultiplicitySide[side], summary.TotalMultiplicitySide[side])
		r.LTOSide[side] = r.LTOSide[side] || summary.LTOSide[side]
	}
	r.TotalMultiplicityThreshold = r.TotalMultiplicityThreshold || summary.TotalMultiplicityThreshold
	r.XTInfo = r.XTInfo || summary.XTInfo
	r.SingleSideCoinc = r.SingleSideCoinc || summary.SingleSideCoinc
	r.CaloFinaleDecision = r.CaloFinaleDecision || summary.CaloFinaleDecision
}

// matchesZone reports whether the calorimeter saw the tracker zone or one
// of its two neighbours.
func (r *CoincidenceCaloRecord) matchesZone(side int, zone int) bool {
	word := r.ZoningWord[side]
	return word.Test(zone-1) || word.Test(zone) || word.Test(zone+1)
}

// CoincidenceRecord is a positive spatial and temporal coincidence between
// the calorimeter and the tracker.
type CoincidenceRecord struct {
	Clocktick1600ns   int64
	CoincidenceZoning [NUMBER_OF_SIDES]ZoningWord
	TrackerDecision   [NUMBER_OF_SIDES]uint8
	CaloZoning        [NUMBER_OF_SIDES]ZoningWord
	TotalMultiplicity [NUMBER_OF_SIDES]uint8
	Decision          bool
}

func (r *CoincidenceRecord) String() string {
	return fmt.Sprintf("coincidence ct1600 %d zones [%s %s] tracker [%02b %02b] calo [%s %s]",
		r.Clocktick1600ns, r.CoincidenceZoning[0], r.CoincidenceZoning[1],
		r.TrackerDecision[0], r.TrackerDecision[1], r.CaloZoning[0], r.CaloZoning[1])
}

type CoincidenceAlgorithm struct {
	config      CoincidenceConfig
	initialized bool

	caloDecisionLatched bool
	caloRecords         []CoincidenceCaloRecord
}

func NewCoincidenceAlgorithm() *CoincidenceAlgorithm {
	return &CoincidenceAlgorithm{}
}

func (c *CoincidenceAlgorithm) Initialize(config CoincidenceConfig) error {
	if c.initialized {
		return &ErrState{Component: "coincidence algorithm", Op: "initialize", State: "already initialized"}
	}
	if config.CalorimeterGateSize < 0 {
		return &ErrDomain{Field: "calorimeter_gate_size", Value: int64(config.CalorimeterGateSize), Reason: "must not be negative"}
	}
	c.config = config
	c.initialized = true
	return nil
}

func (c *CoincidenceAlgorithm) IsInitialized() bool {
	return c.initialized
}

func (c *CoincidenceAlgorithm) Reset() {
	c.ResetData()
	c.config = CoincidenceConfig{}
	c.initialized = false
}

// ResetData drops the records and the latch of the previous pass.
func (c *CoincidenceAlgorithm) ResetData() {
	c.caloDecisionLatched = false
	c.caloRecords = c.caloRecords[:0]
}

func (c *CoincidenceAlgorithm) CoincidenceCaloRecords() []CoincidenceCaloRecord {
	records := make([]CoincidenceCaloRecord, len(c.caloRecords))
	copy(records, c.caloRecords)
	return records
}

// PrepareCaloCoincidence latches the first calorimeter decision, merges
// the summaries of the look-ahead window into it, then repeats the last
// record until the calorimeter gate closes. Records never go past the
// gate: a look-ahead summary beyond it is merged into the last record.
func (c *CoincidenceAlgorithm) PrepareCaloCoincidence(summaries []CaloSummaryRecord) {
	var decisionClocktick int64
	var gateEnd int64
	for _, summary := range summaries {
		if !c.caloDecisionLatched {
			if summary.CaloFinaleDecision {
				c.caloDecisionLatched = true
				decisionClocktick = summary.Clocktick25ns
				latched := newCoincidenceCaloRecord(summary)
				gateEnd = latched.Clocktick1600ns + int64(c.config.CalorimeterGateSize)
				c.caloRecords = append(c.caloRecords, latched)
			}
			continue
		}

		if summary.Clocktick25ns <= decisionClocktick {
			continue
		}
		if summary.Clocktick25ns > decisionClocktick+CALO_BOARD_BUFFER_DEPTH {
			break
		}
		clocktick := Clocktick25To1600(summary.Clocktick25ns) + SHIFT_COMPUTING_CLOCKTICK_1600NS
		last := &c.caloRecords[len(c.caloRecords)-1]
		switch {
		case clocktick == last.Clocktick1600ns, clocktick > gateEnd:
			last.merge(summary)
		case clocktick == last.Clocktick1600ns+1:
			next := *last
			next.Clocktick1600ns = clocktick
			next.merge(summary)
			c.caloRecords = append(c.caloRecords, next)
		}
	}

	if !c.caloDecisionLatched {
		return
	}
	for {
		last := c.caloRecords[len(c.caloRecords)-1]
		if last.Clocktick1600ns >= gateEnd {
			break
		}
		last.Clocktick1600ns++
		c.caloRecords = append(c.caloRecords, last)
	}

	if configuration.Verbosity > 1 {
		logger.Info(fmt.Sprintf("calorimeter gate open from clocktick %d to %d",
			c.caloRecords[0].Clocktick1600ns, c.caloRecords[len(c.caloRecords)-1].Clocktick1600ns), "coincidence")
	}
}

// Process matches the gated calorimeter records with the tracker records
// of the same clocktick. A record is produced for each clocktick where a
// tracker zone fired next to a calorimeter zone on the same side.
func (c *CoincidenceAlgorithm) Process(summaries []CaloSummaryRecord, trackerRecords []TrackerRecord) ([]CoincidenceRecord, error) {
	if !c.initialized {
		return nil, &ErrState{Component: "coincidence algorithm", Op: "process", State: "not initialized"}
	}
	c.ResetData()
	c.PrepareCaloCoincidence(summaries)

	var coincidences []CoincidenceRecord
	for i := range c.caloRecords {
		calo := &c.caloRecords[i]
		for j := range trackerRecords {
			tracker := &trackerRecords[j]
			if tracker.Clocktick1600ns != calo.Clocktick1600ns {
				continue
			}
			record := CoincidenceRecord{
				Clocktick1600ns:   calo.Clocktick1600ns,
				TrackerDecision:   tracker.LevelOneFinaleDecision,
				CaloZoning:        calo.ZoningWord,
				TotalMultiplicity: calo.TotalMultiplicitySide,
			}
			for side := 0; side < NUMBER_OF_SIDES; side++ {
				for zone := 0; zone < NUMBER_OF_ZONES; zone++ {
					if tracker.FinalTrackerTriggerInfo[side][zone] == TRACKER_DECISION_NONE {
						continue
					}
					if calo.matchesZone(side, zone) {
						record.CoincidenceZoning[side] = record.CoincidenceZoning[side].Set(zone)
						record.Decision = true
					}
				}
			}
			if !record.Decision {
				continue
			}
			if configuration.Verbosity > 0 {
				logger.Info(record.String(), "coincidence")
			}
			coincidences = append(coincidences, record)
		}
	}
	return coincidences, nil
}
