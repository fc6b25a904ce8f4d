package trigger

import (
	"fmt"

	"golang.org/x/exp/slices"
)

const (
	CALO_MULTIPLICITY_SIZE = 2
	CALO_MULTIPLICITY_MAX  = 1<<CALO_MULTIPLICITY_SIZE - 1
	CALO_ZONE_WIDTH        = NUMBER_OF_CALO_COLUMNS / NUMBER_OF_ZONES
)

// CaloSummaryRecord is the calorimeter trigger output for one 25 ns clocktick.
type CaloSummaryRecord struct {
	Clocktick25ns              int64
	ZoningWord                 [NUMBER_OF_SIDES]ZoningWord
	TotalMultiplicitySide      [NUMBER_OF_SIDES]uint8
	LTOSide                    [NUMBER_OF_SIDES]bool
	TotalMultiplicityThreshold bool
	XTInfo                     bool
	SingleSideCoinc            bool
	CaloFinaleDecision         bool
}

func (r *CaloSummaryRecord) TotalMultiplicity() uint8 {
	return saturatingAdd(r.TotalMultiplicitySide[0], r.TotalMultiplicitySide[1])
}

func (r *CaloSummaryRecord) String() string {
	return fmt.Sprintf("calo record ct25 %d zoning [%s %s] mult [%d %d] lto [%t %t] xt %t threshold %t single side %t decision %t",
		r.Clocktick25ns, r.ZoningWord[0], r.ZoningWord[1],
		r.TotalMultiplicitySide[0], r.TotalMultiplicitySide[1],
		r.LTOSide[0], r.LTOSide[1], r.XTInfo,
		r.TotalMultiplicityThreshold, r.SingleSideCoinc, r.CaloFinaleDecision)
}

func saturatingAdd(a uint8, b uint8) uint8 {
	sum := int(a) + int(b)
	if sum > CALO_MULTIPLICITY_MAX {
		return CALO_MULTIPLICITY_MAX
	}
	return uint8(sum)
}

// caloZoneOfColumn groups two main wall columns per zone.
func caloZoneOfColumn(column int) int {
	return column / CALO_ZONE_WIDTH
}

// CaloAlgorithm builds one summary per 25 ns clocktick. Each summary
// combines the hits held in a circular buffer of the last
// CircularBufferDepth clockticks.
type CaloAlgorithm struct {
	mapping     ElectronicMapping
	config      CaloConfig
	initialized bool
	buffer      []CaloSummaryRecord
}

func NewCaloAlgorithm(mapping ElectronicMapping) *CaloAlgorithm {
	return &CaloAlgorithm{mapping: mapping}
}

func (c *CaloAlgorithm) Initialize(config CaloConfig) error {
	if c.initialized {
		return &ErrState{Component: "calo algorithm", Op: "initialize", State: "already initialized"}
	}
	if c.mapping == nil {
		return &ErrState{Component: "calo algorithm", Op: "initialize", State: "no electronic mapping"}
	}
	if config.CircularBufferDepth < 1 {
		return &ErrDomain{Field: "circular_buffer_depth", Value: int64(config.CircularBufferDepth), Reason: "must be at least 1"}
	}
	if config.TotalMultiplicityThreshold < 1 || config.TotalMultiplicityThreshold > CALO_MULTIPLICITY_MAX {
		return &ErrDomain{Field: "total_multiplicity_threshold", Value: int64(config.TotalMultiplicityThreshold),
			Reason: fmt.Sprintf("must be between 1 and %d", CALO_MULTIPLICITY_MAX)}
	}
	c.config = config
	c.buffer = make([]CaloSummaryRecord, config.CircularBufferDepth)
	c.initialized = true
	return nil
}

func (c *CaloAlgorithm) IsInitialized() bool {
	return c.initialized
}

func (c *CaloAlgorithm) Config() CaloConfig {
	return c.config
}

func (c *CaloAlgorithm) Reset() {
	c.initialized = false
	c.config = CaloConfig{}
	c.buffer = nil
}

func (c *CaloAlgorithm) resetData() {
	clear(c.buffer)
}

// buildTick gathers the primitives of a single clocktick.
func (c *CaloAlgorithm) buildTick(clocktick int64, tps []CaloTP) CaloSummaryRecord {
	record := CaloSummaryRecord{Clocktick25ns: clocktick}
	for _, tp := range tps {
		record.XTInfo = record.XTInfo || tp.XT()
		side := -1
		for _, channel := range tp.ActiveChannels() {
			block, err := c.mapping.CaloBlock(channel)
			if err != nil {
				logger.Error(fmt.Sprintf("skipping calo channel of hit %d: %v", tp.HitID(), err))
				continue
			}
			record.ZoningWord[block.Side] = record.ZoningWord[block.Side].Set(caloZoneOfColumn(block.Column))
			side = block.Side
		}
		if side < 0 {
			// LTO only primitive, the crate gives the side
			if int(tp.ElectronicID().CrateID) >= NUMBER_OF_SIDES {
				continue
			}
			side = int(tp.ElectronicID().CrateID)
		}
		record.TotalMultiplicitySide[side] = saturatingAdd(record.TotalMultiplicitySide[side], tp.HTM())
		record.LTOSide[side] = record.LTOSide[side] || tp.LTO()
	}
	return record
}

// summarize ORs the buffered clockticks into the record of clocktick.
func (c *CaloAlgorithm) summarize(clocktick int64) CaloSummaryRecord {
	summary := CaloSummaryRecord{Clocktick25ns: clocktick}
	for _, tick := range c.buffer {
		for side := 0; side < NUMBER_OF_SIDES; side++ {
			summary.ZoningWord[side] |= tick.ZoningWord[side]
			summary.TotalMultiplicitySide[side] = max(summary.TotalMultiplicitySide[side], tick.TotalMultiplicitySide[side])
			summary.LTOSide[side] = summary.LTOSide[side] || tick.LTOSide[side]
		}
		summary.XTInfo = summary.XTInfo || tick.XTInfo
	}

	hasSide := [NUMBER_OF_SIDES]bool{}
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		hasSide[side] = summary.ZoningWord[side].Any() || summary.TotalMultiplicitySide[side] > 0
	}
	summary.SingleSideCoinc = hasSide[0] != hasSide[1]
	summary.TotalMultiplicityThreshold = int(summary.TotalMultiplicity()) >= c.config.TotalMultiplicityThreshold
	summary.CaloFinaleDecision = summary.TotalMultiplicityThreshold &&
		(c.config.SingleSideCoincidence || (hasSide[0] && hasSide[1]))
	return summary
}

// Process emits one summary per 25 ns clocktick, from the first primitive
// until the last one has left the circular buffer.
func (c *CaloAlgorithm) Process(tps []CaloTP) ([]CaloSummaryRecord, error) {
	if !c.initialized {
		return nil, &ErrState{Component: "calo algorithm", Op: "process", State: "not initialized"}
	}
	if len(tps) == 0 {
		return nil, nil
	}
	c.resetData()

	byClocktick := make(map[int64][]CaloTP)
	for _, tp := range tps {
		if tp.Clocktick25ns() < 0 {
			return nil, &ErrDomain{Field: "clocktick_25ns", Value: tp.Clocktick25ns(), Reason: "clocktick is not valid"}
		}
		byClocktick[tp.Clocktick25ns()] = append(byClocktick[tp.Clocktick25ns()], tp)
	}
	clockticks := make([]int64, 0, len(byClocktick))
	for ct := range byClocktick {
		clockticks = append(clockticks, ct)
	}
	slices.Sort(clockticks)

	depth := int64(len(c.buffer))
	first := clockticks[0]
	last := clockticks[len(clockticks)-1] + depth - 1
	records := make([]CaloSummaryRecord, 0, last-first+1)
	for ct := first; ct <= last; ct++ {
		c.buffer[(ct-first)%depth] = c.buildTick(ct, byClocktick[ct])
		summary := c.summarize(ct)
		if configuration.Verbosity > 1 && summary.CaloFinaleDecision {
			logger.Info(summary.String(), "calo")
		}
		records = append(records, summary)
	}
	c.resetData()
	return records, nil
}
