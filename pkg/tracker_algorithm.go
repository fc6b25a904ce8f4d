package trigger

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// GeigerMatrix flags the drift cells active during one clocktick.
type GeigerMatrix [NUMBER_OF_SIDES][NUMBER_OF_LAYERS][NUMBER_OF_GEIGER_ROWS]bool

func (m *GeigerMatrix) CountActive() int {
	count := 0
	for side := range m {
		for layer := range m[side] {
			for row := range m[side][layer] {
				if m[side][layer][row] {
					count++
				}
			}
		}
	}
	return count
}

// String draws each side as layers by rows, outer layer on top.
func (m *GeigerMatrix) String() string {
	var sb strings.Builder
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		fmt.Fprintf(&sb, "side %d\n", side)
		for layer := NUMBER_OF_LAYERS - 1; layer >= 0; layer-- {
			for row := 0; row < NUMBER_OF_GEIGER_ROWS; row++ {
				if m[side][layer][row] {
					sb.WriteByte('*')
				} else {
					sb.WriteByte('.')
				}
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// TrackerRecord is the tracker trigger output for one 1600 ns clocktick.
type TrackerRecord struct {
	Clocktick1600ns         int64
	LevelOneFinaleDecision  [NUMBER_OF_SIDES]uint8
	FinaleDecision          uint8
	FinalTrackerTriggerInfo [NUMBER_OF_SIDES][NUMBER_OF_ZONES]uint8
	LevelOneZoning          [NUMBER_OF_SIDES][NUMBER_OF_ZONES]uint8
	GeigerMatrix            GeigerMatrix
}

func (r *TrackerRecord) HasTrackerInfo() bool {
	for side := range r.FinalTrackerTriggerInfo {
		for zone := range r.FinalTrackerTriggerInfo[side] {
			if r.FinalTrackerTriggerInfo[side][zone] != TRACKER_DECISION_NONE {
				return true
			}
		}
	}
	return false
}

func (r *TrackerRecord) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tracker record ct1600 %d finale %02b", r.Clocktick1600ns, r.FinaleDecision)
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		fmt.Fprintf(&sb, " | side %d [%02b]", side, r.LevelOneFinaleDecision[side])
		for zone := 0; zone < NUMBER_OF_ZONES; zone++ {
			fmt.Fprintf(&sb, " %02b", r.FinalTrackerTriggerInfo[side][zone])
		}
	}
	return sb.String()
}

// TrackerAlgorithm reproduces the tracker trigger FPGA: active cells are
// projected per subzone on rows and layers, reduced by the level one
// memories, classified per zone by the level two memory and folded into
// one decision per side.
type TrackerAlgorithm struct {
	mapping     ElectronicMapping
	memories    TrackerMemories
	initialized bool

	matrix   GeigerMatrix
	levelOne [NUMBER_OF_SIDES][NUMBER_OF_ZONES]uint8
	levelTwo [NUMBER_OF_SIDES][NUMBER_OF_ZONES]uint8
}

func NewTrackerAlgorithm(mapping ElectronicMapping) *TrackerAlgorithm {
	return &TrackerAlgorithm{mapping: mapping}
}

// Initialize loads the five memories from their truth table files.
func (t *TrackerAlgorithm) Initialize(config TrackerConfig) error {
	if t.initialized {
		return &ErrState{Component: "tracker algorithm", Op: "initialize", State: "already initialized"}
	}
	memories, err := LoadTrackerMemories(config)
	if err != nil {
		return fmt.Errorf("error loading tracker memories: %w", err)
	}
	return t.InitializeWithMemories(memories)
}

// InitializeWithMemories uses memories already loaded, possibly shared with
// other algorithms.
func (t *TrackerAlgorithm) InitializeWithMemories(memories TrackerMemories) error {
	if t.initialized {
		return &ErrState{Component: "tracker algorithm", Op: "initialize", State: "already initialized"}
	}
	if t.mapping == nil {
		return &ErrState{Component: "tracker algorithm", Op: "initialize", State: "no electronic mapping"}
	}
	if err := memories.Validate(); err != nil {
		return err
	}
	t.memories = memories
	t.initialized = true
	return nil
}

func (t *TrackerAlgorithm) IsInitialized() bool {
	return t.initialized
}

func (t *TrackerAlgorithm) Reset() {
	t.initialized = false
	t.memories = TrackerMemories{}
	t.resetData()
}

func (t *TrackerAlgorithm) resetData() {
	t.matrix = GeigerMatrix{}
	t.levelOne = [NUMBER_OF_SIDES][NUMBER_OF_ZONES]uint8{}
	t.levelTwo = [NUMBER_OF_SIDES][NUMBER_OF_ZONES]uint8{}
}

func (t *TrackerAlgorithm) Matrix() GeigerMatrix {
	return t.matrix
}

func (t *TrackerAlgorithm) SetCell(cell GeigerCellID) error {
	if err := cell.Validate(); err != nil {
		return err
	}
	t.matrix[cell.Side][cell.Layer][cell.Row] = true
	return nil
}

// FillMatrix flags the cells of every active channel of the primitives.
// Channels without a cell behind them are reported and skipped.
func (t *TrackerAlgorithm) FillMatrix(tps []GeigerTP) error {
	for _, tp := range tps {
		for _, channel := range tp.ActiveChannels() {
			cell, err := t.mapping.GeigerCell(channel)
			if err != nil {
				var unmapped *ErrUnmapped
				if errors.As(err, &unmapped) {
					logger.Error(fmt.Sprintf("skipping active channel of hit %d: %v", tp.HitID(), err))
					continue
				}
				return err
			}
			if err := t.SetCell(cell); err != nil {
				return err
			}
		}
	}
	return nil
}

// BuildRowProjection ORs the subzone layers: bit i is row RowBegin+i.
func (t *TrackerAlgorithm) BuildRowProjection(side int, zone int, subzone int) uint32 {
	limits := FetchSubzoneLimits(zone, subzone)
	var projection uint32
	for row := limits.RowBegin; row <= limits.RowEnd; row++ {
		for layer := limits.LayerBegin; layer <= limits.LayerEnd; layer++ {
			if t.matrix[side][layer][row] {
				projection = SetBit(projection, uint(row-limits.RowBegin))
				break
			}
		}
	}
	return projection
}

// BuildLayerProjection ORs the subzone rows: bit i is layer LayerBegin+i.
func (t *TrackerAlgorithm) BuildLayerProjection(side int, zone int, subzone int) uint32 {
	limits := FetchSubzoneLimits(zone, subzone)
	var projection uint32
	for layer := limits.LayerBegin; layer <= limits.LayerEnd; layer++ {
		for row := limits.RowBegin; row <= limits.RowEnd; row++ {
			if t.matrix[side][layer][row] {
				projection = SetBit(projection, uint(layer-limits.LayerBegin))
				break
			}
		}
	}
	return projection
}

// buildLevelOne fills the 8 bit zone words: bit 2s is the row decision of
// subzone s and bit 2s+1 its layer decision.
func (t *TrackerAlgorithm) buildLevelOne() error {
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		for zone := 0; zone < NUMBER_OF_ZONES; zone++ {
			var word uint8
			for subzone := 0; subzone < NUMBER_OF_SUBZONES; subzone++ {
				rowDecision, err := t.memories.Row.Lookup(t.BuildRowProjection(side, zone, subzone))
				if err != nil {
					return err
				}
				layerDecision, err := t.memories.Layer.Lookup(t.BuildLayerProjection(side, zone, subzone))
				if err != nil {
					return err
				}
				if rowDecision != 0 {
					word = SetBit(word, uint(2*subzone))
				}
				if layerDecision != 0 {
					word = SetBit(word, uint(2*subzone+1))
				}
			}
			t.levelOne[side][zone] = word
		}
	}
	return nil
}

func (t *TrackerAlgorithm) buildLevelTwo() error {
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		for zone := 0; zone < NUMBER_OF_ZONES; zone++ {
			class, err := t.memories.Zone.Lookup(uint32(t.levelOne[side][zone]))
			if err != nil {
				return err
			}
			t.levelTwo[side][zone] = uint8(class)
		}
	}
	return nil
}

// buildFinale folds the zone classes of each side through the side memory,
// zone 0 first, then combines both sides with the finale memory.
func (t *TrackerAlgorithm) buildFinale() ([NUMBER_OF_SIDES]uint8, uint8, error) {
	var sides [NUMBER_OF_SIDES]uint8
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		var accumulator uint16
		for zone := 0; zone < NUMBER_OF_ZONES; zone++ {
			address := uint32(accumulator)<<GEIGER_LEVEL_TWO_SIZE | uint32(t.levelTwo[side][zone])
			value, err := t.memories.Side.Lookup(address)
			if err != nil {
				return sides, 0, err
			}
			accumulator = value
		}
		sides[side] = uint8(accumulator)
	}
	address := uint32(sides[1])<<GEIGER_LEVEL_TWO_SIZE | uint32(sides[0])
	finale, err := t.memories.Finale.Lookup(address)
	if err != nil {
		return sides, 0, err
	}
	return sides, uint8(finale), nil
}

// BuildTrackerRecord runs the memory pipeline on the current matrix.
func (t *TrackerAlgorithm) BuildTrackerRecord(clocktick1600ns int64) (TrackerRecord, error) {
	if !t.initialized {
		return TrackerRecord{}, &ErrState{Component: "tracker algorithm", Op: "build record", State: "not initialized"}
	}
	if err := t.buildLevelOne(); err != nil {
		return TrackerRecord{}, err
	}
	if err := t.buildLevelTwo(); err != nil {
		return TrackerRecord{}, err
	}
	sides, finale, err := t.buildFinale()
	if err != nil {
		return TrackerRecord{}, err
	}
	return TrackerRecord{
		Clocktick1600ns:         clocktick1600ns,
		LevelOneFinaleDecision:  sides,
		FinaleDecision:          finale,
		FinalTrackerTriggerInfo: t.levelTwo,
		LevelOneZoning:          t.levelOne,
		GeigerMatrix:            t.matrix,
	}, nil
}

// Process emits one record per 1600 ns clocktick between the first and the
// last primitive. Both 800 ns halves of a clocktick fill the same matrix.
func (t *TrackerAlgorithm) Process(tps []GeigerTP) ([]TrackerRecord, error) {
	if !t.initialized {
		return nil, &ErrState{Component: "tracker algorithm", Op: "process", State: "not initialized"}
	}
	if len(tps) == 0 {
		return nil, nil
	}

	byClocktick := make(map[int64][]GeigerTP)
	for _, tp := range tps {
		if !tp.IsValid() {
			return nil, &ErrDomain{Field: "clocktick_800ns", Value: tp.Clocktick800ns(), Reason: "clocktick is not valid"}
		}
		ct := Clocktick800To1600(tp.Clocktick800ns())
		byClocktick[ct] = append(byClocktick[ct], tp)
	}
	clockticks := make([]int64, 0, len(byClocktick))
	for ct := range byClocktick {
		clockticks = append(clockticks, ct)
	}
	slices.Sort(clockticks)

	first, last := clockticks[0], clockticks[len(clockticks)-1]
	records := make([]TrackerRecord, 0, last-first+1)
	for ct := first; ct <= last; ct++ {
		t.resetData()
		if err := t.FillMatrix(byClocktick[ct]); err != nil {
			return nil, fmt.Errorf("error filling geiger matrix at clocktick %d: %w", ct, err)
		}
		record, err := t.BuildTrackerRecord(ct)
		if err != nil {
			return nil, fmt.Errorf("error building tracker record at clocktick %d: %w", ct, err)
		}
		if configuration.Verbosity > 1 {
			logger.Info(record.String(), "tracker")
		}
		if configuration.Verbosity > 2 {
			logger.Info(t.matrix.String(), "tracker")
		}
		records = append(records, record)
	}
	t.resetData()
	return records, nil
}
