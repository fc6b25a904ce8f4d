package trigger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// geigerTPsFromCells builds one primitive per board holding the cells.
func geigerTPsFromCells(t *testing.T, mapping ElectronicMapping, ct800 int64, cells ...GeigerCellID) []GeigerTP {
	t.Helper()
	data := make(map[ElectronicID]uint64)
	var boards []ElectronicID
	for _, cell := range cells {
		id, err := mapping.GeigerElectronicID(cell)
		require.NoError(t, err)
		board := id.Board()
		if _, ok := data[board]; !ok {
			boards = append(boards, board)
		}
		data[board] = SetBit(data[board], uint(id.ChannelID))
	}
	tps := make([]GeigerTP, 0, len(boards))
	for _, board := range boards {
		tps = append(tps, newTestGeigerTP(t, board.CrateID, board.BoardID, ct800, data[board]))
	}
	return tps
}

func newFixtureMemory(t *testing.T, name string, addressWidth uint, dataWidth uint, entries map[uint32]uint16) *Memory {
	t.Helper()
	mem, err := NewMemory(name, addressWidth, dataWidth)
	require.NoError(t, err)
	for address := uint32(0); address < uint32(mem.Size()); address++ {
		require.NoError(t, mem.Fill(address, entries[address]))
	}
	return mem
}

func standardMemories(t *testing.T) TrackerMemories {
	t.Helper()
	memories, err := MemoryMaker{RowThreshold: 1, LayerThreshold: 1}.MakeAll()
	require.NoError(t, err)
	return memories
}

func newTestTracker(t *testing.T, memories TrackerMemories) *TrackerAlgorithm {
	t.Helper()
	tracker := NewTrackerAlgorithm(StandardMapping{})
	require.NoError(t, tracker.InitializeWithMemories(memories))
	return tracker
}

func TestTrackerProjections(t *testing.T) {
	t.Parallel()

	tracker := NewTrackerAlgorithm(StandardMapping{})
	require.NoError(t, tracker.SetCell(GeigerCellID{Side: 1, Layer: 6, Row: 17}))
	require.NoError(t, tracker.SetCell(GeigerCellID{Side: 1, Layer: 8, Row: 20}))
	require.NoError(t, tracker.SetCell(GeigerCellID{Side: 0, Layer: 7, Row: 18}))

	// zone 1, subzone 3: rows 15 to 20, layers 5 to 8
	assert.Equal(t, uint32(0b100100), tracker.BuildRowProjection(1, 1, 3))
	assert.Equal(t, uint32(0b1010), tracker.BuildLayerProjection(1, 1, 3))
	assert.Equal(t, uint32(0), tracker.BuildRowProjection(1, 1, 2))
	assert.Equal(t, uint32(0b1000), tracker.BuildRowProjection(0, 1, 3))
	matrix := tracker.Matrix()
	assert.Equal(t, 3, matrix.CountActive())

	var rangeErr *ErrRange
	assert.ErrorAs(t, tracker.SetCell(GeigerCellID{Side: 2}), &rangeErr)
}

func TestTrackerScenario(t *testing.T) {
	t.Parallel()

	// Two cells in zone 0, subzone 0. Only their exact projections fire.
	maker := MemoryMaker{}
	side, err := maker.MakeSideMemory()
	require.NoError(t, err)
	finale, err := maker.MakeFinaleMemory()
	require.NoError(t, err)
	memories := TrackerMemories{
		Row:    newFixtureMemory(t, "row", MEM_ROW_ADDRESS_SIZE, MEM_ROW_DATA_SIZE, map[uint32]uint16{0b10100: 1}),
		Layer:  newFixtureMemory(t, "layer", MEM_LAYER_ADDRESS_SIZE, MEM_LAYER_DATA_SIZE, map[uint32]uint16{0b01010: 1}),
		Zone:   newFixtureMemory(t, "zone", MEM_ZONE_ADDRESS_SIZE, MEM_ZONE_DATA_SIZE, map[uint32]uint16{0b11: uint16(TRACKER_DECISION_TRACK)}),
		Side:   side,
		Finale: finale,
	}
	tracker := newTestTracker(t, memories)

	cells := []GeigerCellID{{Side: 0, Layer: 1, Row: 2}, {Side: 0, Layer: 3, Row: 4}}
	tps := geigerTPsFromCells(t, StandardMapping{}, 40, cells...)
	require.Len(t, tps, 2, "rows 2 and 4 are read by two boards")
	tps = append(tps, newTestGeigerTP(t, 0, 0, 45, 0))

	records, err := tracker.Process(tps)
	require.NoError(t, err)
	require.Len(t, records, 3)

	want := TrackerRecord{Clocktick1600ns: 20}
	want.LevelOneZoning[0][0] = 0b11
	want.FinalTrackerTriggerInfo[0][0] = TRACKER_DECISION_TRACK
	want.LevelOneFinaleDecision[0] = TRACKER_DECISION_TRACK
	want.FinaleDecision = TRACKER_DECISION_TRACK
	for _, cell := range cells {
		want.GeigerMatrix[cell.Side][cell.Layer][cell.Row] = true
	}
	if diff := cmp.Diff(want, records[0]); diff != "" {
		t.Errorf("tracker record mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, records[0].HasTrackerInfo())

	// Clockticks without cells are still emitted
	for i, ct := range []int64{21, 22} {
		assert.Equal(t, TrackerRecord{Clocktick1600ns: ct}, records[i+1])
		assert.False(t, records[i+1].HasTrackerInfo())
	}

	again, err := tracker.Process(tps)
	require.NoError(t, err)
	if diff := cmp.Diff(records, again); diff != "" {
		t.Errorf("processing is not deterministic (-first +second):\n%s", diff)
	}
}

func TestTrackerStandardMemories(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(t, standardMemories(t))

	// zone 5 spans rows 56 to 66, the first half ends at row 61
	tps := geigerTPsFromCells(t, StandardMapping{}, 121, GeigerCellID{Side: 1, Layer: 7, Row: 60})
	records, err := tracker.Process(tps)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, int64(60), record.Clocktick1600ns)
	assert.Equal(t, uint8(0b110000), record.LevelOneZoning[1][5])
	assert.Equal(t, TRACKER_DECISION_TRACK, record.FinalTrackerTriggerInfo[1][5])
	assert.Equal(t, [NUMBER_OF_SIDES]uint8{TRACKER_DECISION_NONE, TRACKER_DECISION_TRACK}, record.LevelOneFinaleDecision)
	assert.Equal(t, TRACKER_DECISION_TRACK, record.FinaleDecision)

	// A single cell fires both projections of its subzone
	tracker.resetData()
	require.NoError(t, tracker.SetCell(GeigerCellID{Side: 0, Layer: 0, Row: 33}))
	record, err = tracker.BuildTrackerRecord(0)
	require.NoError(t, err)
	assert.Equal(t, TRACKER_DECISION_TRACK, record.FinalTrackerTriggerInfo[0][3])
}

func TestTrackerSameClocktickHalves(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(t, standardMemories(t))
	first := geigerTPsFromCells(t, StandardMapping{}, 10, GeigerCellID{Side: 0, Layer: 0, Row: 0})
	second := geigerTPsFromCells(t, StandardMapping{}, 11, GeigerCellID{Side: 0, Layer: 8, Row: 100})

	records, err := tracker.Process(append(first, second...))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].GeigerMatrix.CountActive())
}

func TestTrackerSkipsUnmappedChannels(t *testing.T) {
	t.Parallel()

	tracker := newTestTracker(t, standardMemories(t))
	// Channel 0 is row 112, channel 9 would be row 113
	tp := newTestGeigerTP(t, 2, 19, 0, 1<<0|1<<NUMBER_OF_LAYERS)
	require.NoError(t, tracker.FillMatrix([]GeigerTP{tp}))
	matrix := tracker.Matrix()
	assert.Equal(t, 1, matrix.CountActive())
	assert.True(t, matrix[0][0][112])
}

func TestTrackerState(t *testing.T) {
	t.Parallel()

	var stateErr *ErrState
	tracker := NewTrackerAlgorithm(StandardMapping{})
	_, err := tracker.Process(nil)
	assert.ErrorAs(t, err, &stateErr)
	_, err = tracker.BuildTrackerRecord(0)
	assert.ErrorAs(t, err, &stateErr)

	memories := standardMemories(t)
	require.NoError(t, tracker.InitializeWithMemories(memories))
	assert.True(t, tracker.IsInitialized())
	assert.ErrorAs(t, tracker.InitializeWithMemories(memories), &stateErr)

	records, err := tracker.Process(nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	tracker.Reset()
	assert.False(t, tracker.IsInitialized())
	require.NoError(t, tracker.InitializeWithMemories(memories))

	assert.ErrorAs(t, NewTrackerAlgorithm(nil).InitializeWithMemories(memories), &stateErr)

	var memErr *ErrMemory
	incomplete := memories
	incomplete.Finale = nil
	assert.ErrorAs(t, NewTrackerAlgorithm(StandardMapping{}).InitializeWithMemories(incomplete), &memErr)
}

func TestTrackerInitializeFromFiles(t *testing.T) {
	t.Parallel()

	config, err := MemoryMaker{RowThreshold: 1, LayerThreshold: 1}.WriteAll(t.TempDir())
	require.NoError(t, err)
	tracker := NewTrackerAlgorithm(StandardMapping{})
	require.NoError(t, tracker.Initialize(config))
	assert.True(t, tracker.IsInitialized())

	var stateErr *ErrState
	assert.ErrorAs(t, tracker.Initialize(config), &stateErr)
}
