package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(t *testing.T, table LookupTable, address uint32) uint16 {
	t.Helper()
	value, err := table.Lookup(address)
	require.NoError(t, err)
	return value
}

func TestMemoryMakerProjections(t *testing.T) {
	t.Parallel()

	maker := MemoryMaker{RowThreshold: 2, LayerThreshold: 3}
	row, err := maker.MakeRowMemory()
	require.NoError(t, err)
	assert.True(t, row.IsComplete())
	assert.Equal(t, uint16(0), lookup(t, row, 0b000000))
	assert.Equal(t, uint16(0), lookup(t, row, 0b000100))
	assert.Equal(t, uint16(1), lookup(t, row, 0b100100))

	layer, err := maker.MakeLayerMemory()
	require.NoError(t, err)
	assert.Equal(t, uint16(0), lookup(t, layer, 0b00011))
	assert.Equal(t, uint16(1), lookup(t, layer, 0b10101))
}

func TestMemoryMakerZone(t *testing.T) {
	t.Parallel()

	zone, err := MemoryMaker{}.MakeZoneMemory()
	require.NoError(t, err)

	tests := []struct {
		name    string
		address uint32
		want    uint8
	}{
		{"nothing", 0b00000000, TRACKER_DECISION_NONE},
		{"row only", 0b00000001, TRACKER_DECISION_PRETRACK},
		{"layer only outer", 0b00100000, TRACKER_DECISION_PRETRACK},
		{"row and layer", 0b00000011, TRACKER_DECISION_TRACK},
		{"two tracks", 0b11000011, TRACKER_DECISION_TRACK},
		{"track and pretrack", 0b00000111, TRACKER_DECISION_AMBIGUOUS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, uint16(tt.want), lookup(t, zone, tt.address))
		})
	}
}

func TestMemoryMakerFolds(t *testing.T) {
	t.Parallel()

	memories, err := MemoryMaker{RowThreshold: 1, LayerThreshold: 1}.MakeAll()
	require.NoError(t, err)
	require.NoError(t, memories.Validate())

	for _, table := range []LookupTable{memories.Side, memories.Finale} {
		assert.Equal(t, uint16(TRACKER_DECISION_NONE), lookup(t, table, 0b0000))
		assert.Equal(t, uint16(TRACKER_DECISION_TRACK), lookup(t, table, 0b0010))
		assert.Equal(t, uint16(TRACKER_DECISION_TRACK), lookup(t, table, 0b1000))
		assert.Equal(t, uint16(TRACKER_DECISION_AMBIGUOUS), lookup(t, table, 0b0110))
	}
}

func TestWriteAndLoadTrackerMemories(t *testing.T) {
	t.Parallel()

	maker := MemoryMaker{RowThreshold: 1, LayerThreshold: 3}
	config, err := maker.WriteAll(t.TempDir())
	require.NoError(t, err)

	loaded, err := LoadTrackerMemories(config)
	require.NoError(t, err)
	require.NoError(t, loaded.Validate())

	made, err := maker.MakeAll()
	require.NoError(t, err)
	assert.Equal(t, made, loaded)

	config.MemSideFile = ""
	_, err = LoadTrackerMemories(config)
	var memErr *ErrMemory
	assert.ErrorAs(t, err, &memErr)
}

func TestTrackerMemoriesValidate(t *testing.T) {
	t.Parallel()

	memories, err := MemoryMaker{RowThreshold: 1, LayerThreshold: 1}.MakeAll()
	require.NoError(t, err)

	missing := memories
	missing.Zone = nil
	var memErr *ErrMemory
	assert.ErrorAs(t, missing.Validate(), &memErr)

	wrong := memories
	wrong.Layer = memories.Row
	assert.ErrorAs(t, wrong.Validate(), &memErr)
}
