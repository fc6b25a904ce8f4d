package trigger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorDeterministic(t *testing.T) {
	t.Parallel()

	first := generateEvents(t, 10, 42)
	second := generateEvents(t, 10, 42)
	for i := range first {
		if diff := cmp.Diff(EncodeEvent(first[i]), EncodeEvent(second[i])); diff != "" {
			t.Errorf("event %d differs for the same seed (-first +second):\n%s", i, diff)
		}
	}
}

func TestGeneratedEventShape(t *testing.T) {
	t.Parallel()

	mapping := StandardMapping{}
	for _, event := range generateEvents(t, 20, 5) {
		assert.Equal(t, uint32(7), event.RunNumber)
		require.Len(t, event.CaloTPs, 1)

		tracker := NewTrackerAlgorithm(mapping)
		require.NoError(t, tracker.FillMatrix(event.GeigerTPs))
		matrix := tracker.Matrix()
		assert.Equal(t, NUMBER_OF_LAYERS, matrix.CountActive(), "event %d", event.EventID)

		sides := make(map[int]bool)
		for _, tp := range event.GeigerTPs {
			assert.True(t, tp.IsValid())
			for _, channel := range tp.ActiveChannels() {
				cell, err := mapping.GeigerCell(channel)
				require.NoError(t, err)
				sides[cell.Side] = true
			}
		}
		assert.Len(t, sides, 1, "a track stays on one side")

		channels := event.CaloTPs[0].ActiveChannels()
		require.Len(t, channels, 1)
		block, err := mapping.CaloBlock(channels[0])
		require.NoError(t, err)
		assert.True(t, sides[block.Side], "the calorimeter hit is on the track side")
	}
}
