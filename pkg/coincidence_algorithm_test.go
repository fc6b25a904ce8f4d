package trigger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func caloDecision(ct25 int64, side int, zones ...int) CaloSummaryRecord {
	record := CaloSummaryRecord{
		Clocktick25ns:              ct25,
		TotalMultiplicityThreshold: true,
		SingleSideCoinc:            true,
		CaloFinaleDecision:         true,
	}
	record.TotalMultiplicitySide[side] = 1
	for _, zone := range zones {
		record.ZoningWord[side] = record.ZoningWord[side].Set(zone)
	}
	return record
}

func zoning(zones ...int) ZoningWord {
	var word ZoningWord
	for _, zone := range zones {
		word = word.Set(zone)
	}
	return word
}

func trackerDecision(ct1600 int64, side int, zone int) TrackerRecord {
	record := TrackerRecord{Clocktick1600ns: ct1600}
	record.FinalTrackerTriggerInfo[side][zone] = TRACKER_DECISION_TRACK
	record.LevelOneFinaleDecision[side] = TRACKER_DECISION_TRACK
	record.FinaleDecision = TRACKER_DECISION_TRACK
	return record
}

func newTestCoincidence(t *testing.T, gate int) *CoincidenceAlgorithm {
	t.Helper()
	coincidence := NewCoincidenceAlgorithm()
	require.NoError(t, coincidence.Initialize(CoincidenceConfig{CalorimeterGateSize: gate}))
	return coincidence
}

type gatedZones struct {
	Clocktick1600ns int64
	Zoning          ZoningWord
}

func gated(records []CoincidenceCaloRecord) []gatedZones {
	out := make([]gatedZones, len(records))
	for i, r := range records {
		out[i] = gatedZones{r.Clocktick1600ns, r.ZoningWord[0]}
	}
	return out
}

func TestCaloGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		gate      int
		summaries []CaloSummaryRecord
		want      []gatedZones
	}{
		{
			name:      "single decision",
			gate:      4,
			summaries: []CaloSummaryRecord{caloDecision(1216, 0, 3)},
			want: []gatedZones{
				{20, zoning(3)}, {21, zoning(3)}, {22, zoning(3)}, {23, zoning(3)}, {24, zoning(3)},
			},
		},
		{
			name: "look-ahead in the same clocktick",
			gate: 4,
			summaries: []CaloSummaryRecord{
				{Clocktick25ns: 1200},
				caloDecision(1216, 0, 3),
				{Clocktick25ns: 1217, ZoningWord: [NUMBER_OF_SIDES]ZoningWord{zoning(5)}},
				caloDecision(1220, 0, 8),
			},
			want: []gatedZones{
				{20, zoning(3, 4, 5, 6)}, {21, zoning(3, 4, 5, 6)}, {22, zoning(3, 4, 5, 6)},
				{23, zoning(3, 4, 5, 6)}, {24, zoning(3, 4, 5, 6)},
			},
		},
		{
			name: "look-ahead in the next clocktick",
			gate: 4,
			summaries: []CaloSummaryRecord{
				caloDecision(1279, 0, 3),
				caloDecision(1280, 0, 7),
			},
			want: []gatedZones{
				{20, zoning(3)}, {21, zoning(3, 4, 7, 8)}, {22, zoning(3, 4, 7, 8)},
				{23, zoning(3, 4, 7, 8)}, {24, zoning(3, 4, 7, 8)},
			},
		},
		{
			name: "look-ahead after a closed gate",
			gate: 0,
			summaries: []CaloSummaryRecord{
				caloDecision(1279, 0, 3),
				caloDecision(1280, 0, 7),
			},
			want: []gatedZones{{20, zoning(3, 4, 7, 8)}},
		},
		{
			name:      "no decision",
			gate:      4,
			summaries: []CaloSummaryRecord{{Clocktick25ns: 1216, ZoningWord: [NUMBER_OF_SIDES]ZoningWord{zoning(3)}}},
			want:      []gatedZones{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coincidence := newTestCoincidence(t, tt.gate)
			coincidence.PrepareCaloCoincidence(tt.summaries)
			if diff := cmp.Diff(tt.want, gated(coincidence.CoincidenceCaloRecords())); diff != "" {
				t.Errorf("gated records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCaloGateSize(t *testing.T) {
	t.Parallel()

	for _, gate := range []int{0, 1, 4, 10} {
		coincidence := newTestCoincidence(t, gate)
		coincidence.PrepareCaloCoincidence([]CaloSummaryRecord{caloDecision(1216, 1, 2)})
		records := coincidence.CoincidenceCaloRecords()
		require.Len(t, records, gate+1, "gate %d", gate)
		assert.Equal(t, int64(20), records[0].Clocktick1600ns)
		assert.Equal(t, int64(20+gate), records[gate].Clocktick1600ns)
		for _, record := range records {
			assert.True(t, record.CaloFinaleDecision)
			assert.Equal(t, zoning(2), record.ZoningWord[1])
		}
	}
}

func TestCaloGateOneRecordPerClocktick(t *testing.T) {
	t.Parallel()

	// Look-ahead summaries crossing into the next 1600 ns clocktick.
	summaries := []CaloSummaryRecord{
		caloDecision(1278, 0, 1),
		caloDecision(1279, 0, 2),
		caloDecision(1280, 0, 4),
		caloDecision(1281, 0, 6),
	}
	for _, gate := range []int{0, 1, 2} {
		coincidence := newTestCoincidence(t, gate)
		coincidence.PrepareCaloCoincidence(summaries)
		records := coincidence.CoincidenceCaloRecords()
		require.Len(t, records, gate+1, "gate %d", gate)
		for i, record := range records {
			assert.Equal(t, int64(20+i), record.Clocktick1600ns, "gate %d", gate)
		}
		assert.True(t, records[gate].ZoningWord[0].Test(6), "gate %d", gate)
	}
}

func TestCoincidenceMatching(t *testing.T) {
	t.Parallel()

	summaries := []CaloSummaryRecord{caloDecision(1216, 0, 3)}
	tests := []struct {
		name    string
		tracker TrackerRecord
		match   bool
	}{
		{"same zone", trackerDecision(20, 0, 3), true},
		{"next zone", trackerDecision(22, 0, 4), true},
		{"previous zone", trackerDecision(24, 0, 2), true},
		{"zone too far", trackerDecision(20, 0, 5), false},
		{"other side", trackerDecision(20, 1, 3), false},
		{"before the gate", trackerDecision(19, 0, 3), false},
		{"after the gate", trackerDecision(25, 0, 3), false},
		{"no tracker decision", TrackerRecord{Clocktick1600ns: 20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coincidence := newTestCoincidence(t, 4)
			records, err := coincidence.Process(summaries, []TrackerRecord{tt.tracker})
			require.NoError(t, err)
			if !tt.match {
				assert.Empty(t, records)
				return
			}
			require.Len(t, records, 1)
			zone := 0
			for z := 0; z < NUMBER_OF_ZONES; z++ {
				if tt.tracker.FinalTrackerTriggerInfo[0][z] != TRACKER_DECISION_NONE {
					zone = z
				}
			}
			want := CoincidenceRecord{
				Clocktick1600ns:   tt.tracker.Clocktick1600ns,
				CoincidenceZoning: [NUMBER_OF_SIDES]ZoningWord{zoning(zone)},
				TrackerDecision:   [NUMBER_OF_SIDES]uint8{TRACKER_DECISION_TRACK, TRACKER_DECISION_NONE},
				CaloZoning:        [NUMBER_OF_SIDES]ZoningWord{zoning(3)},
				TotalMultiplicity: [NUMBER_OF_SIDES]uint8{1, 0},
				Decision:          true,
			}
			if diff := cmp.Diff(want, records[0]); diff != "" {
				t.Errorf("coincidence mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoincidenceEveryClocktick(t *testing.T) {
	t.Parallel()

	coincidence := newTestCoincidence(t, 4)
	var trackerRecords []TrackerRecord
	for ct := int64(18); ct <= 26; ct++ {
		trackerRecords = append(trackerRecords, trackerDecision(ct, 0, 3))
	}
	records, err := coincidence.Process([]CaloSummaryRecord{caloDecision(1216, 0, 3)}, trackerRecords)
	require.NoError(t, err)

	clockticks := make([]int64, len(records))
	for i, record := range records {
		clockticks[i] = record.Clocktick1600ns
	}
	assert.Equal(t, []int64{20, 21, 22, 23, 24}, clockticks)
}

func TestCoincidenceResetData(t *testing.T) {
	t.Parallel()

	coincidence := NewCoincidenceAlgorithm()
	var stateErr *ErrState
	_, err := coincidence.Process(nil, nil)
	require.ErrorAs(t, err, &stateErr)

	var domainErr *ErrDomain
	assert.ErrorAs(t, coincidence.Initialize(CoincidenceConfig{CalorimeterGateSize: -1}), &domainErr)
	require.NoError(t, coincidence.Initialize(CoincidenceConfig{CalorimeterGateSize: 4}))
	assert.ErrorAs(t, coincidence.Initialize(CoincidenceConfig{CalorimeterGateSize: 4}), &stateErr)

	summaries := []CaloSummaryRecord{caloDecision(1216, 0, 3)}
	tracker := []TrackerRecord{trackerDecision(21, 0, 3)}
	first, err := coincidence.Process(summaries, tracker)
	require.NoError(t, err)
	second, err := coincidence.Process(summaries, tracker)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, coincidence.CoincidenceCaloRecords(), 5)

	coincidence.ResetData()
	coincidence.ResetData()
	assert.Empty(t, coincidence.CoincidenceCaloRecords())

	// A new event without calorimeter decision must not reuse the latch
	records, err := coincidence.Process([]CaloSummaryRecord{{Clocktick25ns: 1216}}, tracker)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, coincidence.CoincidenceCaloRecords())

	coincidence.Reset()
	assert.False(t, coincidence.IsInitialized())
}
