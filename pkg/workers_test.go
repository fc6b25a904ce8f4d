package trigger

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineProcessEvent(t *testing.T) {
	t.Parallel()

	pipeline, err := NewPipeline(StandardMapping{}, standardMemories(t), DefaultConfiguration())
	require.NoError(t, err)

	triggered := 0
	for _, event := range generateEvents(t, 20, 11) {
		result := pipeline.ProcessEvent(event)
		require.NoError(t, result.Err)
		assert.Equal(t, event.EventID, result.EventID)
		assert.Equal(t, len(event.GeigerTPs), result.NGeigerTPs)
		assert.NotEmpty(t, result.TrackerRecords)
		assert.Len(t, result.CaloRecords, DefaultConfiguration().CaloCircularBufferDepth)
		if result.Triggered() {
			triggered++
		}
	}
	assert.Greater(t, triggered, 0, "straight tracks pointing to the main wall should trigger")
}

func TestNewPipelineErrors(t *testing.T) {
	t.Parallel()

	config := DefaultConfiguration()
	config.CaloCircularBufferDepth = 0
	_, err := NewPipeline(StandardMapping{}, standardMemories(t), config)
	var domainErr *ErrDomain
	assert.ErrorAs(t, err, &domainErr)

	_, err = NewPipeline(StandardMapping{}, TrackerMemories{}, DefaultConfiguration())
	var memErr *ErrMemory
	assert.ErrorAs(t, err, &memErr)
}

func TestRunWorkersMatchesSequential(t *testing.T) {
	t.Parallel()

	memories := standardMemories(t)
	config := DefaultConfiguration()
	events := generateEvents(t, 30, 13)

	pipeline, err := NewPipeline(StandardMapping{}, memories, config)
	require.NoError(t, err)
	want := make([]EventResult, len(events))
	for i, event := range events {
		want[i] = pipeline.ProcessEvent(event)
	}

	eventsCh := make(chan Event, len(events))
	resultsCh := make(chan EventResult, len(events))
	require.NoError(t, RunWorkers(context.Background(), 4, memories, StandardMapping{}, config, eventsCh, resultsCh))
	for _, event := range events {
		eventsCh <- event
	}
	close(eventsCh)

	var got []EventResult
	for result := range resultsCh {
		got = append(got, result)
	}
	sort.Slice(got, func(i, j int) bool { return got[i].EventID < got[j].EventID })
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parallel results differ from sequential ones (-want +got):\n%s", diff)
	}
}

func TestRunWorkersErrors(t *testing.T) {
	t.Parallel()

	results := make(chan EventResult)
	err := RunWorkers(context.Background(), 0, standardMemories(t), StandardMapping{}, DefaultConfiguration(), nil, results)
	var domainErr *ErrDomain
	assert.ErrorAs(t, err, &domainErr)
	_, open := <-results
	assert.False(t, open, "results is closed on a setup error")

	results = make(chan EventResult)
	err = RunWorkers(context.Background(), 2, TrackerMemories{}, StandardMapping{}, DefaultConfiguration(), nil, results)
	assert.Error(t, err)
	_, open = <-results
	assert.False(t, open)
}

func TestRunWorkersCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event)
	results := make(chan EventResult)
	require.NoError(t, RunWorkers(ctx, 2, standardMemories(t), StandardMapping{}, DefaultConfiguration(), events, results))
	cancel()

	for range results {
	}
}
