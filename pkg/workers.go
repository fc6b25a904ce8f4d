package trigger

import (
	"context"
	"fmt"
	"sync"
)

// RunWorkers processes events with numWorkers pipelines sharing the same
// memories and mapping. results is closed once every worker is done.
func RunWorkers(ctx context.Context, numWorkers int, memories TrackerMemories, mapping ElectronicMapping,
	config Configuration, events <-chan Event, results chan<- EventResult) error {
	if numWorkers < 1 {
		close(results)
		return &ErrDomain{Field: "num_workers", Value: int64(numWorkers), Reason: "must be at least 1"}
	}

	pipelines := make([]*Pipeline, numWorkers)
	for i := range pipelines {
		pipeline, err := NewPipeline(mapping, memories, config)
		if err != nil {
			close(results)
			return err
		}
		pipelines[i] = pipeline
	}

	var wg sync.WaitGroup
	for id, pipeline := range pipelines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, id, pipeline, events, results)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	return nil
}

func worker(ctx context.Context, id int, pipeline *Pipeline, events <-chan Event, results chan<- EventResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if configuration.Verbosity > 2 {
				logger.Info(fmt.Sprintf("worker %d processing event %d", id, event.EventID), "workers")
			}
			result := processEvent(pipeline, event)
			select {
			case results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

func processEvent(pipeline *Pipeline, event Event) (result EventResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("recovered from panic on event %d: %v", event.EventID, r)
			logger.Error(err.Error())
			result = EventResult{RunNumber: event.RunNumber, EventID: event.EventID, Err: err}
		}
	}()
	return pipeline.ProcessEvent(event)
}
