package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	trigger "github.com/supernemo-dbd/trigger_go/pkg"
)

func sendEventsToWorkers(ctx context.Context, fileReader *FileReader, jobs chan<- trigger.Event) {
	defer close(jobs)
	for {
		event, err := fileReader.getNextEvent()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Error(fmt.Errorf("error reading event: %w", err).Error())
			}
			return
		}
		select {
		case jobs <- event:
		case <-ctx.Done():
			return
		}
	}
}

type runSummary struct {
	processed int
	failed    int
	triggered int
}

func processWorkerResults(results <-chan trigger.EventResult, writer *trigger.Writer) runSummary {
	var summary runSummary
	var totalTime time.Duration
	for result := range results {
		start := time.Now()
		summary.processed++
		if result.Err != nil {
			summary.failed++
		} else if result.Triggered() {
			summary.triggered++
		}
		trigger.ProcessResult(result, configuration, writer)
		totalTime += time.Since(start)

		if VerbosityLevel > 1 {
			message := fmt.Sprintf("Processed event %d, triggered %t", result.EventID, result.Triggered())
			logger.Info(message, "workers")
		}
	}
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Total time writing: %d ms", totalTime.Milliseconds()), "workers")
	}
	return summary
}
