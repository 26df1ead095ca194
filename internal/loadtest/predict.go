package loadtest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/attrition/internal/dataset"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/pkg/logger"
)

// runPredictions scores a population disjoint from the training seed with a
// fixed pool of workers. Outcomes keep the order of the generated employees.
func runPredictions(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) ([]Outcome, error) {
	log := logger.Get()

	rows, err := dataset.Generate(ctx, config.Predictions, dataset.WithSeed(config.Seed+1))
	if err != nil {
		return nil, fmt.Errorf("failed to generate employees: %w", err)
	}
	log.Info(ctx, "submitting predictions",
		logger.Int("predictions", len(rows)),
		logger.Int("workers", config.Workers))

	outcomes := make([]Outcome, len(rows))
	var (
		submitted  atomic.Int64
		successful atomic.Int64
		failed     atomic.Int64
		lastReport atomic.Int64
	)

	indexes := make(chan int, config.Workers*2)
	var wg sync.WaitGroup
	for range config.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				emp := rows[i].Employee
				outcomes[i].Employee = emp

				var res model.PredictionResult
				if err := client.postJSON(ctx, "/predict", emp, &res); err != nil {
					outcomes[i].Error = err.Error()
					failed.Add(1)
					if config.Verbose {
						log.Warn(ctx, "prediction failed", logger.Int("index", i), logger.Error(err))
					}
				} else {
					outcomes[i].Result = &res
					successful.Add(1)
				}
				total := submitted.Add(1)

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					log.Info(ctx, "progress",
						logger.Int64("submitted", total),
						logger.Int("total", len(rows)),
						logger.Int64("successful", successful.Load()),
						logger.Int64("failed", failed.Load()))
				}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for i := range rows {
			select {
			case <-ctx.Done():
				return
			case indexes <- i:
			}
		}
	}()

	wg.Wait()

	stats.PredictionsSubmitted = int(submitted.Load())
	stats.PredictionsSuccessful = int(successful.Load())
	stats.PredictionsFailed = int(failed.Load())

	if err := ctx.Err(); err != nil {
		return outcomes[:0], err
	}
	return outcomes, nil
}
