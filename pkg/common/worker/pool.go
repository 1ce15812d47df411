package worker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"bookdata/pkg/common/logger"
)

// Job is a unit of work that may fail.
type Job func() error

// Stats summarises a RunAll call.
type Stats struct {
	Submitted int
	Completed int
	Failed    int
	Duration  time.Duration
}

// RunAll runs jobs on a pool of at most size goroutines and waits for all of
// them. Errors (including recovered panics) are joined in submission order.
func RunAll(size int, jobs []Job) (Stats, error) {
	stats := Stats{Submitted: len(jobs)}
	if len(jobs) == 0 {
		return stats, nil
	}
	if size < 1 {
		size = 1
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return stats, fmt.Errorf("worker pool init failed: %w", err)
	}
	defer pool.Release()

	start := time.Now()
	errs := make([]error, len(jobs))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, j := range jobs {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.WithComponent("worker").Error().Interface("panic", r).Msg("worker panic recovered")
					errs[i] = fmt.Errorf("job %d panicked: %v", i, r)
				}
				mu.Lock()
				stats.Completed++
				if errs[i] != nil {
					stats.Failed++
				}
				mu.Unlock()
			}()
			errs[i] = j()
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("job %d not submitted: %w", i, submitErr)
			mu.Lock()
			stats.Failed++
			mu.Unlock()
		}
	}
	wg.Wait()
	stats.Duration = time.Since(start)
	return stats, errors.Join(errs...)
}
