package optimization

import (
	"context"
	"sync"

	"github.com/aristath/sentinel-tuner/internal/domain"
)

// DefaultWorkers is used when no worker count is configured
const DefaultWorkers = 10

// WorkerPool manages a pool of worker goroutines for parallel combination evaluation
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Workers returns the configured pool size
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// evalFunc evaluates combination i; it must only read shared state
type evalFunc func(i int) *domain.Metrics

// EvaluateAll evaluates combinations 0..n-1 in parallel using the worker pool.
//
// Args:
//   - ctx: cancellation is checked between combinations
//   - n: number of combinations
//   - eval: evaluation of one combination
//   - done: optional callback invoked from the calling goroutine after each result
//
// Returns:
//   - Metrics per combination (same order as the enumeration, nil for runs too short
//     to measure)
//   - ctx.Err() if the context was cancelled before all combinations finished
func (wp *WorkerPool) EvaluateAll(
	ctx context.Context,
	n int,
	eval evalFunc,
	done func(index int, metrics *domain.Metrics),
) ([]*domain.Metrics, error) {
	if n == 0 {
		return []*domain.Metrics{}, nil
	}

	// Create channels for work distribution and result collection
	jobs := make(chan int, wp.numWorkers*4)
	results := make(chan resultItem, wp.numWorkers*4)

	// Start workers
	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if n < numActualWorkers {
		numActualWorkers = n // Don't spawn more workers than combinations
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, eval)
		}()
	}

	// Send jobs to workers
	go func() {
		defer close(jobs)
		for idx := 0; idx < n; idx++ {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results
	resultSlice := make([]*domain.Metrics, n)
	for result := range results {
		resultSlice[result.index] = result.metrics
		if done != nil {
			done(result.index, result.metrics)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return resultSlice, nil
}

// resultItem represents the result of an evaluation job
type resultItem struct {
	index   int
	metrics *domain.Metrics
}

// worker is the worker goroutine that processes evaluation jobs
func worker(
	ctx context.Context,
	jobs <-chan int,
	results chan<- resultItem,
	eval evalFunc,
) {
	for idx := range jobs {
		if ctx.Err() != nil {
			continue // drain
		}
		results <- resultItem{
			index:   idx,
			metrics: eval(idx),
		}
	}
}
