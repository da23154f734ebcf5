package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel-tuner/internal/modules/optimization"
	"github.com/rs/zerolog"
)

// Searcher runs a grid search. *optimization.Service satisfies it.
type Searcher interface {
	Search(ctx context.Context, data optimization.Dataset, grid optimization.Grid, opts optimization.SearchOptions) (*optimization.SearchResult, error)
}

// RetuneJob re-runs the grid search over the loaded observations.
// The result becomes the service's latest search.
type RetuneJob struct {
	log      zerolog.Logger
	searcher Searcher
	data     optimization.Dataset
	grid     optimization.Grid
	opts     optimization.SearchOptions
	timeout  time.Duration
}

// NewRetuneJob creates a new RetuneJob. A zero timeout means no deadline.
func NewRetuneJob(searcher Searcher, data optimization.Dataset, grid optimization.Grid, opts optimization.SearchOptions, timeout time.Duration) *RetuneJob {
	return &RetuneJob{
		log:      zerolog.Nop(),
		searcher: searcher,
		data:     data,
		grid:     grid,
		opts:     opts,
		timeout:  timeout,
	}
}

// SetLogger sets the logger for the job
func (j *RetuneJob) SetLogger(log zerolog.Logger) {
	j.log = log.With().Str("job", j.Name()).Logger()
}

// Name returns the job name
func (j *RetuneJob) Name() string {
	return "retune_grid_search"
}

// Run executes the search
func (j *RetuneJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	result, err := j.searcher.Search(ctx, j.data, j.grid, j.opts)
	if err != nil {
		return fmt.Errorf("retune search failed: %w", err)
	}

	event := j.log.Info().
		Str("run_id", result.RunID).
		Int("qualified", result.Qualified).
		Dur("elapsed", result.Elapsed)
	if best := result.Best(); best != nil {
		event = event.
			Float64("sharpe", best.Metrics.Sharpe).
			Interface("params", best.Params)
	}
	event.Msg("Retune completed")

	return nil
}
