package optimization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/aristath/sentinel-tuner/internal/modules/evaluation"
	"github.com/aristath/sentinel-tuner/internal/modules/portfolio"
	"github.com/aristath/sentinel-tuner/internal/modules/strategy"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dataset is the read-only observation set a search replays.
// *observations.Index satisfies it.
type Dataset interface {
	strategy.Lookback
	Chronological() []domain.Observation
}

// MetricsRecorder receives search telemetry. *metrics.Recorder satisfies it.
type MetricsRecorder interface {
	RecordSearch(outcome string)
	RecordCombinations(qualified, filtered int)
	RecordBestSharpe(sharpe float64)
	RecordLatency(op string, seconds float64)
}

// ErrEmptyGrid is returned when a grid has no combinations
var ErrEmptyGrid = errors.New("grid has no combinations")

// Service runs grid searches and single backtests and remembers the latest search.
type Service struct {
	simulator *portfolio.Simulator
	pool      *WorkerPool
	recorder  MetricsRecorder
	log       zerolog.Logger

	mu     sync.RWMutex
	latest *SearchResult
}

// NewService creates a new optimization service. recorder may be nil.
func NewService(simulator *portfolio.Simulator, pool *WorkerPool, recorder MetricsRecorder, log zerolog.Logger) *Service {
	return &Service{
		simulator: simulator,
		pool:      pool,
		recorder:  recorder,
		log:       log.With().Str("service", "optimization").Logger(),
	}
}

// Search evaluates every combination of grid against data, keeps the combinations
// with enough buy and sell trades and ranks them by Sharpe ratio, highest first.
// Equal Sharpe ratios keep enumeration order, so the ranking does not depend on the
// number of workers.
func (s *Service) Search(ctx context.Context, data Dataset, grid Grid, opts SearchOptions) (*SearchResult, error) {
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	total := grid.Size()
	if total == 0 {
		return nil, ErrEmptyGrid
	}

	runID := uuid.New().String()
	started := time.Now()
	log := s.log.With().Str("run_id", runID).Logger()

	log.Info().
		Int("combinations", total).
		Int("workers", s.pool.Workers()).
		Msg("Starting grid search")

	// Scoring and lookback do not depend on parameters: do them once per search.
	prepared := strategy.PrepareAll(data.Chronological(), data)

	var (
		completed  int
		qualified  int
		bestSharpe = math.Inf(-1)
	)
	report := func() {
		if opts.Progress == nil {
			return
		}
		best := bestSharpe
		if qualified == 0 {
			best = 0
		}
		opts.Progress(Progress{
			RunID:      runID,
			Completed:  completed,
			Total:      total,
			Qualified:  qualified,
			BestSharpe: best,
		})
	}

	every := opts.ProgressEvery
	if every <= 0 {
		every = max(total/20, 1)
	}

	all, err := s.pool.EvaluateAll(ctx, total,
		func(i int) *domain.Metrics {
			return s.evaluate(prepared, grid.At(i))
		},
		func(_ int, m *domain.Metrics) {
			completed++
			if qualifies(m, opts) {
				qualified++
				bestSharpe = math.Max(bestSharpe, m.Sharpe)
			}
			if completed%every == 0 && completed < total {
				report()
			}
		},
	)
	if err != nil {
		s.record("cancelled", 0, 0, time.Since(started))
		log.Warn().Err(err).Int("completed", completed).Msg("Grid search cancelled")
		return nil, err
	}
	report()

	result := &SearchResult{
		RunID:     runID,
		StartedAt: started,
		Grid:      grid,
		Evaluated: total,
		Ranked:    rank(grid, all, opts),
	}
	result.Qualified = len(result.Ranked)
	result.Filtered = total - result.Qualified
	result.Elapsed = time.Since(started)

	s.record("completed", result.Qualified, result.Filtered, result.Elapsed)
	if best := result.Best(); best != nil && s.recorder != nil {
		s.recorder.RecordBestSharpe(best.Metrics.Sharpe)
	}

	event := log.Info().
		Int("evaluated", result.Evaluated).
		Int("qualified", result.Qualified).
		Dur("elapsed", result.Elapsed)
	if best := result.Best(); best != nil {
		event = event.
			Float64("best_sharpe", best.Metrics.Sharpe).
			Interface("best_params", best.Params)
	}
	event.Msg("Grid search complete")

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	return result, nil
}

// Latest returns the most recent completed search, nil if none ran yet
func (s *Service) Latest() *SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Backtest replays one parameter set and returns the full simulator output
func (s *Service) Backtest(data Dataset, params domain.ParameterSet, opts SearchOptions) BacktestResult {
	decisions := strategy.BuildDecisions(data.Chronological(), params, data)
	run := s.simulator.Run(decisions, params.AllocPct)
	m := evaluation.Evaluate(run.Valuations, run.Trades, s.simulator.Config().StartingCapital)

	counts := make(map[domain.Action]int, 3)
	for _, d := range decisions {
		counts[d.Action]++
	}

	return BacktestResult{
		Params:     params,
		Metrics:    m,
		Qualified:  qualifies(m, opts),
		Cash:       run.Cash,
		Positions:  run.Positions,
		Valuations: run.Valuations,
		Trades:     run.Trades,
		Decisions:  counts,
	}
}

func (s *Service) evaluate(prepared []strategy.Prepared, params domain.ParameterSet) *domain.Metrics {
	run := s.simulator.Run(strategy.Decisions(prepared, params), params.AllocPct)
	return evaluation.Evaluate(run.Valuations, run.Trades, s.simulator.Config().StartingCapital)
}

func (s *Service) record(outcome string, qualified, filtered int, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordSearch(outcome)
	s.recorder.RecordCombinations(qualified, filtered)
	s.recorder.RecordLatency("search", elapsed.Seconds())
}

// qualifies applies the minimum-activity filter; unmeasurable runs never qualify
func qualifies(m *domain.Metrics, opts SearchOptions) bool {
	return m != nil && m.BuyCount >= opts.MinBuys && m.SellCount >= opts.MinSells
}

// rank keeps qualifying combinations and orders them by Sharpe descending,
// ties by enumeration index
func rank(grid Grid, all []*domain.Metrics, opts SearchOptions) []RankedResult {
	ranked := make([]RankedResult, 0)
	for i, m := range all {
		if !qualifies(m, opts) {
			continue
		}
		ranked = append(ranked, RankedResult{
			Index:   i,
			Params:  grid.At(i),
			Metrics: *m,
		})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Metrics.Sharpe > ranked[b].Metrics.Sharpe
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
