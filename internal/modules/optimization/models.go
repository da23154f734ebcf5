package optimization

import (
	"time"

	"github.com/aristath/sentinel-tuner/internal/domain"
)

// Activity filter and reporting defaults
const (
	DefaultMinBuys  = 2
	DefaultMinSells = 2
	DefaultTopN     = 15
)

// SearchOptions controls filtering, reporting and progress callbacks of a search
type SearchOptions struct {
	MinBuys  int // combinations with fewer buy trades are dropped
	MinSells int // combinations with fewer sell trades are dropped
	TopN     int // size of SearchResult.Top() in logs; all qualified runs are kept

	// Progress, when set, is called from the searching goroutine every
	// ProgressEvery completed combinations and once at the end.
	Progress      func(Progress)
	ProgressEvery int
}

// DefaultSearchOptions returns the standard activity filter
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MinBuys:  DefaultMinBuys,
		MinSells: DefaultMinSells,
		TopN:     DefaultTopN,
	}
}

// Progress is a snapshot of a running search
type Progress struct {
	RunID      string  `json:"run_id"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Qualified  int     `json:"qualified"`
	BestSharpe float64 `json:"best_sharpe"`
}

// RankedResult is one qualified combination
type RankedResult struct {
	Rank    int                 `json:"rank"`
	Index   int                 `json:"index"` // enumeration index, the Sharpe tie-break
	Params  domain.ParameterSet `json:"params"`
	Metrics domain.Metrics      `json:"metrics"`
}

// SearchResult is the ranked outcome of a grid search
type SearchResult struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
	Grid      Grid           `json:"grid"`
	Evaluated int            `json:"evaluated"`
	Qualified int            `json:"qualified"`
	Filtered  int            `json:"filtered"`
	Ranked    []RankedResult `json:"ranked"`
}

// Best returns the highest ranked combination, nil when none qualified
func (r *SearchResult) Best() *RankedResult {
	if len(r.Ranked) == 0 {
		return nil
	}
	return &r.Ranked[0]
}

// Top returns at most n ranked combinations
func (r *SearchResult) Top(n int) []RankedResult {
	if n < 0 || n > len(r.Ranked) {
		n = len(r.Ranked)
	}
	return r.Ranked[:n]
}

// BacktestResult is the full outcome of one parameter set
type BacktestResult struct {
	Params     domain.ParameterSet        `json:"params"`
	Metrics    *domain.Metrics            `json:"metrics"`
	Qualified  bool                       `json:"qualified"`
	Cash       float64                    `json:"cash"`
	Positions  map[string]domain.Position `json:"positions"`
	Valuations []domain.DailyValuation    `json:"valuations"`
	Trades     []domain.Trade             `json:"trades"`
	Decisions  map[domain.Action]int      `json:"decisions"`
}
