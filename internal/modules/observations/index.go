// Package observations loads, stores and indexes the per-(date, ticker) observations
// that every backtest in a tuning run replays.
package observations

import (
	"sort"

	"github.com/aristath/sentinel-tuner/internal/domain"
)

type dayKey struct {
	date   string
	ticker string
}

// Index organizes observations by ticker and date and answers previous-trading-day
// lookups. It is built once and is read-only afterwards, so any number of goroutines
// may share it without locking.
type Index struct {
	observations  []domain.Observation
	chronological []domain.Observation
	byTicker      map[string][]domain.Observation
	previous      map[dayKey]domain.Observation
	tickers       []string
	dates         []string
}

// Summary describes the indexed data set
type Summary struct {
	Observations int      `json:"observations"`
	Tickers      []string `json:"tickers"`
	TradingDays  int      `json:"trading_days"`
	FirstDate    string   `json:"first_date,omitempty"`
	LastDate     string   `json:"last_date,omitempty"`
}

// NewIndex validates the observations and builds the index.
// Returns a *domain.DataError for the first observation with a missing date or ticker
// or a non-positive, non-finite price.
func NewIndex(observations []domain.Observation) (*Index, error) {
	for i, obs := range observations {
		if err := validate(i, obs); err != nil {
			return nil, err
		}
	}

	ix := &Index{
		observations: observations,
		byTicker:     make(map[string][]domain.Observation),
		previous:     make(map[dayKey]domain.Observation),
	}

	dateSet := make(map[string]struct{})
	for _, obs := range observations {
		ix.byTicker[obs.Ticker] = append(ix.byTicker[obs.Ticker], obs)
		dateSet[obs.Date] = struct{}{}
	}

	for ticker, rows := range ix.byTicker {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
		ix.tickers = append(ix.tickers, ticker)

		// Same-date duplicates share the last row of the strictly earlier date.
		var earlier *domain.Observation
		for i := range rows {
			if i > 0 && rows[i-1].Date < rows[i].Date {
				earlier = &rows[i-1]
			}
			if earlier != nil {
				ix.previous[dayKey{date: rows[i].Date, ticker: ticker}] = *earlier
			}
		}
	}
	sort.Strings(ix.tickers)

	for d := range dateSet {
		ix.dates = append(ix.dates, d)
	}
	sort.Strings(ix.dates)

	ix.chronological = make([]domain.Observation, len(observations))
	copy(ix.chronological, observations)
	sort.SliceStable(ix.chronological, func(i, j int) bool {
		return ix.chronological[i].Date < ix.chronological[j].Date
	})

	return ix, nil
}

// Previous returns the observation of the previous trading day for ticker, if a
// strictly earlier dated observation exists.
func (ix *Index) Previous(date, ticker string) (domain.Observation, bool) {
	obs, ok := ix.previous[dayKey{date: date, ticker: ticker}]
	return obs, ok
}

// Find returns the last observation recorded for ticker on date
func (ix *Index) Find(date, ticker string) (domain.Observation, bool) {
	rows := ix.byTicker[ticker]
	i := sort.Search(len(rows), func(i int) bool { return rows[i].Date > date })
	if i == 0 || rows[i-1].Date != date {
		return domain.Observation{}, false
	}
	return rows[i-1], true
}

// Observations returns the observations in input order. The slice is shared and must
// not be modified.
func (ix *Index) Observations() []domain.Observation {
	return ix.observations
}

// Chronological returns the observations stable-sorted by date; within a date the input
// order is kept. The slice is shared and must not be modified.
func (ix *Index) Chronological() []domain.Observation {
	return ix.chronological
}

// Series returns one ticker's observations in date order
func (ix *Index) Series(ticker string) []domain.Observation {
	return ix.byTicker[ticker]
}

// Tickers returns the sorted ticker symbols
func (ix *Index) Tickers() []string {
	return ix.tickers
}

// Dates returns the sorted distinct dates
func (ix *Index) Dates() []string {
	return ix.dates
}

// Len returns the number of observations
func (ix *Index) Len() int {
	return len(ix.observations)
}

// Summary describes the indexed data set
func (ix *Index) Summary() Summary {
	s := Summary{
		Observations: len(ix.observations),
		Tickers:      ix.tickers,
		TradingDays:  len(ix.dates),
	}
	if len(ix.dates) > 0 {
		s.FirstDate = ix.dates[0]
		s.LastDate = ix.dates[len(ix.dates)-1]
	}
	return s
}
