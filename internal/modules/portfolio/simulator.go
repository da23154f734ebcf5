// Package portfolio replays a decision stream into cash, positions, daily valuations
// and a trade ledger.
package portfolio

import (
	"fmt"
	"sort"

	"github.com/aristath/sentinel-tuner/internal/domain"
)

// Default simulator configuration
const (
	DefaultStartingCapital = 10000.0
	DefaultFeeRate         = 0.001
	DefaultMinCash         = 100.0
)

// Config holds the constants of a backtest run
type Config struct {
	StartingCapital float64 `json:"starting_capital"`
	FeeRate         float64 `json:"fee_rate"`
	MinCash         float64 `json:"min_cash"` // buys need strictly more cash than this
}

// DefaultConfig returns the standard run constants
func DefaultConfig() Config {
	return Config{
		StartingCapital: DefaultStartingCapital,
		FeeRate:         DefaultFeeRate,
		MinCash:         DefaultMinCash,
	}
}

// Validate checks the run constants
func (c Config) Validate() error {
	if c.StartingCapital <= 0 {
		return fmt.Errorf("starting capital must be positive, got %v", c.StartingCapital)
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return fmt.Errorf("fee rate must be in [0, 1), got %v", c.FeeRate)
	}
	if c.MinCash < 0 {
		return fmt.Errorf("minimum cash must not be negative, got %v", c.MinCash)
	}
	return nil
}

// Result is the outcome of one simulator run
type Result struct {
	Valuations []domain.DailyValuation    `json:"valuations"`
	Trades     []domain.Trade             `json:"trades"`
	Cash       float64                    `json:"cash"`
	Positions  map[string]domain.Position `json:"positions"` // open positions only
}

// Simulator replays decision streams. It holds configuration only; every Run starts
// from fresh state, so one Simulator may serve concurrent runs.
type Simulator struct {
	cfg Config
}

// NewSimulator creates a simulator with the given run constants
func NewSimulator(cfg Config) *Simulator {
	return &Simulator{cfg: cfg}
}

// Config returns the run constants
func (s *Simulator) Config() Config {
	return s.cfg
}

// state is the mutable portfolio owned by a single Run
type state struct {
	cash      float64
	positions map[string]domain.Position
	order     []string // tickers in first-bought order, fixes the valuation summation order
	seen      map[string]struct{}
}

// Run replays decisions date by date and returns the valuations and trade ledger.
//
// Args:
//   - decisions: decision stream; stable-sorted by date first if not chronological
//   - allocPct: fraction of current cash committed by each buy
//
// Within a date, decisions are applied in input order. After each date the portfolio
// is valued at cash plus every open position marked at that date's last observed
// price for its ticker. A position whose ticker has no decision that day contributes
// nothing to that day's value.
func (s *Simulator) Run(decisions []domain.Decision, allocPct float64) Result {
	decisions = chronological(decisions)

	st := &state{
		cash:      s.cfg.StartingCapital,
		positions: make(map[string]domain.Position),
		seen:      make(map[string]struct{}),
	}

	var (
		valuations []domain.DailyValuation
		trades     []domain.Trade
	)
	prices := make(map[string]float64)

	for start := 0; start < len(decisions); {
		date := decisions[start].Date
		end := start
		clear(prices)

		for ; end < len(decisions) && decisions[end].Date == date; end++ {
			d := decisions[end]
			prices[d.Ticker] = d.Price

			switch d.Action {
			case domain.ActionBuy:
				if trade, ok := s.buy(st, d, allocPct); ok {
					trades = append(trades, trade)
				}
			case domain.ActionSell:
				if trade, ok := s.sell(st, d); ok {
					trades = append(trades, trade)
				}
			}
		}

		valuations = append(valuations, domain.DailyValuation{
			Date:  date,
			Value: st.value(prices),
		})
		start = end
	}

	return Result{
		Valuations: valuations,
		Trades:     trades,
		Cash:       st.cash,
		Positions:  st.positions,
	}
}

func (s *Simulator) buy(st *state, d domain.Decision, allocPct float64) (domain.Trade, bool) {
	if st.cash <= s.cfg.MinCash {
		return domain.Trade{}, false
	}

	alloc := st.cash * allocPct
	if alloc <= 0 {
		return domain.Trade{}, false
	}
	fee := alloc * s.cfg.FeeRate
	invest := alloc - fee
	qty := invest / d.Price

	if _, ok := st.seen[d.Ticker]; !ok {
		st.seen[d.Ticker] = struct{}{}
		st.order = append(st.order, d.Ticker)
	}
	pos := st.positions[d.Ticker]
	newQty := pos.Quantity + qty
	avg := 0.0
	if newQty > 0 {
		avg = (pos.Quantity*pos.AverageCost + invest) / newQty
	}
	st.positions[d.Ticker] = domain.Position{Quantity: newQty, AverageCost: avg}
	st.cash -= alloc

	return domain.Trade{
		Date:     d.Date,
		Ticker:   d.Ticker,
		Action:   domain.ActionBuy,
		Quantity: qty,
		Price:    d.Price,
		Fee:      fee,
	}, true
}

func (s *Simulator) sell(st *state, d domain.Decision) (domain.Trade, bool) {
	pos, ok := st.positions[d.Ticker]
	if !ok || !pos.IsOpen() {
		return domain.Trade{}, false
	}

	proceeds := pos.Quantity * d.Price
	fee := proceeds * s.cfg.FeeRate
	net := proceeds - fee
	pnl := net - pos.Quantity*pos.AverageCost

	st.cash += net
	delete(st.positions, d.Ticker)

	return domain.Trade{
		Date:        d.Date,
		Ticker:      d.Ticker,
		Action:      domain.ActionSell,
		Quantity:    pos.Quantity,
		Price:       d.Price,
		Fee:         fee,
		RealizedPnL: pnl,
	}, true
}

// value marks open positions at today's prices; unpriced positions count as zero.
// A re-opened ticker keeps its first-bought place in the summation order.
func (st *state) value(prices map[string]float64) float64 {
	total := st.cash
	for _, ticker := range st.order {
		pos, open := st.positions[ticker]
		if !open || !pos.IsOpen() {
			continue
		}
		if price, ok := prices[ticker]; ok {
			total += pos.Quantity * price
		}
	}
	return total
}

func chronological(decisions []domain.Decision) []domain.Decision {
	sorted := sort.SliceIsSorted(decisions, func(i, j int) bool {
		return decisions[i].Date < decisions[j].Date
	})
	if sorted {
		return decisions
	}

	out := make([]domain.Decision, len(decisions))
	copy(out, decisions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
