// Package evaluation computes backtest performance metrics from daily valuations and
// the trade ledger.
package evaluation

import (
	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/aristath/sentinel-tuner/pkg/formulas"
)

// TradingDaysPerYear annualizes the daily Sharpe ratio (calendar days)
const TradingDaysPerYear = 365.0

// Evaluate summarizes one run. Returns nil when fewer than two valuation points exist,
// since no return can be computed.
//
// Sharpe uses simple daily returns and the population standard deviation and is 0 for
// a flat series. Max drawdown is measured from the running peak and reported as a
// non-positive percentage. Win rate is the share of sells with positive realized pnl.
func Evaluate(valuations []domain.DailyValuation, trades []domain.Trade, startingCapital float64) *domain.Metrics {
	if len(valuations) < 2 {
		return nil
	}

	values := make([]float64, len(valuations))
	for i, v := range valuations {
		values[i] = v.Value
	}

	returns := formulas.CalculateReturns(values)
	final := values[len(values)-1]

	m := &domain.Metrics{
		Sharpe:         formulas.SharpeRatio(returns, TradingDaysPerYear),
		FinalValue:     final,
		MaxDrawdownPct: formulas.MaxDrawdown(values) * 100,
	}
	if startingCapital != 0 {
		m.TotalReturnPct = (final/startingCapital - 1) * 100
	}

	wins := 0
	for _, t := range trades {
		switch t.Action {
		case domain.ActionBuy:
			m.BuyCount++
		case domain.ActionSell:
			m.SellCount++
			if t.RealizedPnL > 0 {
				wins++
			}
		}
	}
	if m.SellCount > 0 {
		m.WinRatePct = float64(wins) / float64(m.SellCount) * 100
	}

	return m
}
