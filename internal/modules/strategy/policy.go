// Package strategy implements the rule-based decision policy that turns a scored
// observation into a buy, sell or hold action for one parameter set.
package strategy

import (
	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/aristath/sentinel-tuner/internal/modules/scoring"
)

// RSIForceSell forces a sell regardless of every other rule
const RSIForceSell = 75.0

// Lookback answers previous-trading-day lookups for a ticker.
// *observations.Index satisfies it.
type Lookback interface {
	Previous(date, ticker string) (domain.Observation, bool)
}

// Prepared holds the parameter-independent part of a decision: the signal, the
// extreme-risk flag and the MACD momentum against the previous trading day.
// It is computed once per observation and reused for every parameter set.
type Prepared struct {
	Date          string         `json:"date"`
	Ticker        string         `json:"ticker"`
	Price         float64        `json:"price"`
	ExtremeRisk   bool           `json:"extreme_risk"`
	Signal        scoring.Signal `json:"signal"`
	HasPrevious   bool           `json:"has_previous"`
	MACDImproving bool           `json:"macd_improving"`
}

// Prepare scores one observation and resolves its lookback. lookback may be nil.
func Prepare(obs domain.Observation, lookback Lookback) Prepared {
	signal := scoring.Score(obs.Analysis, obs.Indicators)

	p := Prepared{
		Date:        obs.Date,
		Ticker:      obs.Ticker,
		Price:       obs.Price,
		ExtremeRisk: obs.Analysis.Risk() == domain.RiskLevelExtreme,
		Signal:      signal,
	}

	if lookback != nil {
		if prev, ok := lookback.Previous(obs.Date, obs.Ticker); ok {
			p.HasPrevious = true
			// a previous day without macd_hist reads as 0
			prevMACD := 0.0
			if prev.Indicators.MACDHist != nil {
				prevMACD = *prev.Indicators.MACDHist
			}
			p.MACDImproving = signal.MACDHist > prevMACD
		}
	}

	return p
}

// PrepareAll prepares every observation, keeping their order
func PrepareAll(observations []domain.Observation, lookback Lookback) []Prepared {
	out := make([]Prepared, len(observations))
	for i, obs := range observations {
		out[i] = Prepare(obs, lookback)
	}
	return out
}

// Decide applies the policy rules in order:
//  1. extreme risk sells unconditionally
//  2. buy when score, RSI and (optionally) MACD momentum agree
//  3. sell overrides: hard score floor, else mild score with elevated RSI, else upper band
//  4. RSI above 75 always sells
func (p Prepared) Decide(params domain.ParameterSet) domain.Action {
	if p.ExtremeRisk {
		return domain.ActionSell
	}

	score := p.Signal.Score
	rsi := p.Signal.RSI

	// no lookback never blocks a buy
	macdImproving := true
	if p.HasPrevious && params.RequireMACDImproving {
		macdImproving = p.MACDImproving
	}

	action := domain.ActionHold
	if score >= params.BuyScore && rsi < params.BuyRSIMax {
		if !params.RequireMACDImproving || macdImproving {
			action = domain.ActionBuy
		}
	}

	switch {
	case score <= params.SellScore:
		action = domain.ActionSell
	case score <= params.SellScoreMild && rsi > params.SellRSIMin:
		action = domain.ActionSell
	case p.Signal.BBPosition > params.SellBB:
		action = domain.ActionSell
	}

	if rsi > RSIForceSell {
		action = domain.ActionSell
	}

	return action
}

// Decision returns the decision record for params
func (p Prepared) Decision(params domain.ParameterSet) domain.Decision {
	return domain.Decision{
		Date:   p.Date,
		Ticker: p.Ticker,
		Price:  p.Price,
		Action: p.Decide(params),
	}
}

// Decide returns the action for one observation under params
func Decide(obs domain.Observation, params domain.ParameterSet, lookback Lookback) domain.Action {
	return Prepare(obs, lookback).Decide(params)
}

// BuildDecisions produces the decision stream for params, one decision per observation
// in input order.
func BuildDecisions(observations []domain.Observation, params domain.ParameterSet, lookback Lookback) []domain.Decision {
	return Decisions(PrepareAll(observations, lookback), params)
}

// Decisions produces the decision stream from prepared observations
func Decisions(prepared []Prepared, params domain.ParameterSet) []domain.Decision {
	out := make([]domain.Decision, len(prepared))
	for i := range prepared {
		out[i] = prepared[i].Decision(params)
	}
	return out
}
