// Package domain provides core domain models and types.
package domain

import "strings"

// Action is the discrete trading action produced by the decision policy
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// IsBuy returns true if the action is a buy
func (a Action) IsBuy() bool {
	return a == ActionBuy
}

// IsSell returns true if the action is a sell
func (a Action) IsSell() bool {
	return a == ActionSell
}

// Neutral values used when an optional analysis or indicator field is missing.
const (
	DefaultRSI                 = 50.0
	DefaultMACDHist            = 0.0
	DefaultBBPosition          = 0.5
	DefaultVolatility7d        = 0.0
	DefaultSentimentScore      = 0.0
	DefaultReversalProbability = 0.0
	DefaultRecommendedAction   = "hold"
	DefaultRiskLevel           = "medium"
)

// RiskLevelExtreme forces an unconditional sell
const RiskLevelExtreme = "extreme"

// Analysis holds the LLM-derived fields of an observation.
// Nil numeric pointers and empty strings mean "missing".
type Analysis struct {
	SentimentScore      *float64 `json:"sentiment_score,omitempty" msgpack:"sentiment_score,omitempty"`
	ReversalProbability *float64 `json:"reversal_probability,omitempty" msgpack:"reversal_probability,omitempty"`
	RecommendedAction   string   `json:"recommended_action,omitempty" msgpack:"recommended_action,omitempty"`
	RiskLevel           string   `json:"risk_level,omitempty" msgpack:"risk_level,omitempty"`
}

// Sentiment returns the sentiment score or its neutral default
func (a Analysis) Sentiment() float64 {
	return valueOr(a.SentimentScore, DefaultSentimentScore)
}

// Reversal returns the reversal probability or its neutral default
func (a Analysis) Reversal() float64 {
	return valueOr(a.ReversalProbability, DefaultReversalProbability)
}

// Action returns the lower-cased recommended action, "hold" when missing
func (a Analysis) Action() string {
	if a.RecommendedAction == "" {
		return DefaultRecommendedAction
	}
	return strings.ToLower(a.RecommendedAction)
}

// Risk returns the lower-cased risk level, "medium" when missing
func (a Analysis) Risk() string {
	if a.RiskLevel == "" {
		return DefaultRiskLevel
	}
	return strings.ToLower(a.RiskLevel)
}

// Indicators holds the technical indicators of an observation.
// Nil pointers mean "missing".
type Indicators struct {
	RSI          *float64 `json:"rsi,omitempty" msgpack:"rsi,omitempty"`
	MACDHist     *float64 `json:"macd_hist,omitempty" msgpack:"macd_hist,omitempty"`
	BBPosition   *float64 `json:"bb_position,omitempty" msgpack:"bb_position,omitempty"`
	Volatility7d *float64 `json:"volatility_7d,omitempty" msgpack:"volatility_7d,omitempty"`
}

// RSIValue returns RSI or its neutral default
func (i Indicators) RSIValue() float64 {
	return valueOr(i.RSI, DefaultRSI)
}

// MACDHistValue returns the MACD histogram or its neutral default
func (i Indicators) MACDHistValue() float64 {
	return valueOr(i.MACDHist, DefaultMACDHist)
}

// BBPositionValue returns the Bollinger position or its neutral default
func (i Indicators) BBPositionValue() float64 {
	return valueOr(i.BBPosition, DefaultBBPosition)
}

// VolatilityValue returns the 7-day volatility or its neutral default
func (i Indicators) VolatilityValue() float64 {
	return valueOr(i.Volatility7d, DefaultVolatility7d)
}

// Complete reports whether every indicator is present
func (i Indicators) Complete() bool {
	return i.RSI != nil && i.MACDHist != nil && i.BBPosition != nil && i.Volatility7d != nil
}

// Observation is one ticker's market, indicator and analysis snapshot for one date.
// Observations are created once at load time and never mutated.
type Observation struct {
	Date       string     `json:"date" msgpack:"date"`
	Ticker     string     `json:"ticker" msgpack:"ticker"`
	Price      float64    `json:"price" msgpack:"price"`
	Analysis   Analysis   `json:"analysis" msgpack:"analysis"`
	Indicators Indicators `json:"indicators" msgpack:"indicators"`
}

// ParameterSet is one point of the tunable-threshold grid
type ParameterSet struct {
	BuyScore             int     `json:"buy_score"`
	BuyRSIMax            float64 `json:"buy_rsi_max"`
	SellScore            int     `json:"sell_score"`
	SellScoreMild        int     `json:"sell_score_mild"`
	SellRSIMin           float64 `json:"sell_rsi_min"`
	SellBB               float64 `json:"sell_bb"`
	RequireMACDImproving bool    `json:"require_macd_improving"`
	AllocPct             float64 `json:"alloc_pct"`
}

// Decision is the action taken for one observation under one parameter set
type Decision struct {
	Date   string  `json:"date"`
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Action Action  `json:"action"`
}

// Position is per-ticker simulator state
type Position struct {
	Quantity    float64 `json:"quantity"`
	AverageCost float64 `json:"average_cost"`
}

// IsOpen returns true if the position holds a positive quantity
func (p Position) IsOpen() bool {
	return p.Quantity > 0
}

// Trade is an append-only ledger entry. RealizedPnL is always 0 for buys.
type Trade struct {
	Date        string  `json:"date"`
	Ticker      string  `json:"ticker"`
	Action      Action  `json:"action"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Fee         float64 `json:"fee"`
	RealizedPnL float64 `json:"realized_pnl"`
}

// DailyValuation is the portfolio value at the close of one processed date
type DailyValuation struct {
	Date  string  `json:"date"`
	Value float64 `json:"portfolio_value"`
}

// Metrics summarizes one backtest run
type Metrics struct {
	Sharpe         float64 `json:"sharpe"`
	TotalReturnPct float64 `json:"total_return_pct"`
	BuyCount       int     `json:"buy_count"`
	SellCount      int     `json:"sell_count"`
	WinRatePct     float64 `json:"win_rate_pct"`
	FinalValue     float64 `json:"final_value"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
}

// Float returns a pointer to v, for building optional fields
func Float(v float64) *float64 {
	return &v
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
