package scoring

import (
	"math"

	"github.com/aristath/sentinel-tuner/internal/domain"
)

// Signal is the scorer output: the total score plus the indicator values it was
// computed from, after neutral defaults were applied.
type Signal struct {
	Components map[string]int `json:"components"`
	Score      int            `json:"score"`
	RSI        float64        `json:"rsi"`
	MACDHist   float64        `json:"macd_hist"`
	BBPosition float64        `json:"bb_position"`
	Volatility float64        `json:"volatility_7d"`
}

// Score calculates the signal score of one observation.
// Components:
// - rsi: +25 / +18 / +5 oversold, -25 / -8 overbought
// - macd: +20 rising, +5 flat, -10 falling
// - bollinger: +20 / +12 near the lower band, -20 / -12 near the upper band
// - sentiment: round(sentiment * 25), half to even
// - llm_action: +10 buy, -10 sell
// - volatility: -15 / -8
// - reversal: +10 oversold with bearish sentiment, -10 overbought with bullish sentiment
func Score(analysis domain.Analysis, indicators domain.Indicators) Signal {
	rsi := indicators.RSIValue()
	macd := indicators.MACDHistValue()
	bb := indicators.BBPositionValue()
	volatility := indicators.VolatilityValue()
	sentiment := analysis.Sentiment()
	reversal := analysis.Reversal()

	components := map[string]int{
		"rsi":        scoreRSI(rsi),
		"macd":       scoreMACD(macd),
		"bollinger":  scoreBollinger(bb),
		"sentiment":  scoreSentiment(sentiment),
		"llm_action": scoreAction(analysis.Action()),
		"volatility": scoreVolatility(volatility),
		"reversal":   scoreReversal(reversal, sentiment, rsi),
	}

	total := 0
	for _, v := range components {
		total += v
	}

	return Signal{
		Components: components,
		Score:      total,
		RSI:        rsi,
		MACDHist:   macd,
		BBPosition: bb,
		Volatility: volatility,
	}
}

// scoreRSI applies the first matching band, oversold bands first
func scoreRSI(rsi float64) int {
	switch {
	case rsi < RSIDeepOversold:
		return 25
	case rsi < RSIOversold:
		return 18
	case rsi < RSIWeak:
		return 5
	case rsi > RSIOverbought:
		return -25
	case rsi > RSIStrong:
		return -8
	}
	return 0
}

func scoreMACD(hist float64) int {
	switch {
	case hist > 0:
		return 20
	case hist > MACDFlatFloor:
		return 5
	}
	return -10
}

func scoreBollinger(position float64) int {
	switch {
	case position < BBNearLower:
		return 20
	case position < BBLowerHalf:
		return 12
	case position > BBNearUpper:
		return -20
	case position > BBUpperHalf:
		return -12
	}
	return 0
}

// scoreSentiment rounds the linear sentiment term half to even. The term is saturated
// at ±MaxSentimentTerm so the total cannot overflow; NaN scores 0.
func scoreSentiment(sentiment float64) int {
	term := math.RoundToEven(sentiment * SentimentWeight)
	switch {
	case math.IsNaN(term):
		return 0
	case term > MaxSentimentTerm:
		return MaxSentimentTerm
	case term < -MaxSentimentTerm:
		return -MaxSentimentTerm
	}
	return int(term)
}

func scoreAction(action string) int {
	switch action {
	case string(domain.ActionBuy):
		return 10
	case string(domain.ActionSell):
		return -10
	}
	return 0
}

func scoreVolatility(volatility float64) int {
	switch {
	case volatility > VolatilityHigh:
		return -15
	case volatility > VolatilityElevated:
		return -8
	}
	return 0
}

func scoreReversal(probability, sentiment, rsi float64) int {
	if probability <= ReversalThreshold {
		return 0
	}
	switch {
	case sentiment < 0 && rsi < RSIReversalLow:
		return 10
	case sentiment > 0 && rsi > RSIReversalHigh:
		return -10
	}
	return 0
}
