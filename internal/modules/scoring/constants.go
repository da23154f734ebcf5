// Package scoring converts an observation's indicators and LLM analysis into a single
// integer signal score.
package scoring

// RSI band thresholds
const (
	RSIDeepOversold   = 25.0
	RSIOversold       = 30.0
	RSIWeak           = 40.0
	RSIStrong         = 60.0
	RSIOverbought     = 70.0
	RSIReversalLow    = 35.0 // reversal bonus applies below this
	RSIReversalHigh   = 60.0 // reversal penalty applies above this
	ReversalThreshold = 0.6
)

// MACD histogram thresholds
const (
	MACDFlatFloor = -0.001
)

// Bollinger position thresholds
const (
	BBNearLower = 0.1
	BBLowerHalf = 0.2
	BBNearUpper = 0.9
	BBUpperHalf = 0.8
)

// Volatility penalty thresholds (7-day return stdev)
const (
	VolatilityHigh     = 0.045
	VolatilityElevated = 0.035
)

// SentimentWeight scales the LLM sentiment (nominally -1..1) into score points
const SentimentWeight = 25.0

// MaxSentimentTerm bounds the sentiment contribution so that summing the other terms
// can never overflow int, whatever the sentiment magnitude.
const MaxSentimentTerm = 1 << 30
