package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Standard indicator periods used when deriving missing indicators from prices
const (
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	BollingerPeriod  = 20
	BollingerStdDev  = 2.0
	VolatilityWindow = 7
)

// IndicatorPoint holds the indicators derived for one bar of a close series.
// A nil field means there was not enough history for that indicator.
type IndicatorPoint struct {
	RSI          *float64
	MACDHist     *float64
	BBPosition   *float64
	Volatility7d *float64
}

// IndicatorSeries derives RSI, MACD histogram, Bollinger position and 7-day volatility
// for every bar of a chronological close series.
//
// go-talib leaves the lookback region zero-filled, so each indicator is only reported
// once its own lookback has been satisfied.
func IndicatorSeries(closes []float64) []IndicatorPoint {
	points := make([]IndicatorPoint, len(closes))
	if len(closes) == 0 {
		return points
	}

	if len(closes) > RSIPeriod {
		rsi := talib.Rsi(closes, RSIPeriod)
		for i := RSIPeriod; i < len(closes); i++ {
			points[i].RSI = finite(rsi[i])
		}
	}

	macdLookback := MACDSlowPeriod - 1 + MACDSignalPeriod - 1
	if len(closes) > macdLookback {
		_, _, hist := talib.Macd(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)
		for i := macdLookback; i < len(closes); i++ {
			points[i].MACDHist = finite(hist[i])
		}
	}

	if len(closes) >= BollingerPeriod {
		upper, _, lower := talib.BBands(closes, BollingerPeriod, BollingerStdDev, BollingerStdDev, talib.SMA)
		for i := BollingerPeriod - 1; i < len(closes); i++ {
			points[i].BBPosition = finite(BollingerPosition(closes[i], upper[i], lower[i]))
		}
	}

	returns := CalculateReturns(closes)
	for i := VolatilityWindow; i < len(closes); i++ {
		window := returns[i-VolatilityWindow : i]
		points[i].Volatility7d = finite(StdDev(window))
	}

	return points
}

// BollingerPosition calculates where price sits within the bands.
// 0.0 is the lower band, 1.0 the upper band; values outside the bands are not clamped
// because the scorer treats readings beyond 0.9/0.1 as stronger signals.
func BollingerPosition(price, upper, lower float64) float64 {
	width := upper - lower
	if width == 0 {
		return 0.5
	}
	return (price - lower) / width
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
