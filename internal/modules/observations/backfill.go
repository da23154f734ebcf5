package observations

import (
	"sort"

	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/aristath/sentinel-tuner/pkg/formulas"
)

// Backfill returns a copy of observations in which missing indicators are derived from
// each ticker's date-ordered price series. Indicators already present are never
// replaced, and bars without enough history stay missing (neutral for the scorer).
func Backfill(observations []domain.Observation) []domain.Observation {
	out := make([]domain.Observation, len(observations))
	copy(out, observations)

	positions := make(map[string][]int)
	for i, obs := range out {
		positions[obs.Ticker] = append(positions[obs.Ticker], i)
	}

	for _, idx := range positions {
		sort.SliceStable(idx, func(a, b int) bool { return out[idx[a]].Date < out[idx[b]].Date })

		closes := make([]float64, len(idx))
		for k, i := range idx {
			closes[k] = out[i].Price
		}

		for k, point := range formulas.IndicatorSeries(closes) {
			ind := &out[idx[k]].Indicators
			if ind.RSI == nil {
				ind.RSI = point.RSI
			}
			if ind.MACDHist == nil {
				ind.MACDHist = point.MACDHist
			}
			if ind.BBPosition == nil {
				ind.BBPosition = point.BBPosition
			}
			if ind.Volatility7d == nil {
				ind.Volatility7d = point.Volatility7d
			}
		}
	}

	return out
}

// MissingIndicators counts observations with at least one missing indicator
func MissingIndicators(observations []domain.Observation) int {
	n := 0
	for _, obs := range observations {
		if !obs.Indicators.Complete() {
			n++
		}
	}
	return n
}
