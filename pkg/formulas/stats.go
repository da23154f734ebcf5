package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population standard deviation (denominator n, not n-1).
// Returns 0 for fewer than two values.
func PopStdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(data, nil)
	if variance <= 0 || math.IsNaN(variance) {
		return 0
	}
	return math.Sqrt(variance)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// CalculateReturns converts a value series to simple returns.
// Returns[i] = Values[i+1]/Values[i] - 1
func CalculateReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns[i-1] = values[i]/values[i-1] - 1
		}
	}

	return returns
}

// SharpeRatio annualizes the mean-to-volatility ratio of periodic returns using the
// population standard deviation. A zero-variance series yields 0.
//
// Formula: mean(r) / popstdev(r) * sqrt(periodsPerYear)
func SharpeRatio(returns []float64, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	std := PopStdDev(returns)
	if std == 0 {
		return 0
	}

	return Mean(returns) / std * math.Sqrt(periodsPerYear)
}

// MaxDrawdown returns the most negative peak-to-trough decline of a value series as a
// fraction (e.g. -0.12 for a 12% drawdown). The first value seeds the running peak.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
		if peak == 0 {
			continue
		}
		dd := (v - peak) / peak
		if dd < maxDD {
			maxDD = dd
		}
	}

	return maxDD
}
