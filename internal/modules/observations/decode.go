package observations

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/sentinel-tuner/internal/domain"
)

// Record is one raw cache entry as decoded from JSON or msgpack
type Record map[string]interface{}

// DecodeRecords converts raw cache records into observations, failing on the first
// record that cannot be decoded.
func DecodeRecords(records []Record) ([]domain.Observation, error) {
	out := make([]domain.Observation, 0, len(records))
	for i, rec := range records {
		obs, err := DecodeRecord(i, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}

// DecodeRecord converts one raw cache record into an Observation.
//
// Required fields are date, ticker and price. A missing or null analysis/indicators
// mapping becomes an empty (all neutral) sentinel. Optional numeric fields accept
// numbers, numeric strings and booleans; nulls count as missing. Any other provided
// value is a *domain.DataError.
func DecodeRecord(idx int, rec Record) (domain.Observation, error) {
	var obs domain.Observation

	fail := func(field, reason string) error {
		return &domain.DataError{
			Index:  idx,
			Date:   obs.Date,
			Ticker: obs.Ticker,
			Field:  field,
			Reason: reason,
		}
	}

	date, err := decodeDate(rec["date"])
	if err != nil {
		return obs, fail("date", err.Error())
	}
	obs.Date = date

	ticker, ok := rec["ticker"].(string)
	if !ok || strings.TrimSpace(ticker) == "" {
		return obs, fail("ticker", "missing or not a string")
	}
	obs.Ticker = ticker

	price, present, err := coerceFloat(rec["price"])
	switch {
	case err != nil:
		return obs, fail("price", err.Error())
	case !present:
		return obs, fail("price", "missing")
	}
	obs.Price = price

	analysis, err := subRecord(rec["analysis"])
	if err != nil {
		return obs, fail("analysis", err.Error())
	}
	if obs.Analysis.SentimentScore, err = optionalFloat(analysis, "sentiment_score"); err != nil {
		return obs, fail("analysis.sentiment_score", err.Error())
	}
	if obs.Analysis.ReversalProbability, err = optionalFloat(analysis, "reversal_probability"); err != nil {
		return obs, fail("analysis.reversal_probability", err.Error())
	}
	obs.Analysis.RecommendedAction = optionalString(analysis, "recommended_action")
	obs.Analysis.RiskLevel = optionalString(analysis, "risk_level")

	indicators, err := subRecord(rec["indicators"])
	if err != nil {
		return obs, fail("indicators", err.Error())
	}
	fields := []struct {
		key string
		dst **float64
	}{
		{"rsi", &obs.Indicators.RSI},
		{"macd_hist", &obs.Indicators.MACDHist},
		{"bb_position", &obs.Indicators.BBPosition},
		{"volatility_7d", &obs.Indicators.Volatility7d},
	}
	for _, f := range fields {
		if *f.dst, err = optionalFloat(indicators, f.key); err != nil {
			return obs, fail("indicators."+f.key, err.Error())
		}
	}

	return obs, nil
}

// decodeDate accepts date strings as-is and converts epoch seconds to RFC3339 UTC
func decodeDate(v interface{}) (string, error) {
	switch d := v.(type) {
	case nil:
		return "", fmt.Errorf("missing")
	case string:
		if strings.TrimSpace(d) == "" {
			return "", fmt.Errorf("empty")
		}
		return d, nil
	case time.Time:
		return d.UTC().Format(time.RFC3339), nil
	}

	secs, present, err := coerceFloat(v)
	if err != nil || !present {
		return "", fmt.Errorf("not a date string or epoch value")
	}
	return time.Unix(int64(secs), 0).UTC().Format(time.RFC3339), nil
}

func subRecord(v interface{}) (map[string]interface{}, error) {
	switch m := v.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return m, nil
	case Record:
		return m, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a mapping, got %T", v)
}

func optionalFloat(m map[string]interface{}, key string) (*float64, error) {
	v, present, err := coerceFloat(m[key])
	if err != nil || !present {
		return nil, err
	}
	return &v, nil
}

func optionalString(m map[string]interface{}, key string) string {
	switch s := m[key].(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// coerceFloat converts a decoded value to a finite float64. present is false for nil.
func coerceFloat(v interface{}) (value float64, present bool, err error) {
	value, present, err = rawFloat(v)
	if err == nil && present && (math.IsNaN(value) || math.IsInf(value, 0)) {
		return 0, true, fmt.Errorf("not finite: %v", v)
	}
	return value, present, err
}

func rawFloat(v interface{}) (float64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int8:
		return float64(n), true, nil
	case int16:
		return float64(n), true, nil
	case int32:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case uint:
		return float64(n), true, nil
	case uint8:
		return float64(n), true, nil
	case uint16:
		return float64(n), true, nil
	case uint32:
		return float64(n), true, nil
	case uint64:
		return float64(n), true, nil
	case bool:
		if n {
			return 1, true, nil
		}
		return 0, true, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, true, fmt.Errorf("not numeric: %q", n.String())
		}
		return f, true, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, true, fmt.Errorf("not numeric: %q", n)
		}
		return f, true, nil
	}
	return 0, true, fmt.Errorf("cannot coerce %T to a number", v)
}

// validate checks the fields every downstream component depends on
func validate(idx int, obs domain.Observation) error {
	fail := func(field, reason string) error {
		return &domain.DataError{Index: idx, Date: obs.Date, Ticker: obs.Ticker, Field: field, Reason: reason}
	}

	switch {
	case strings.TrimSpace(obs.Date) == "":
		return fail("date", "missing")
	case strings.TrimSpace(obs.Ticker) == "":
		return fail("ticker", "missing")
	case math.IsNaN(obs.Price) || math.IsInf(obs.Price, 0):
		return fail("price", "not finite")
	case obs.Price <= 0:
		return fail("price", "must be positive")
	}
	return nil
}
