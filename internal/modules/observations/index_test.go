package observations

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observation(date, ticker string, price float64) domain.Observation {
	return domain.Observation{Date: date, Ticker: ticker, Price: price}
}

func withMACD(obs domain.Observation, macd float64) domain.Observation {
	obs.Indicators.MACDHist = domain.Float(macd)
	return obs
}

func TestNewIndex_PreviousLookup(t *testing.T) {
	input := []domain.Observation{
		withMACD(observation("2024-01-03", "AAPL", 103), 0.3),
		withMACD(observation("2024-01-01", "AAPL", 101), 0.1),
		observation("2024-01-02", "MSFT", 302),
		withMACD(observation("2024-01-02", "AAPL", 102), 0.2),
		observation("2024-01-01", "MSFT", 301),
	}

	ix, err := NewIndex(input)
	require.NoError(t, err)

	_, ok := ix.Previous("2024-01-01", "AAPL")
	assert.False(t, ok, "first day has no lookback")

	prev, ok := ix.Previous("2024-01-02", "AAPL")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", prev.Date)
	assert.Equal(t, 0.1, prev.Indicators.MACDHistValue())

	prev, ok = ix.Previous("2024-01-03", "AAPL")
	require.True(t, ok)
	assert.Equal(t, "2024-01-02", prev.Date)

	prev, ok = ix.Previous("2024-01-02", "MSFT")
	require.True(t, ok)
	assert.Equal(t, 301.0, prev.Price)

	_, ok = ix.Previous("2024-01-02", "GOOG")
	assert.False(t, ok)
}

func TestNewIndex_GapDaysUsePreviousTradingDay(t *testing.T) {
	ix, err := NewIndex([]domain.Observation{
		observation("2024-01-01", "AAPL", 1),
		observation("2024-01-05", "AAPL", 2),
	})
	require.NoError(t, err)

	prev, ok := ix.Previous("2024-01-05", "AAPL")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", prev.Date)
}

func TestNewIndex_SameDateDuplicatesNeedStrictlyEarlierDate(t *testing.T) {
	ix, err := NewIndex([]domain.Observation{
		observation("2024-01-01", "AAPL", 1),
		observation("2024-01-02", "AAPL", 2),
		observation("2024-01-02", "AAPL", 3),
	})
	require.NoError(t, err)

	prev, ok := ix.Previous("2024-01-02", "AAPL")
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", prev.Date)
	assert.Equal(t, 1.0, prev.Price)

	ix, err = NewIndex([]domain.Observation{
		observation("2024-01-01", "AAPL", 1),
		observation("2024-01-01", "AAPL", 2),
	})
	require.NoError(t, err)
	_, ok = ix.Previous("2024-01-01", "AAPL")
	assert.False(t, ok)
}

func TestNewIndex_OrderingAccessors(t *testing.T) {
	input := []domain.Observation{
		observation("2024-01-02", "B", 1),
		observation("2024-01-01", "A", 2),
		observation("2024-01-02", "A", 3),
		observation("2024-01-01", "B", 4),
	}

	ix, err := NewIndex(input)
	require.NoError(t, err)

	assert.Equal(t, input, ix.Observations())
	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, []string{"A", "B"}, ix.Tickers())
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, ix.Dates())

	var prices []float64
	for _, obs := range ix.Chronological() {
		prices = append(prices, obs.Price)
	}
	assert.Equal(t, []float64{2, 4, 1, 3}, prices, "stable by date, input order within a date")

	series := ix.Series("A")
	require.Len(t, series, 2)
	assert.Equal(t, "2024-01-01", series[0].Date)

	found, ok := ix.Find("2024-01-02", "A")
	require.True(t, ok)
	assert.Equal(t, 3.0, found.Price)
	_, ok = ix.Find("2024-01-03", "A")
	assert.False(t, ok)

	summary := ix.Summary()
	assert.Equal(t, 4, summary.Observations)
	assert.Equal(t, 2, summary.TradingDays)
	assert.Equal(t, "2024-01-01", summary.FirstDate)
	assert.Equal(t, "2024-01-02", summary.LastDate)
}

func TestNewIndex_DataErrors(t *testing.T) {
	tests := []struct {
		name  string
		obs   domain.Observation
		field string
	}{
		{"missing date", observation("", "AAPL", 1), "date"},
		{"missing ticker", observation("2024-01-01", " ", 1), "ticker"},
		{"zero price", observation("2024-01-01", "AAPL", 0), "price"},
		{"negative price", observation("2024-01-01", "AAPL", -3), "price"},
		{"NaN price", observation("2024-01-01", "AAPL", math.NaN()), "price"},
		{"infinite price", observation("2024-01-01", "AAPL", math.Inf(1)), "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndex([]domain.Observation{observation("2024-01-01", "OK", 1), tt.obs})
			require.Error(t, err)

			var dataErr *domain.DataError
			require.True(t, errors.As(err, &dataErr))
			assert.Equal(t, tt.field, dataErr.Field)
			assert.Equal(t, 1, dataErr.Index)
		})
	}
}

func TestIndex_ConcurrentReaders(t *testing.T) {
	var input []domain.Observation
	for d := 1; d <= 28; d++ {
		input = append(input, observation("2024-02-"+twoDigits(d), "AAPL", float64(d)))
	}
	ix, err := NewIndex(input)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := 2; d <= 28; d++ {
				prev, ok := ix.Previous("2024-02-"+twoDigits(d), "AAPL")
				assert.True(t, ok)
				assert.Equal(t, float64(d-1), prev.Price)
			}
		}()
	}
	wg.Wait()
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
