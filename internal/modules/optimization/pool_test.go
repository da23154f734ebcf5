package optimization

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aristath/sentinel-tuner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool_Default(t *testing.T) {
	assert.Equal(t, DefaultWorkers, NewWorkerPool(0).Workers())
	assert.Equal(t, DefaultWorkers, NewWorkerPool(-3).Workers())
	assert.Equal(t, 4, NewWorkerPool(4).Workers())
}

func TestWorkerPool_EvaluateAll_PreservesOrder(t *testing.T) {
	pool := NewWorkerPool(8)

	var calls int64
	results, err := pool.EvaluateAll(context.Background(), 500, func(i int) *domain.Metrics {
		atomic.AddInt64(&calls, 1)
		return &domain.Metrics{BuyCount: i}
	}, nil)
	require.NoError(t, err)

	require.Len(t, results, 500)
	for i, m := range results {
		assert.Equal(t, i, m.BuyCount)
	}
	assert.Equal(t, int64(500), atomic.LoadInt64(&calls))
}

func TestWorkerPool_EvaluateAll_Empty(t *testing.T) {
	results, err := NewWorkerPool(2).EvaluateAll(context.Background(), 0, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWorkerPool_EvaluateAll_DoneCallbackRunsPerResult(t *testing.T) {
	seen := make(map[int]bool)
	_, err := NewWorkerPool(3).EvaluateAll(context.Background(), 20,
		func(i int) *domain.Metrics { return nil },
		func(i int, _ *domain.Metrics) { seen[i] = true },
	)
	require.NoError(t, err)
	assert.Len(t, seen, 20)
}

func TestWorkerPool_EvaluateAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int64
	_, err := NewWorkerPool(1).EvaluateAll(ctx, 10000, func(i int) *domain.Metrics {
		if atomic.AddInt64(&calls, 1) == 10 {
			cancel()
		}
		return nil
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, atomic.LoadInt64(&calls), int64(10000))
}
