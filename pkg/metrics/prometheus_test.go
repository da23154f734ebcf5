package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordSearch("completed")
	r.RecordSearch("completed")
	r.RecordSearch("cancelled")
	r.RecordCombinations(12, 30)
	r.RecordBestSharpe(1.75)
	r.RecordObservations(420)
	r.RecordLatency("search", 2.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.searchesTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.searchesTotal.WithLabelValues("cancelled")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.combinations.WithLabelValues("qualified")))
	assert.Equal(t, 30.0, testutil.ToFloat64(r.combinations.WithLabelValues("filtered")))
	assert.Equal(t, 1.75, testutil.ToFloat64(r.bestSharpe))
	assert.Equal(t, 420.0, testutil.ToFloat64(r.observations))

	count, err := testutil.GatherAndCount(reg, "tuner_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewWithRegisterer_IsolatedRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegisterer(prometheus.NewRegistry())
		NewWithRegisterer(prometheus.NewRegistry())
	})
}
