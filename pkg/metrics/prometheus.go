// Package metrics exposes tuner activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records grid search activity using Prometheus.
type Recorder struct {
	searchesTotal  *prometheus.CounterVec
	combinations   *prometheus.CounterVec
	bestSharpe     prometheus.Gauge
	observations   prometheus.Gauge
	searchDuration *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		searchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuner_searches_total",
				Help: "Total number of grid searches by outcome",
			},
			[]string{"outcome"},
		),
		combinations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tuner_combinations_total",
				Help: "Parameter combinations evaluated, by whether they passed the activity filter",
			},
			[]string{"result"},
		),
		bestSharpe: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuner_best_sharpe",
				Help: "Sharpe ratio of the best parameter set of the latest search",
			},
		),
		observations: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tuner_observations",
				Help: "Number of observations loaded into the index",
			},
		),
		searchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tuner_operation_duration_seconds",
				Help:    "Duration of tuner operations in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"operation"},
		),
	}
}

// RecordSearch records a finished search.
func (r *Recorder) RecordSearch(outcome string) {
	r.searchesTotal.WithLabelValues(outcome).Inc()
}

// RecordCombinations records evaluated combinations.
func (r *Recorder) RecordCombinations(qualified, filtered int) {
	r.combinations.WithLabelValues("qualified").Add(float64(qualified))
	r.combinations.WithLabelValues("filtered").Add(float64(filtered))
}

// RecordBestSharpe records the best Sharpe ratio of the latest search.
func (r *Recorder) RecordBestSharpe(sharpe float64) {
	r.bestSharpe.Set(sharpe)
}

// RecordObservations records the size of the loaded data set.
func (r *Recorder) RecordObservations(n int) {
	r.observations.Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.searchDuration.WithLabelValues(op).Observe(seconds)
}
