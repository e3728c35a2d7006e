// Package metrics provides Prometheus metrics for the scoring engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// JobsProcessed counts finished embedding jobs by terminal status.
	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scorelens",
			Subsystem: "worker",
			Name:      "jobs_processed_total",
			Help:      "Embedding jobs finished, by terminal status",
		},
		[]string{"status"},
	)

	// PredictionRequests counts predictions by outcome.
	PredictionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scorelens",
			Subsystem: "predictor",
			Name:      "requests_total",
			Help:      "Prediction requests, by outcome",
		},
		[]string{"outcome"},
	)

	// PredictionLatency observes end-to-end prediction latency.
	PredictionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scorelens",
			Subsystem: "predictor",
			Name:      "latency_seconds",
			Help:      "Prediction request latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// ExemplarRebuilds counts exemplar rebuilds by question.
	ExemplarRebuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scorelens",
			Subsystem: "cluster",
			Name:      "exemplar_rebuilds_total",
			Help:      "Exemplar set rebuilds, by question",
		},
		[]string{"question"},
	)
)

func init() {
	registry.MustRegister(JobsProcessed, PredictionRequests, PredictionLatency, ExemplarRebuilds)
}

// Handler returns the HTTP handler serving the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
