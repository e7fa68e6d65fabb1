// Package metrics exposes Prometheus instrumentation for the validation
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/traincheck/internal/validate"
)

var (
	documentsValidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traincheck_documents_validated_total",
		Help: "Documents validated, by architecture and outcome.",
	}, []string{"architecture", "outcome"})

	violationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traincheck_violations_total",
		Help: "Violations reported, by kind.",
	}, []string{"kind"})

	validationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traincheck_validation_duration_seconds",
		Help:    "Time spent validating one document.",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordValidation records the outcome of one validation run.
func RecordValidation(architecture string, violations []validate.Violation, duration time.Duration) {
	outcome := "valid"
	if len(violations) > 0 {
		outcome = "invalid"
	}
	documentsValidated.WithLabelValues(architecture, outcome).Inc()
	for _, v := range violations {
		violationsTotal.WithLabelValues(string(v.Kind)).Inc()
	}
	validationDuration.Observe(duration.Seconds())
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
