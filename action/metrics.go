/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package action

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsLabelAction = "action"
	metricsLabelStatus = "status"

	// unknownActionLabel replaces names that are not registered, so clients cannot grow the number of series.
	unknownActionLabel = "unknown"
)

// Execution statuses used as the "status" label value.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// DefaultExecutionDurationBuckets is default buckets into which observations of action executions are counted.
var DefaultExecutionDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// PrometheusMetricsOpts represents an options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// DurationBuckets is a list of buckets into which observations of action executions are counted.
	DurationBuckets []float64

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents collector of metrics for action executions.
type PrometheusMetrics struct {
	Executions *prometheus.CounterVec
	Durations  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new metrics collector.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts is a more configurable version of creating PrometheusMetrics.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	durBuckets := opts.DurationBuckets
	if durBuckets == nil {
		durBuckets = DefaultExecutionDurationBuckets
	}
	return &PrometheusMetrics{
		Executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   opts.Namespace,
				Name:        "action_executions_total",
				Help:        "Total number of executed actions.",
				ConstLabels: opts.ConstLabels,
			},
			[]string{metricsLabelAction, metricsLabelStatus},
		),
		Durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   opts.Namespace,
				Name:        "action_execution_duration_seconds",
				Help:        "A histogram of the action execution durations.",
				Buckets:     durBuckets,
				ConstLabels: opts.ConstLabels,
			},
			[]string{metricsLabelAction},
		),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.Executions, pm.Durations)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.Executions)
	prometheus.Unregister(pm.Durations)
}

func (pm *PrometheusMetrics) observeExecution(actionName, status string, startTime time.Time) {
	if pm == nil {
		return
	}
	if status == StatusNotFound {
		pm.Executions.With(prometheus.Labels{metricsLabelAction: unknownActionLabel, metricsLabelStatus: status}).Inc()
		return
	}
	pm.Executions.With(prometheus.Labels{metricsLabelAction: actionName, metricsLabelStatus: status}).Inc()
	pm.Durations.With(prometheus.Labels{metricsLabelAction: actionName}).Observe(time.Since(startTime).Seconds())
}
