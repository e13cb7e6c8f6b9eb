/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/acronis/go-actionserver/internal/libinfo"
)

const (
	callMetricsLabelService = "grpc_service"
	callMetricsLabelMethod  = "grpc_method"
	callMetricsLabelCode    = "grpc_code"
)

// DefaultPrometheusDurationBuckets is default buckets into which observations of serving gRPC calls are counted.
var DefaultPrometheusDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	Namespace       string
	DurationBuckets []float64
	ConstLabels     prometheus.Labels
}

// PrometheusMetrics represents collector of metrics for incoming gRPC calls.
type PrometheusMetrics struct {
	Durations *prometheus.HistogramVec
	InFlight  *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts is a more configurable version of creating PrometheusMetrics.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	if opts.DurationBuckets == nil {
		opts.DurationBuckets = DefaultPrometheusDurationBuckets
	}
	durations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "grpc_call_duration_seconds",
			Help:        "A histogram of the gRPC call durations.",
			Buckets:     opts.DurationBuckets,
			ConstLabels: libinfo.AddPrometheusVersionLabel(opts.ConstLabels),
		},
		[]string{callMetricsLabelService, callMetricsLabelMethod, callMetricsLabelCode},
	)
	inFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "grpc_calls_in_flight",
			Help:        "Current number of gRPC calls being served.",
			ConstLabels: libinfo.AddPrometheusVersionLabel(opts.ConstLabels),
		},
		[]string{callMetricsLabelService, callMetricsLabelMethod},
	)
	return &PrometheusMetrics{Durations: durations, InFlight: inFlight}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.Durations, pm.InFlight)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.InFlight)
	prometheus.Unregister(pm.Durations)
}

// MetricsUnaryInterceptor collects durations and the number of in-flight unary calls.
// Panics are observed with the Internal code and re-raised.
func MetricsUnaryInterceptor(collector *PrometheusMetrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		startTime := GetCallStartTimeFromContext(ctx)
		if startTime.IsZero() {
			startTime = time.Now()
			ctx = NewContextWithCallStartTime(ctx, startTime)
		}
		service, method := splitFullMethodName(info.FullMethod)

		inFlight := collector.InFlight.With(prometheus.Labels{
			callMetricsLabelService: service,
			callMetricsLabelMethod:  method,
		})
		inFlight.Inc()
		defer inFlight.Dec()

		observe := func(code codes.Code) {
			collector.Durations.With(prometheus.Labels{
				callMetricsLabelService: service,
				callMetricsLabelMethod:  method,
				callMetricsLabelCode:    code.String(),
			}).Observe(time.Since(startTime).Seconds())
		}
		defer func() {
			if p := recover(); p != nil {
				observe(codes.Internal)
				panic(p)
			}
			observe(status.Code(err))
		}()

		return handler(ctx, req)
	}
}
