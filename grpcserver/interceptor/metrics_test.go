/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/interop/grpc_testing"
	"google.golang.org/grpc/status"

	apptestutil "github.com/acronis/go-actionserver/testutil"
)

func TestMetricsUnaryInterceptor(t *testing.T) {
	collector := NewPrometheusMetrics()
	svc, client, closeSvc, err := startTestService([]grpc.ServerOption{grpc.ChainUnaryInterceptor(
		MetricsUnaryInterceptor(collector),
		RecoveryUnaryInterceptor(),
	)})
	require.NoError(t, err)
	defer func() { require.NoError(t, closeSvc()) }()

	durations := func(code codes.Code) prometheus.Histogram {
		return collector.Durations.With(prometheus.Labels{
			callMetricsLabelService: "grpc.testing.TestService",
			callMetricsLabelMethod:  "UnaryCall",
			callMetricsLabelCode:    code.String(),
		}).(prometheus.Histogram)
	}

	_, err = client.UnaryCall(context.Background(), &grpc_testing.SimpleRequest{})
	require.NoError(t, err)
	apptestutil.RequireSamplesCountInHistogram(t, durations(codes.OK), 1)

	svc.SwitchUnaryCallHandler(func(ctx context.Context, req *grpc_testing.SimpleRequest) (*grpc_testing.SimpleResponse, error) {
		return nil, status.Error(codes.NotFound, "no action")
	})
	_, err = client.UnaryCall(context.Background(), &grpc_testing.SimpleRequest{})
	require.Equal(t, codes.NotFound, status.Code(err))
	apptestutil.RequireSamplesCountInHistogram(t, durations(codes.NotFound), 1)

	svc.SwitchUnaryCallHandler(func(ctx context.Context, req *grpc_testing.SimpleRequest) (*grpc_testing.SimpleResponse, error) {
		panic("boom")
	})
	_, err = client.UnaryCall(context.Background(), &grpc_testing.SimpleRequest{})
	require.Equal(t, codes.Internal, status.Code(err))
	apptestutil.RequireSamplesCountInHistogram(t, durations(codes.Internal), 1)

	inFlight := collector.InFlight.With(prometheus.Labels{
		callMetricsLabelService: "grpc.testing.TestService",
		callMetricsLabelMethod:  "UnaryCall",
	})
	require.Equal(t, 0.0, testutil.ToFloat64(inFlight))
}

func TestPrometheusMetrics_Register(t *testing.T) {
	collector := NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{Namespace: "interceptor_test"})
	require.NotPanics(t, collector.MustRegister)
	require.Panics(t, collector.MustRegister)
	collector.Unregister()
	require.NotPanics(t, collector.MustRegister)
	collector.Unregister()
}
