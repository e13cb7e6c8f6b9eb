/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package grpcserver

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/acronis/go-actionserver/endpoints"
	"github.com/acronis/go-actionserver/grpcserver/interceptor"
	"github.com/acronis/go-actionserver/log"
	"github.com/acronis/go-actionserver/netutil"
	"github.com/acronis/go-actionserver/service"
)

// HealthCheckFullMethod is the full name of the standard health-checking method.
// Successful health checks are not logged.
const HealthCheckFullMethod = "/grpc.health.v1.Health/Check"

// Opts represents options for creating GRPCServer.
type Opts struct {
	// Runner executes actions for the webhook calls.
	Runner ActionRunner
	// Endpoints is available to actions via endpoints.FromContext.
	Endpoints *endpoints.Config
	// MetricsNamespace is prepended to the names of gRPC call metrics.
	MetricsNamespace string
	// UnaryInterceptors are chained after the built-in ones.
	UnaryInterceptors []grpc.UnaryServerInterceptor
	// Listener is a pre-opened network listener. Server opens a new one on the configured port if it's nil.
	Listener net.Listener
}

// GRPCServer represents a wrapper around grpc.Server serving ActionService and the health service.
// It implements service.Unit and service.MetricsRegisterer interfaces.
type GRPCServer struct {
	GRPCServer *grpc.Server
	Health     *health.Server
	Logger     log.FieldLogger

	address         string
	tls             bool
	listener        net.Listener
	port            int32
	shutdownTimeout time.Duration
	grpcServerDone  atomic.Value
	promMetrics     *interceptor.PrometheusMetrics
}

var _ service.Unit = (*GRPCServer)(nil)
var _ service.MetricsRegisterer = (*GRPCServer)(nil)

// New creates a new GRPCServer with request ids, logging, metrics collecting and
// recovering after panics. ActionService and the health service are registered.
// TLS material is loaded here, so the returned error wraps tlsutil.ErrInvalidTLSMaterial if it's invalid.
func New(cfg *Config, logger log.FieldLogger, opts Opts) (*GRPCServer, error) {
	var serverOpts []grpc.ServerOption

	tlsConfig, err := cfg.TLS.ServerConfig()
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(tlsConfig)))
	}

	serverOpts = append(serverOpts,
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    time.Duration(cfg.Keepalive.Time),
			Timeout: time.Duration(cfg.Keepalive.Timeout),
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             time.Duration(cfg.Keepalive.MinTime),
			PermitWithoutStream: true,
		}))
	if cfg.Limits.MaxConcurrentStreams > 0 {
		serverOpts = append(serverOpts, grpc.MaxConcurrentStreams(cfg.Limits.MaxConcurrentStreams))
	}
	if cfg.Limits.MaxRecvMessageSize > 0 {
		serverOpts = append(serverOpts, grpc.MaxRecvMsgSize(int(cfg.Limits.MaxRecvMessageSize)))
	}
	if cfg.Limits.MaxSendMessageSize > 0 {
		serverOpts = append(serverOpts, grpc.MaxSendMsgSize(int(cfg.Limits.MaxSendMessageSize)))
	}

	promMetrics := interceptor.NewPrometheusMetricsWithOpts(
		interceptor.PrometheusMetricsOpts{Namespace: opts.MetricsNamespace})
	excludedMethods := cfg.Log.ExcludedMethods
	if excludedMethods == nil {
		excludedMethods = []string{HealthCheckFullMethod}
	}
	unaryInterceptors := []grpc.UnaryServerInterceptor{
		callStartTimeUnaryInterceptor,
		interceptor.RequestIDUnaryInterceptor(),
		interceptor.LoggingUnaryInterceptor(logger,
			interceptor.WithLoggingCallStart(cfg.Log.CallStart),
			interceptor.WithLoggingSlowCallThreshold(time.Duration(cfg.Log.SlowCallThreshold)),
			interceptor.WithLoggingExcludedMethods(excludedMethods...)),
		interceptor.RecoveryUnaryInterceptor(),
		interceptor.MetricsUnaryInterceptor(promMetrics),
	}
	unaryInterceptors = append(unaryInterceptors, opts.UnaryInterceptors...)
	serverOpts = append(serverOpts, grpc.ChainUnaryInterceptor(unaryInterceptors...))

	grpcServer := grpc.NewServer(serverOpts...)
	RegisterActionServiceServer(grpcServer, NewActionService(opts.Runner, opts.Endpoints))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &GRPCServer{
		GRPCServer:      grpcServer,
		Health:          healthServer,
		Logger:          logger,
		address:         cfg.Address(),
		tls:             tlsConfig != nil,
		listener:        opts.Listener,
		shutdownTimeout: time.Duration(cfg.Timeouts.Shutdown),
		promMetrics:     promMetrics,
	}, nil
}

// Start starts the gRPC server in a blocking way.
// It's supposed that this method will be called in a separate goroutine.
// If a fatal error occurs, it will be sent to the fatalError channel.
func (s *GRPCServer) Start(fatalError chan<- error) {
	done := make(chan struct{})
	s.grpcServerDone.Store(done)
	defer close(done)

	logger := s.Logger.With(
		log.String("address", s.address),
		log.Bool("tls", s.tls),
		log.Duration("shutdown_timeout", s.shutdownTimeout),
	)

	if s.listener == nil {
		ln, err := netutil.Listen("tcp", s.address)
		if err != nil {
			logger.Error("action server gRPC listener error", log.Error(err))
			fatalError <- err
			return
		}
		s.listener = ln
	}
	atomic.StoreInt32(&s.port, int32(netutil.ListenerPort(s.listener))) //nolint:gosec // TCP port fits int32

	s.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.Health.SetServingStatus(ActionServiceName, healthpb.HealthCheckResponse_SERVING)
	logger.Info("action endpoint is up and running", log.String("url", s.URL()))

	if err := s.GRPCServer.Serve(s.listener); err != nil {
		logger.Error("action server gRPC server error", log.Error(err))
		fatalError <- err
		return
	}
	logger.Info("action server gRPC server stopped")
}

// Stop stops the gRPC server gracefully or forcefully based on the gracefully parameter.
// Graceful stop waits for ongoing calls to finish within the shutdown timeout and then stops forcefully.
func (s *GRPCServer) Stop(gracefully bool) error {
	s.Health.Shutdown()

	if !gracefully {
		s.Logger.Info("stopping action server gRPC server...")
		s.GRPCServer.Stop()
		s.waitDone()
		return nil
	}

	s.Logger.Info("stopping action server gRPC server gracefully...", log.Duration("timeout", s.shutdownTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.GRPCServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.Logger.Info("action server gRPC server gracefully stopped")
	case <-ctx.Done():
		s.Logger.Warn("action server gRPC server graceful stop timed out, stopping forcefully...")
		s.GRPCServer.Stop()
	}
	s.waitDone()
	return nil
}

func (s *GRPCServer) waitDone() {
	if done, ok := s.grpcServerDone.Load().(chan struct{}); ok && done != nil {
		<-done
	}
}

// MustRegisterMetrics registers metrics in Prometheus client and panics if any error occurs.
func (s *GRPCServer) MustRegisterMetrics() {
	s.promMetrics.MustRegister()
}

// UnregisterMetrics unregisters metrics in Prometheus client.
func (s *GRPCServer) UnregisterMetrics() {
	s.promMetrics.Unregister()
}

// GetPort returns the port the server listens on. It's 0 until the server is started.
func (s *GRPCServer) GetPort() int {
	return int(atomic.LoadInt32(&s.port))
}

// URL returns the address of the action endpoint in the form it's logged at startup.
func (s *GRPCServer) URL() string {
	scheme := "grpc"
	if s.tls {
		scheme = "grpcs"
	}
	return fmt.Sprintf("%s://0.0.0.0:%d", scheme, s.GetPort())
}

func callStartTimeUnaryInterceptor(
	ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
) (interface{}, error) {
	return handler(interceptor.NewContextWithCallStartTime(ctx, time.Now()), req)
}
