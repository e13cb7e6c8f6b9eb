/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/acronis/go-actionserver/endpoints"
	"github.com/acronis/go-actionserver/httpserver/middleware"
	"github.com/acronis/go-actionserver/log"
	"github.com/acronis/go-actionserver/netutil"
	"github.com/acronis/go-actionserver/service"
)

// Opts represents options for creating HTTPServer.
type Opts struct {
	// Runner executes actions for the webhook calls.
	Runner ActionRunner
	// Endpoints is available to actions via endpoints.FromContext.
	Endpoints *endpoints.Config
	// HealthCheck is a function that performs health check logic.
	HealthCheck HealthCheck
	// MetricsHandler is a custom handler for the /metrics endpoint (e.g., Prometheus handler).
	MetricsHandler http.Handler
	// MetricsNamespace is prepended to the names of HTTP request metrics.
	MetricsNamespace string
	// Listener is a pre-opened network listener. Server opens a new one on the configured port if it's nil.
	Listener net.Listener
}

// HTTPServer represents a wrapper around http.Server serving the action server HTTP API.
// It implements service.Unit and service.MetricsRegisterer interfaces.
type HTTPServer struct {
	HTTPServer      *http.Server
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	tlsConfig        *tls.Config
	listener         net.Listener
	port             int32
	httpServerDone   atomic.Value
	metricsCollector *middleware.HTTPRequestMetricsCollector
}

var _ service.Unit = (*HTTPServer)(nil)
var _ service.MetricsRegisterer = (*HTTPServer)(nil)

// New creates a new HTTPServer with predefined logging, metrics collecting,
// recovering after panics and health-checking functionality.
// TLS material is loaded here, so the returned error wraps tlsutil.ErrInvalidTLSMaterial if it's invalid.
func New(cfg *Config, logger log.FieldLogger, opts Opts) (*HTTPServer, error) {
	tlsConfig, err := cfg.TLS.ServerConfig()
	if err != nil {
		return nil, err
	}

	metricsCollector := middleware.NewHTTPRequestMetricsCollectorWithOpts(
		middleware.HTTPRequestMetricsCollectorOpts{Namespace: opts.MetricsNamespace})
	router := NewRouter(logger, RouterOpts{
		Runner:      opts.Runner,
		Endpoints:   opts.Endpoints,
		CORSOrigins: cfg.CORSOrigins,
		MaxBodySize: uint64(cfg.Limits.MaxBodySize),
		Logging: middleware.LoggingOpts{
			RequestStart:         cfg.Log.RequestStart,
			SlowRequestThreshold: time.Duration(cfg.Log.SlowRequestThreshold),
		},
		MetricsCollector: metricsCollector,
		MetricsHandler:   opts.MetricsHandler,
		HealthCheck:      opts.HealthCheck,
	})

	return &HTTPServer{
		HTTPServer: &http.Server{
			Addr:              cfg.Address(),
			WriteTimeout:      time.Duration(cfg.Timeouts.Write),
			ReadTimeout:       time.Duration(cfg.Timeouts.Read),
			ReadHeaderTimeout: time.Duration(cfg.Timeouts.ReadHeader),
			IdleTimeout:       time.Duration(cfg.Timeouts.Idle),
			Handler:           router,
			TLSConfig:         tlsConfig,
		},
		Logger:           logger,
		ShutdownTimeout:  time.Duration(cfg.Timeouts.Shutdown),
		tlsConfig:        tlsConfig,
		listener:         opts.Listener,
		metricsCollector: metricsCollector,
	}, nil
}

// Start starts application HTTP server in a blocking way.
// It's supposed that this method will be called in a separate goroutine.
// If a fatal error occurs, it will be sent to the fatalError channel.
func (s *HTTPServer) Start(fatalError chan<- error) {
	done := make(chan struct{})
	defer close(done)
	s.httpServerDone.Store(done)

	logger := s.Logger.With(
		log.String("address", s.HTTPServer.Addr),
		log.Bool("tls", s.tlsConfig != nil),
		log.Duration("shutdown_timeout", s.ShutdownTimeout),
	)

	if s.listener == nil {
		ln, err := netutil.Listen("tcp", s.HTTPServer.Addr)
		if err != nil {
			logger.Error("action server HTTP listener error", log.Error(err))
			fatalError <- err
			return
		}
		s.listener = ln
	}
	port := netutil.ListenerPort(s.listener)
	atomic.StoreInt32(&s.port, int32(port))

	logger.Info("action endpoint is up and running", log.String("url", s.URL()))

	var err error
	if s.tlsConfig != nil {
		err = s.HTTPServer.ServeTLS(s.listener, "", "")
	} else {
		err = s.HTTPServer.Serve(s.listener)
	}
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("action server HTTP server closed")
			return
		}
		logger.Error("action server HTTP server error", log.Error(err))
		fatalError <- err
	}
}

// Stop stops application HTTP server (gracefully or not).
func (s *HTTPServer) Stop(gracefully bool) error {
	if !gracefully {
		s.Logger.Info("closing action server HTTP server...")
		if err := s.HTTPServer.Close(); err != nil {
			s.Logger.Error("action server HTTP server closing error", log.Error(err))
			return err
		}
		s.waitDone()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	s.Logger.Info("shutting down action server HTTP server...", log.Duration("timeout", s.ShutdownTimeout))
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		s.Logger.Error("action server HTTP server shutting down error", log.Error(err))
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	s.Logger.Info("action server HTTP server shut down")
	s.waitDone()
	return nil
}

func (s *HTTPServer) waitDone() {
	if done, ok := s.httpServerDone.Load().(chan struct{}); ok && done != nil {
		<-done // Wait for the listener to be closed.
	}
}

// MustRegisterMetrics registers metrics in Prometheus client and panics if any error occurs.
func (s *HTTPServer) MustRegisterMetrics() {
	s.metricsCollector.MustRegister()
}

// UnregisterMetrics unregisters metrics in Prometheus client.
func (s *HTTPServer) UnregisterMetrics() {
	s.metricsCollector.Unregister()
}

// GetPort returns the port the server listens on. It's 0 until the server is started.
func (s *HTTPServer) GetPort() int {
	return int(atomic.LoadInt32(&s.port))
}

// URL returns the base URL of the action endpoint.
func (s *HTTPServer) URL() string {
	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://0.0.0.0:%d%s", scheme, s.GetPort(), RouteWebhook)
}
