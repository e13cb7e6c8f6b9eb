/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bootstrap

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/acronis/go-actionserver/action"
	"github.com/acronis/go-actionserver/config"
	"github.com/acronis/go-actionserver/endpoints"
	"github.com/acronis/go-actionserver/grpcserver"
	"github.com/acronis/go-actionserver/httpserver"
	"github.com/acronis/go-actionserver/log"
	"github.com/acronis/go-actionserver/netutil"
	"github.com/acronis/go-actionserver/profserver"
	"github.com/acronis/go-actionserver/service"
)

// Backends starts the HTTP and gRPC front-ends of the action server.
// Fine-tuning of the servers (timeouts, limits, logging) is read from the ACTION_SERVER_HTTP_* and
// ACTION_SERVER_GRPC_* environment variables.
type Backends struct {
	Logger log.FieldLogger

	// Registry is used for resolving the action package. action.DefaultRegistry is used if nil.
	Registry *action.Registry

	// ConfigLoader loads httpserver.Config and grpcserver.Config.
	// Loader that reads ACTION_SERVER_* environment variables is used if nil.
	ConfigLoader *config.Loader

	// Listen opens the listening socket. netutil.ListenPort is used if nil.
	Listen func(port int) (net.Listener, error)

	// ReloadDebounce is passed to action.Reloader when auto-reload is enabled.
	ReloadDebounce time.Duration
}

// RunHTTP runs the HTTP front-end until ctx is canceled. It implements HTTPBackend.
func (b *Backends) RunHTTP(ctx context.Context, t HTTPTransport) error {
	logger := b.logger()

	executor, eps, unregisterMetrics, err := b.prepareActions(t.ActionPackage, t.EndpointsPath)
	if err != nil {
		return err
	}
	defer unregisterMetrics()

	cfg := httpserver.NewDefaultConfig()
	if err = b.configLoader().Load(cfg); err != nil {
		return fmt.Errorf("load HTTP server configuration: %w", err)
	}
	cfg.Port = t.Port
	cfg.TLS = t.TLS
	cfg.CORSOrigins = t.CORSOrigins

	if err = checkTLSMaterial(t.TLS); err != nil {
		return err
	}
	ln, err := b.listen(t.Port)
	if err != nil {
		return err
	}
	srv, err := httpserver.New(cfg, logger, httpserver.Opts{Runner: executor, Endpoints: eps, Listener: ln})
	if err != nil {
		_ = ln.Close()
		return err
	}

	var unit service.Unit = srv
	if t.AutoReload && executor.PackageName() != "" {
		reloader := action.NewReloader(executor, executor.WatchPaths(), logger, action.ReloaderOpts{Debounce: b.ReloadDebounce})
		unit = service.NewCompositeUnit(srv, service.NewWorkerUnit(reloader))
		logger.Info("auto-reload of the action package is enabled", log.Strings("paths", executor.WatchPaths()))
	}
	if unit, err = b.withProfServer(unit); err != nil {
		_ = ln.Close()
		return err
	}
	return service.New(logger, unit).Start(ctx)
}

// RunGRPC runs the gRPC front-end until ctx is canceled. It implements GRPCBackend.
func (b *Backends) RunGRPC(ctx context.Context, t GRPCTransport) error {
	logger := b.logger()

	executor, eps, unregisterMetrics, err := b.prepareActions(t.ActionPackage, t.EndpointsPath)
	if err != nil {
		return err
	}
	defer unregisterMetrics()

	cfg := grpcserver.NewDefaultConfig()
	if err = b.configLoader().Load(cfg); err != nil {
		return fmt.Errorf("load gRPC server configuration: %w", err)
	}
	cfg.Port = t.Port
	cfg.TLS = t.TLS

	if err = checkTLSMaterial(t.TLS); err != nil {
		return err
	}
	ln, err := b.listen(t.Port)
	if err != nil {
		return err
	}
	srv, err := grpcserver.New(cfg, logger, grpcserver.Opts{Runner: executor, Endpoints: eps, Listener: ln})
	if err != nil {
		_ = ln.Close()
		return err
	}
	unit, err := b.withProfServer(srv)
	if err != nil {
		_ = ln.Close()
		return err
	}
	return service.New(logger, unit).Start(ctx)
}

// checkTLSMaterial loads the certificate and the key, so broken TLS material is reported before the port is opened.
func checkTLSMaterial(m TLSMaterial) error {
	_, err := m.ServerConfig()
	return err
}

// withProfServer adds the profiling server to the unit if it's enabled (ACTION_SERVER_PROFSERVER_ENABLED=true).
func (b *Backends) withProfServer(unit service.Unit) (service.Unit, error) {
	cfg := profserver.NewConfig()
	if err := b.configLoader().Load(cfg); err != nil {
		return nil, fmt.Errorf("load profiling server configuration: %w", err)
	}
	if !cfg.Enabled {
		return unit, nil
	}
	return service.NewCompositeUnit(unit, profserver.New(cfg, b.logger())), nil
}

func (b *Backends) prepareActions(
	packageName, endpointsPath string,
) (executor *action.Executor, eps *endpoints.Config, unregisterMetrics func(), err error) {
	logger := b.logger()

	if eps, err = endpoints.Load(endpointsPath, logger); err != nil {
		return nil, nil, nil, err
	}

	metrics := action.NewPrometheusMetrics()
	executor = action.NewExecutor(packageName, logger, action.ExecutorOpts{Registry: b.Registry, Metrics: metrics})
	if err = executor.Load(); err != nil {
		return nil, nil, nil, fmt.Errorf("load action package: %w", err)
	}
	metrics.MustRegister()
	return executor, eps, metrics.Unregister, nil
}

func (b *Backends) logger() log.FieldLogger {
	if b.Logger == nil {
		return log.NewDisabledLogger()
	}
	return b.Logger
}

func (b *Backends) configLoader() *config.Loader {
	if b.ConfigLoader == nil {
		return config.NewDefaultLoader(EnvVarsPrefix)
	}
	return b.ConfigLoader
}

func (b *Backends) listen(port int) (net.Listener, error) {
	if b.Listen != nil {
		return b.Listen(port)
	}
	return netutil.ListenPort(port)
}
