/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/acronis/go-actionserver/action"
	"github.com/acronis/go-actionserver/internal/libinfo"
	"github.com/acronis/go-actionserver/log"
	"github.com/acronis/go-actionserver/service"
)

// App is the action server process.
type App struct {
	// Stdout receives the usage message. os.Stdout is used if nil.
	Stdout io.Writer
	// Stderr receives the argument errors and the console logs. os.Stderr is used if nil.
	Stderr io.Writer

	// LogSetup configures logging. log.DefaultSetup is used if nil.
	LogSetup *log.Setup
	// Registry is used for resolving the action package. action.DefaultRegistry is used if nil.
	Registry *action.Registry
	// Listen opens the listening socket of the front-end. netutil.ListenPort is used if nil.
	Listen func(port int) (net.Listener, error)
	// Shutdown turns OS signals into the context cancellation.
	// Handler for SIGINT and SIGTERM is created if nil.
	Shutdown *service.ShutdownHandler

	dispatcher *Dispatcher
}

// Main runs the action server with the command line arguments of the process and exits.
func Main() {
	os.Exit(new(App).Run(context.Background(), os.Args[1:]))
}

// Run starts the action server and blocks until it's stopped. It returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	stdout, stderr := a.Stdout, a.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	raw, err := ParseArgs(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n\n%s", err, Usage())
		return ExitCode(err)
	}
	if raw.Help {
		_, _ = fmt.Fprint(stdout, Usage())
		return ExitCodeOK
	}
	cfg, err := Validate(raw)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitCode(err)
	}

	logSetup := a.LogSetup
	if logSetup == nil {
		logSetup = log.DefaultSetup
	}
	// The setup error is already logged to the console, the server keeps running.
	logger, _ := logSetup.Configure(log.SetupOpts{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		ConfigFile: cfg.Logging.ConfigFile,
		Console:    stderr,
	})
	defer logSetup.Close()

	shutdown := a.Shutdown
	if shutdown == nil {
		shutdown = service.NewShutdownHandler(logger)
	}
	ctx = shutdown.Install(ctx)
	defer shutdown.Stop()

	logger.Info("starting action endpoint server",
		log.String("version", libinfo.Version()),
		log.String("transport", cfg.Transport().Name()),
		log.String("actions", cfg.ActionPackage),
	)

	backends := &Backends{Logger: logger, Registry: a.Registry, Listen: a.Listen}
	a.dispatcher = NewDispatcher(backends.RunHTTP, backends.RunGRPC)
	if err = a.dispatcher.Dispatch(ctx, cfg); err != nil {
		logger.Error("action server failed", log.Error(err))
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return ExitCode(err)
	}
	logger.Info("action server is stopped")
	return ExitCodeOK
}
