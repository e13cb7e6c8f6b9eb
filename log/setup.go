/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/grpc/grpclog"

	"github.com/acronis/go-actionserver/config"
)

// Logging setup errors.
var (
	ErrLogFileUnwritable = errors.New("log file is not writable")
	ErrInvalidConfigFile = errors.New("invalid logging configuration file")
)

// SetupError describes a logging destination that could not be attached.
// The logger returned together with this error is still usable and writes to the console.
type SetupError struct {
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("logging destination %q: %v", e.Path, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// SetupOpts contains options for configuring process-wide logging.
type SetupOpts struct {
	// Level is used for the console and for the log file. Info is used if empty.
	Level Level

	// FilePath is a path of the file where logs are additionally written in JSON format.
	FilePath string

	// ConfigFile is a path to YAML file with the Config (under the "log" key)
	// describing the additional destination. It takes precedence over FilePath.
	ConfigFile string

	// Console is where colored text logs are written. os.Stderr is used if nil.
	Console io.Writer
	NoColor bool
}

// Setup configures logging once per process.
type Setup struct {
	mu      sync.RWMutex
	logger  FieldLogger
	closers []CloseFunc
}

// DefaultSetup is the process-wide logging setup.
var DefaultSetup = &Setup{}

// Configure builds the logger with the console destination and, optionally, a file destination.
// It also routes the gRPC library logs into this logger with the level capped at "warn".
// If the setup was already configured, the same logger is returned and nothing is attached.
// *SetupError is returned with a console-only logger when the additional destination cannot be used.
func (s *Setup) Configure(opts SetupOpts) (FieldLogger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger != nil {
		return s.logger, nil
	}

	level := opts.Level
	if level == "" {
		level = LevelInfo
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleCfg := &Config{Level: level, Format: FormatText, NoColor: opts.NoColor}
	consoleCfg.Error.VerboseSuffix = defaultErrorVerboseSuffix
	consoleDest, closeConsole := newDestination(level, makeLogfAppenderWithWriter(consoleCfg, console))
	s.closers = append(s.closers, closeConsole)
	dests := []destination{consoleDest}

	extraCfg, setupErr := makeExtraDestinationConfig(opts, level)
	addCaller := false
	if extraCfg != nil {
		extraDest, closeExtra := newDestination(extraCfg.Level, makeLogfAppender(extraCfg))
		s.closers = append(s.closers, closeExtra)
		dests = append(dests, extraDest)
		addCaller = extraCfg.AddCaller
	}

	s.logger = newLogger(dests, addCaller)
	grpclog.SetLoggerV2(&grpcLogger{setup: s, logger: s.logger.WithLevel(LevelWarn)})

	if setupErr != nil {
		s.logger.Error("failed to attach logging destination, logging to console only", Error(setupErr))
		return s.logger, setupErr
	}
	return s.logger, nil
}

// Logger returns the configured logger or a disabled one if Configure was not called.
func (s *Setup) Logger() FieldLogger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return NewDisabledLogger()
	}
	return s.logger
}

// Close flushes and closes all destinations. After that the setup may be configured again.
// The logger returned by Configure must not be used after Close.
func (s *Setup) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, closeFn := range s.closers {
		closeFn()
	}
	s.closers = nil
	s.logger = nil
}

func makeExtraDestinationConfig(opts SetupOpts, level Level) (*Config, error) {
	if opts.ConfigFile != "" {
		cfg := NewConfig()
		loader := config.NewLoader(config.NewViperAdapter())
		if err := loader.LoadFromFile(opts.ConfigFile, config.DataTypeYAML, cfg); err != nil {
			return nil, &SetupError{Path: opts.ConfigFile, Err: fmt.Errorf("%w: %v", ErrInvalidConfigFile, err)}
		}
		if cfg.Output == OutputFile {
			if err := probeLogFile(resolvePlaceholders(cfg.File.Path)); err != nil {
				return nil, err
			}
		}
		return cfg, nil
	}

	if opts.FilePath != "" {
		if err := probeLogFile(resolvePlaceholders(opts.FilePath)); err != nil {
			return nil, err
		}
		cfg := NewDefaultConfig()
		cfg.Level = level
		cfg.Output = OutputFile
		cfg.File.Path = opts.FilePath
		return cfg, nil
	}

	return nil, nil
}

func probeLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &SetupError{Path: path, Err: fmt.Errorf("%w: %v", ErrLogFileUnwritable, err)}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return &SetupError{Path: path, Err: fmt.Errorf("%w: %v", ErrLogFileUnwritable, err)}
	}
	return f.Close()
}
