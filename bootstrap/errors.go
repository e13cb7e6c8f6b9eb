/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bootstrap

import (
	"errors"
	"fmt"

	"github.com/acronis/go-actionserver/endpoints"
	"github.com/acronis/go-actionserver/internal/tlsutil"
	"github.com/acronis/go-actionserver/netutil"
)

// Startup errors.
var (
	ErrInvalidActionReference = errors.New("Invalid actions format. Actions should be a module reference " + //nolint:stylecheck // shown to the user as is
		"passed with dotted notation (e.g. directory.actions)")
	ErrInvalidPort       = errors.New("port must be in range 0..65535")
	ErrInvalidLogLevel   = errors.New("unknown log level")
	ErrInvalidArguments  = errors.New("invalid arguments")
	ErrAlreadyDispatched = errors.New("transport is already dispatched")
)

// ErrInvalidTLSMaterial is returned by the backends when the TLS certificate, key or password cannot be used.
var ErrInvalidTLSMaterial = tlsutil.ErrInvalidTLSMaterial

// ErrBindFailure is returned by the backends when the listening socket cannot be opened.
var ErrBindFailure = netutil.ErrBindFailure

// ConfigError describes the startup option with an invalid value.
type ConfigError struct {
	Option string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("option --%s: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Process exit codes.
const (
	ExitCodeOK           = 0
	ExitCodeRuntimeError = 1
	ExitCodeConfigError  = 2
)

// ExitCode maps the error returned by the startup sequence to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeOK
	}
	if IsConfigError(err) {
		return ExitCodeConfigError
	}
	return ExitCodeRuntimeError
}

// IsConfigError reports whether the error is caused by the user-provided configuration
// (startup options, TLS material or the endpoints file).
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr) ||
		errors.Is(err, ErrInvalidArguments) ||
		errors.Is(err, ErrInvalidTLSMaterial) ||
		errors.Is(err, endpoints.ErrInvalidConfig)
}
