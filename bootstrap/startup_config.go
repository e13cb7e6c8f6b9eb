/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bootstrap

import (
	"fmt"
	"strings"

	"github.com/acronis/go-actionserver/internal/tlsutil"
	"github.com/acronis/go-actionserver/log"
)

const maxPort = 65535

// TLSMaterial contains paths to the certificate and the private key and the key password.
// It's passed to the backends as is and checked only when the server is created.
type TLSMaterial = tlsutil.Material

// LoggingOpts contains the validated logging options.
type LoggingOpts struct {
	Level      log.Level
	FilePath   string
	ConfigFile string
}

// StartupConfig is the validated configuration of the action server process.
type StartupConfig struct {
	ActionPackage string // dotted reference, empty if no package should be loaded
	Port          int
	CORSOrigins   []string // nil if CORS is disabled
	TLS           TLSMaterial
	AutoReload    bool
	EndpointsPath string
	Logging       LoggingOpts
	UseGRPC       bool
}

// Validate checks the raw startup options and builds StartupConfig.
// It doesn't touch the file system and network.
func Validate(raw RawArgs) (StartupConfig, error) {
	if err := validateActionPackage(raw.Actions); err != nil {
		return StartupConfig{}, err
	}
	if err := validatePort(raw.Port); err != nil {
		return StartupConfig{}, err
	}

	level := log.LevelInfo
	if raw.LogLevel != "" {
		var err error
		if level, err = log.ParseLevel(raw.LogLevel); err != nil {
			return StartupConfig{}, &ConfigError{Option: flagLogLevel, Err: fmt.Errorf("%w: %v", ErrInvalidLogLevel, err)}
		}
	}

	var corsOrigins []string
	if raw.CORS != nil {
		corsOrigins = append(make([]string, 0, len(raw.CORS)), raw.CORS...)
	}

	return StartupConfig{
		ActionPackage: raw.Actions,
		Port:          raw.Port,
		CORSOrigins:   corsOrigins,
		TLS: TLSMaterial{
			CertFile:    raw.SSLCertificate,
			KeyFile:     raw.SSLKeyfile,
			KeyPassword: raw.SSLPassword,
		},
		AutoReload:    raw.AutoReload,
		EndpointsPath: raw.Endpoints,
		Logging: LoggingOpts{
			Level:      level,
			FilePath:   raw.LogFile,
			ConfigFile: raw.LoggingConfigFile,
		},
		UseGRPC: raw.GRPC,
	}, nil
}

// Transport returns the front-end variant selected by the configuration.
func (c StartupConfig) Transport() Transport {
	if c.UseGRPC {
		return GRPCTransport{
			ActionPackage: c.ActionPackage,
			Port:          c.Port,
			TLS:           c.TLS,
			EndpointsPath: c.EndpointsPath,
		}
	}
	return HTTPTransport{
		ActionPackage: c.ActionPackage,
		Port:          c.Port,
		CORSOrigins:   c.CORSOrigins,
		TLS:           c.TLS,
		AutoReload:    c.AutoReload,
		EndpointsPath: c.EndpointsPath,
	}
}

// check repeats the invariants of Validate for configurations that were built by hand.
func (c StartupConfig) check() error {
	if err := validateActionPackage(c.ActionPackage); err != nil {
		return err
	}
	return validatePort(c.Port)
}

func validateActionPackage(ref string) error {
	if strings.Contains(ref, "/") {
		return &ConfigError{Option: flagActions, Err: ErrInvalidActionReference}
	}
	return nil
}

func validatePort(port int) error {
	if port < 0 || port > maxPort {
		return &ConfigError{Option: flagPort, Err: fmt.Errorf("%w, got %d", ErrInvalidPort, port)}
	}
	return nil
}
