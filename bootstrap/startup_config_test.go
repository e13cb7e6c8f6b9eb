/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bootstrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-actionserver/log"
)

func TestValidate_ActionReference(t *testing.T) {
	t.Run("slash is rejected", func(t *testing.T) {
		for _, ref := range []string{"a/b", "/actions", "actions/", "bot/actions.py", "/"} {
			_, err := Validate(RawArgs{Actions: ref, Port: DefaultServerPort})
			require.ErrorIs(t, err, ErrInvalidActionReference, ref)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			require.Equal(t, "actions", cfgErr.Option)
			require.Contains(t, err.Error(),
				"Invalid actions format. Actions should be a module reference passed with dotted notation (e.g. directory.actions)")
		}
	})

	t.Run("dotted reference is kept unchanged", func(t *testing.T) {
		for _, ref := range []string{"", "actions", "bot.actions", "my_bot.custom.actions", "a..b", "пакет.действия"} {
			cfg, err := Validate(RawArgs{Actions: ref, Port: DefaultServerPort})
			require.NoError(t, err, ref)
			require.Equal(t, ref, cfg.ActionPackage)
		}
	})
}

func TestValidate_Port(t *testing.T) {
	for _, port := range []int{0, 1, DefaultServerPort, 65535} {
		cfg, err := Validate(RawArgs{Port: port})
		require.NoError(t, err)
		require.Equal(t, port, cfg.Port)
	}
	for _, port := range []int{-1, 65536, 100000} {
		_, err := Validate(RawArgs{Port: port})
		require.ErrorIs(t, err, ErrInvalidPort)
		require.True(t, IsConfigError(err))
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg, err := Validate(RawArgs{Port: DefaultServerPort})
	require.NoError(t, err)
	require.Equal(t, log.LevelInfo, cfg.Logging.Level)

	cfg, err = Validate(RawArgs{Port: DefaultServerPort, LogLevel: "DEBUG"})
	require.NoError(t, err)
	require.Equal(t, log.LevelDebug, cfg.Logging.Level)

	_, err = Validate(RawArgs{Port: DefaultServerPort, LogLevel: "verbose"})
	require.ErrorIs(t, err, ErrInvalidLogLevel)
	require.ErrorIs(t, err, log.ErrUnknownLevel)
}

func TestValidate_PassThrough(t *testing.T) {
	cors := []string{"https://example.com"}
	raw := RawArgs{
		Actions:           "bot.actions",
		Port:              5056,
		CORS:              cors,
		SSLKeyfile:        "missing-key.pem",
		SSLCertificate:    "missing-cert.pem",
		SSLPassword:       "secret",
		AutoReload:        true,
		Endpoints:         "endpoints.yml",
		GRPC:              true,
		LogLevel:          "warn",
		LogFile:           "action-server.log",
		LoggingConfigFile: "logging.yml",
	}
	cfg, err := Validate(raw)
	require.NoError(t, err)
	require.Equal(t, StartupConfig{
		ActionPackage: "bot.actions",
		Port:          5056,
		CORSOrigins:   []string{"https://example.com"},
		TLS:           TLSMaterial{CertFile: "missing-cert.pem", KeyFile: "missing-key.pem", KeyPassword: "secret"},
		AutoReload:    true,
		EndpointsPath: "endpoints.yml",
		Logging:       LoggingOpts{Level: log.LevelWarn, FilePath: "action-server.log", ConfigFile: "logging.yml"},
		UseGRPC:       true,
	}, cfg)

	// The config doesn't share memory with the raw arguments.
	cors[0] = "https://evil.example.com"
	require.Equal(t, []string{"https://example.com"}, cfg.CORSOrigins)

	// Validate is deterministic.
	cfg2, err := Validate(raw)
	require.NoError(t, err)
	require.Equal(t, cfg.TLS, cfg2.TLS)
}

func TestValidate_CORSNilIsKept(t *testing.T) {
	cfg, err := Validate(RawArgs{Port: DefaultServerPort})
	require.NoError(t, err)
	require.Nil(t, cfg.CORSOrigins)

	cfg, err = Validate(RawArgs{Port: DefaultServerPort, CORS: []string{}})
	require.NoError(t, err)
	require.NotNil(t, cfg.CORSOrigins)
	require.Empty(t, cfg.CORSOrigins)
}

func TestStartupConfig_Transport(t *testing.T) {
	cfg := StartupConfig{
		ActionPackage: "bot.actions",
		Port:          5055,
		CORSOrigins:   []string{"*"},
		TLS:           TLSMaterial{CertFile: "cert.pem", KeyFile: "key.pem"},
		AutoReload:    true,
		EndpointsPath: "endpoints.yml",
	}

	httpTransport, ok := cfg.Transport().(HTTPTransport)
	require.True(t, ok)
	require.Equal(t, "http", httpTransport.Name())
	require.Equal(t, HTTPTransport{
		ActionPackage: "bot.actions",
		Port:          5055,
		CORSOrigins:   []string{"*"},
		TLS:           TLSMaterial{CertFile: "cert.pem", KeyFile: "key.pem"},
		AutoReload:    true,
		EndpointsPath: "endpoints.yml",
	}, httpTransport)

	cfg.UseGRPC = true
	grpcTransport, ok := cfg.Transport().(GRPCTransport)
	require.True(t, ok)
	require.Equal(t, "grpc", grpcTransport.Name())
	require.Equal(t, GRPCTransport{
		ActionPackage: "bot.actions",
		Port:          5055,
		TLS:           TLSMaterial{CertFile: "cert.pem", KeyFile: "key.pem"},
		EndpointsPath: "endpoints.yml",
	}, grpcTransport)
}
