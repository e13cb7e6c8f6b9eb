/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-actionserver/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgData     string
		expectedCfg func() *Config
	}{
		{
			name:    "defaults",
			cfgData: "other: 1\n",
			expectedCfg: func() *Config {
				return NewDefaultConfig()
			},
		},
		{
			name: "yaml config",
			cfgData: `
http:
  timeouts:
    write: 1h
    read: 7m
    readHeader: 1m
    idle: 20m
    shutdown: 30s
  limits:
    maxBodySize: 1M
  log:
    requestStart: true
    slowRequestThreshold: 2s
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Timeouts.Write = config.TimeDuration(time.Hour)
				cfg.Timeouts.Read = config.TimeDuration(7 * time.Minute)
				cfg.Timeouts.ReadHeader = config.TimeDuration(time.Minute)
				cfg.Timeouts.Idle = config.TimeDuration(20 * time.Minute)
				cfg.Timeouts.Shutdown = config.TimeDuration(30 * time.Second)
				cfg.Limits.MaxBodySize = 1024 * 1024
				cfg.Log.RequestStart = true
				cfg.Log.SlowRequestThreshold = config.TimeDuration(2 * time.Second)
				return cfg
			},
		},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			require.NoError(t, err)
			require.Equal(t, tt.expectedCfg(), cfg)
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	require.Equal(t, cfgDefaultKeyPrefix, cfg.KeyPrefix())
	require.Equal(t, config.TimeDuration(defaultServerTimeoutsShutdown), cfg.Timeouts.Shutdown)
	require.Equal(t, defaultServerLimitsMaxBodySize, cfg.Limits.MaxBodySize)
	require.Equal(t, config.TimeDuration(time.Second), cfg.Log.SlowRequestThreshold)
	require.False(t, cfg.TLS.Enabled())
	require.Nil(t, cfg.CORSOrigins)

	cfg.Port = 5055
	require.Equal(t, ":5055", cfg.Address())
}

func TestConfig_EnvVars(t *testing.T) {
	t.Setenv("ACTION_SERVER_HTTP_TIMEOUTS_SHUTDOWN", "10s")
	t.Setenv("ACTION_SERVER_HTTP_LIMITS_MAXBODYSIZE", "512K")

	cfg := NewConfig()
	require.NoError(t, config.NewDefaultLoader("action_server").Load(cfg))
	require.Equal(t, config.TimeDuration(10*time.Second), cfg.Timeouts.Shutdown)
	require.Equal(t, config.ByteSize(512*1024), cfg.Limits.MaxBodySize)
	require.Equal(t, config.TimeDuration(defaultServerTimeoutsRead), cfg.Timeouts.Read)
}

func TestConfig_WithKeyPrefix(t *testing.T) {
	cfg := NewConfig(WithKeyPrefix("webhook"))
	require.Equal(t, "webhook", cfg.KeyPrefix())

	err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
		bytes.NewBufferString("webhook:\n  timeouts:\n    idle: 3m\n"), config.DataTypeYAML, cfg)
	require.NoError(t, err)
	require.Equal(t, config.TimeDuration(3*time.Minute), cfg.Timeouts.Idle)
}

func TestConfig_NegativeTimeout(t *testing.T) {
	cfg := NewConfig()
	err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
		bytes.NewBufferString("http:\n  timeouts:\n    read: -1s\n"), config.DataTypeYAML, cfg)
	require.EqualError(t, err, `http.timeouts.read: cannot be negative`)
}
