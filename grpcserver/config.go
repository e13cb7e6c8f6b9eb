/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package grpcserver

import (
	"fmt"
	"time"

	"github.com/acronis/go-actionserver/config"
	"github.com/acronis/go-actionserver/internal/tlsutil"
)

const cfgDefaultKeyPrefix = "grpc"

const (
	cfgKeyServerShutdownTimeout      = "timeouts.shutdown"
	cfgKeyServerKeepaliveTime        = "keepalive.time"
	cfgKeyServerKeepaliveTimeout     = "keepalive.timeout"
	cfgKeyServerKeepaliveMinTime     = "keepalive.minTime"
	cfgKeyServerMaxConcurrentStreams = "limits.maxConcurrentStreams"
	cfgKeyServerMaxRecvMessageSize   = "limits.maxRecvMessageSize"
	cfgKeyServerMaxSendMessageSize   = "limits.maxSendMessageSize"
	cfgKeyServerLogCallStart         = "log.callStart"
	cfgKeyServerLogExcludedMethods   = "log.excludedMethods"
	cfgKeyServerLogSlowCallThreshold = "log.slowCallThreshold"
)

const (
	defaultServerShutdownTimeout    = time.Second * 5
	defaultServerKeepaliveTime      = time.Minute * 2
	defaultServerKeepaliveTimeout   = time.Second * 20
	defaultServerMaxRecvMessageSize = 1024 * 1024 * 4 // 4MB
	defaultServerMaxSendMessageSize = 1024 * 1024 * 4 // 4MB
	defaultSlowCallThreshold        = time.Second
)

// Config represents a set of configuration parameters for GRPCServer.
// Port and TLS come from the command line, the rest may be tuned with config.Loader
// (e.g., ACTION_SERVER_GRPC_LIMITS_MAXRECVMESSAGESIZE=16M).
type Config struct {
	Port int              `mapstructure:"-" yaml:"-" json:"-"`
	TLS  tlsutil.Material `mapstructure:"-" yaml:"-" json:"-"`

	Timeouts  TimeoutsConfig  `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
	Keepalive KeepaliveConfig `mapstructure:"keepalive" yaml:"keepalive" json:"keepalive"`
	Limits    LimitsConfig    `mapstructure:"limits" yaml:"limits" json:"limits"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.Timeouts = TimeoutsConfig{Shutdown: config.TimeDuration(defaultServerShutdownTimeout)}
	cfg.Keepalive = KeepaliveConfig{
		Time:    config.TimeDuration(defaultServerKeepaliveTime),
		Timeout: config.TimeDuration(defaultServerKeepaliveTimeout),
	}
	cfg.Limits = LimitsConfig{
		MaxRecvMessageSize: config.ByteSize(defaultServerMaxRecvMessageSize),
		MaxSendMessageSize: config.ByteSize(defaultServerMaxSendMessageSize),
	}
	cfg.Log = LogConfig{SlowCallThreshold: config.TimeDuration(defaultSlowCallThreshold)}
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// Address returns the TCP address the server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SetProviderDefaults sets default configuration values for GRPCServer in config.DataProvider.
// Implements config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyServerShutdownTimeout, defaultServerShutdownTimeout)
	dp.SetDefault(cfgKeyServerKeepaliveTime, defaultServerKeepaliveTime)
	dp.SetDefault(cfgKeyServerKeepaliveTimeout, defaultServerKeepaliveTimeout)
	dp.SetDefault(cfgKeyServerMaxRecvMessageSize, defaultServerMaxRecvMessageSize)
	dp.SetDefault(cfgKeyServerMaxSendMessageSize, defaultServerMaxSendMessageSize)
	dp.SetDefault(cfgKeyServerLogCallStart, false)
	dp.SetDefault(cfgKeyServerLogSlowCallThreshold, defaultSlowCallThreshold)
}

// Set sets GRPCServer configuration values from config.DataProvider.
// Implements config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	if err := c.Timeouts.Set(dp); err != nil {
		return err
	}
	if err := c.Keepalive.Set(dp); err != nil {
		return err
	}
	if err := c.Limits.Set(dp); err != nil {
		return err
	}
	return c.Log.Set(dp)
}

// TimeoutsConfig represents a set of configuration parameters for GRPCServer relating to timeouts.
type TimeoutsConfig struct {
	Shutdown config.TimeDuration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
}

// Set sets timeout server configuration values from config.DataProvider.
func (t *TimeoutsConfig) Set(dp config.DataProvider) error {
	dur, err := dp.GetDuration(cfgKeyServerShutdownTimeout)
	if err != nil {
		return err
	}
	if dur < 0 {
		return dp.WrapKeyErr(cfgKeyServerShutdownTimeout, fmt.Errorf("cannot be negative"))
	}
	t.Shutdown = config.TimeDuration(dur)
	return nil
}

// KeepaliveConfig represents a set of configuration parameters for GRPCServer relating to keepalive.
type KeepaliveConfig struct {
	Time    config.TimeDuration `mapstructure:"time" yaml:"time" json:"time"`
	Timeout config.TimeDuration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	MinTime config.TimeDuration `mapstructure:"minTime" yaml:"minTime" json:"minTime"`
}

// Set sets keepalive server configuration values from config.DataProvider.
func (k *KeepaliveConfig) Set(dp config.DataProvider) error {
	for _, item := range []struct {
		key string
		dst *config.TimeDuration
	}{
		{cfgKeyServerKeepaliveTime, &k.Time},
		{cfgKeyServerKeepaliveTimeout, &k.Timeout},
		{cfgKeyServerKeepaliveMinTime, &k.MinTime},
	} {
		dur, err := dp.GetDuration(item.key)
		if err != nil {
			return err
		}
		*item.dst = config.TimeDuration(dur)
	}
	return nil
}

// LimitsConfig represents a set of configuration parameters for GRPCServer relating to limits.
type LimitsConfig struct {
	// MaxConcurrentStreams is the maximum number of concurrent streams per connection. Zero means no limit.
	MaxConcurrentStreams uint32 `mapstructure:"maxConcurrentStreams" yaml:"maxConcurrentStreams" json:"maxConcurrentStreams"`

	// MaxRecvMessageSize is the maximum size of a received webhook message.
	MaxRecvMessageSize config.ByteSize `mapstructure:"maxRecvMessageSize" yaml:"maxRecvMessageSize" json:"maxRecvMessageSize"`

	// MaxSendMessageSize is the maximum size of a sent message.
	MaxSendMessageSize config.ByteSize `mapstructure:"maxSendMessageSize" yaml:"maxSendMessageSize" json:"maxSendMessageSize"`
}

// Set sets limit server configuration values from config.DataProvider.
func (l *LimitsConfig) Set(dp config.DataProvider) error {
	maxConcurrentStreams, err := dp.GetInt(cfgKeyServerMaxConcurrentStreams)
	if err != nil {
		return err
	}
	if maxConcurrentStreams < 0 {
		return dp.WrapKeyErr(cfgKeyServerMaxConcurrentStreams, fmt.Errorf("cannot be negative"))
	}
	l.MaxConcurrentStreams = uint32(maxConcurrentStreams) //nolint:gosec // validated non-negative above

	if l.MaxRecvMessageSize, err = dp.GetByteSize(cfgKeyServerMaxRecvMessageSize); err != nil {
		return err
	}
	if l.MaxSendMessageSize, err = dp.GetByteSize(cfgKeyServerMaxSendMessageSize); err != nil {
		return err
	}
	return nil
}

// LogConfig represents a set of configuration parameters for GRPCServer relating to logging.
type LogConfig struct {
	CallStart         bool                `mapstructure:"callStart" yaml:"callStart" json:"callStart"`
	ExcludedMethods   []string            `mapstructure:"excludedMethods" yaml:"excludedMethods" json:"excludedMethods"`
	SlowCallThreshold config.TimeDuration `mapstructure:"slowCallThreshold" yaml:"slowCallThreshold" json:"slowCallThreshold"`
}

// Set sets log server configuration values from config.DataProvider.
func (l *LogConfig) Set(dp config.DataProvider) error {
	var err error
	if l.CallStart, err = dp.GetBool(cfgKeyServerLogCallStart); err != nil {
		return err
	}
	if l.ExcludedMethods, err = dp.GetStringSlice(cfgKeyServerLogExcludedMethods); err != nil {
		return err
	}
	var dur time.Duration
	if dur, err = dp.GetDuration(cfgKeyServerLogSlowCallThreshold); err != nil {
		return err
	}
	l.SlowCallThreshold = config.TimeDuration(dur)
	return nil
}
