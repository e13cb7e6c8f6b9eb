/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package endpoints loads the endpoints configuration file (endpoints.yml)
// that describes the services the actions may talk to.
package endpoints

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/acronis/go-actionserver/config"
	"github.com/acronis/go-actionserver/log"
)

// DefaultPath is the default location of the endpoints configuration file.
const DefaultPath = "endpoints.yml"

// ErrInvalidConfig is returned when the endpoints file exists but cannot be parsed.
var ErrInvalidConfig = errors.New("invalid endpoints configuration")

const (
	cfgKeyType = "type"
	cfgKeyURL  = "url"
)

// EndpointConfig describes a single remote endpoint.
// Options contains all keys of the section, including "type" and "url".
type EndpointConfig struct {
	Type    string
	URL     string
	Options map[string]interface{}

	keyPrefix string
}

var _ config.Config = (*EndpointConfig)(nil)
var _ config.KeyPrefixProvider = (*EndpointConfig)(nil)

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *EndpointConfig) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults is a part of config.Config interface.
func (c *EndpointConfig) SetProviderDefaults(_ config.DataProvider) {}

// Set sets endpoint configuration values from config.DataProvider.
func (c *EndpointConfig) Set(dp config.DataProvider) (err error) {
	if c.Type, err = dp.GetString(cfgKeyType); err != nil {
		return err
	}
	if c.URL, err = dp.GetString(cfgKeyURL); err != nil {
		return err
	}
	c.Options = nil
	var opts map[string]interface{}
	if err = dp.Unmarshal(&opts); err != nil {
		return err
	}
	if len(opts) != 0 {
		c.Options = opts
	}
	return nil
}

// IsSet reports whether the endpoint is configured.
func (c *EndpointConfig) IsSet() bool {
	return c != nil && (c.URL != "" || c.Type != "" || len(c.Options) != 0)
}

// Config is the content of the endpoints file.
type Config struct {
	TrackerStore   *EndpointConfig
	NLU            *EndpointConfig
	ActionEndpoint *EndpointConfig
}

var _ config.Config = (*Config)(nil)

// NewConfig creates a new empty Config.
func NewConfig() *Config {
	return &Config{
		TrackerStore:   &EndpointConfig{keyPrefix: "tracker_store"},
		NLU:            &EndpointConfig{keyPrefix: "nlu"},
		ActionEndpoint: &EndpointConfig{keyPrefix: "action_endpoint"},
	}
}

// SetProviderDefaults is a part of config.Config interface.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
}

// Set is a part of config.Config interface.
func (c *Config) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}

// Load reads the endpoints file. A missing file is not an error: the empty configuration is returned.
func Load(path string, logger log.FieldLogger) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			logger.Info("endpoints file is not found, using empty endpoints configuration", log.String("path", path))
			return cfg, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := config.NewLoader(config.NewViperAdapter()).LoadFromFile(path, config.DataTypeYAML, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	logger.Info("endpoints configuration is loaded", log.String("path", path))
	return cfg, nil
}

type ctxKey int

const ctxKeyConfig ctxKey = iota

// NewContext returns a new context that carries the endpoints configuration.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKeyConfig, cfg)
}

// FromContext returns the endpoints configuration from the context or an empty one.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKeyConfig).(*Config); ok && cfg != nil {
		return cfg
	}
	return NewConfig()
}
