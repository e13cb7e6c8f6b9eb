/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import "io"

// Loader fills configuration objects (httpserver.Config, grpcserver.Config, endpoints.Config...)
// from the data provider. Defaults of all objects are registered before any value is read.
type Loader struct {
	DataProvider DataProvider
}

// NewDefaultLoader creates a loader that also reads environment variables with the given prefix
// ("action_server" makes "http.timeouts.shutdown" readable from ACTION_SERVER_HTTP_TIMEOUTS_SHUTDOWN).
func NewDefaultLoader(envVarsPrefix string) *Loader {
	va := NewViperAdapter()
	va.UseEnvVars(envVarsPrefix)
	return NewLoader(va)
}

// NewLoader creates a new configurations' loader.
func NewLoader(dp DataProvider) *Loader {
	return &Loader{DataProvider: dp}
}

// LoadFromFile reads the file into the data provider and loads the configuration objects.
func (l *Loader) LoadFromFile(path string, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromFile(path, dataType); err != nil {
		return err
	}
	return l.Load(cfg, cfgs...)
}

// LoadFromReader reads the data into the data provider and loads the configuration objects.
func (l *Loader) LoadFromReader(reader io.Reader, dataType DataType, cfg Config, cfgs ...Config) error {
	if err := l.DataProvider.SetFromReader(reader, dataType); err != nil {
		return err
	}
	return l.Load(cfg, cfgs...)
}

// Load loads the configuration objects from values that are already present in the data provider
// (flags, environment variables, overrides).
func (l *Loader) Load(cfg Config, cfgs ...Config) error {
	all := append([]Config{cfg}, cfgs...)
	dps := make([]DataProvider, len(all))
	for i, c := range all {
		dps[i] = l.DataProvider
		if kp, ok := c.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
			dps[i] = NewKeyPrefixedDataProvider(l.DataProvider, kp.KeyPrefix())
		}
		c.SetProviderDefaults(dps[i])
	}
	for i, c := range all {
		if err := c.Set(dps[i]); err != nil {
			return err
		}
	}
	return nil
}
