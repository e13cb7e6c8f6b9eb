/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("load config, use defaults", func(t *testing.T) {
		storeCfg := &testStoreConfig{keyPrefix: "tracker_store"}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, storeCfg)
		require.NoError(t, err)
		require.Equal(t, "in_memory", storeCfg.Type)
		require.Equal(t, 6379, storeCfg.Port)
	})

	t.Run("load config, use key prefix", func(t *testing.T) {
		storeCfg := &testStoreConfig{keyPrefix: "tracker_store"}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(testEndpointsConfigJSON), DataTypeJSON, storeCfg)
		require.NoError(t, err)
		require.Equal(t, "redis", storeCfg.Type)
		require.Equal(t, "localhost", storeCfg.URL)
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "endpoints.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testEndpointsConfigYAML), 0o600))

	storeCfg := &testStoreConfig{keyPrefix: "tracker_store"}
	require.NoError(t, NewLoader(NewViperAdapter()).LoadFromFile(cfgPath, DataTypeYAML, storeCfg))
	require.Equal(t, "redis", storeCfg.Type)

	err := NewLoader(NewViperAdapter()).LoadFromFile(
		filepath.Join(t.TempDir(), "missing.yml"), DataTypeYAML, &testStoreConfig{})
	require.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	va := NewViperAdapter()
	va.Set("tracker_store.url", "redis.local")

	storeCfg := &testStoreConfig{keyPrefix: "tracker_store"}
	require.NoError(t, NewLoader(va).Load(storeCfg))
	require.Equal(t, "redis.local", storeCfg.URL)
	require.Equal(t, "in_memory", storeCfg.Type)
}
