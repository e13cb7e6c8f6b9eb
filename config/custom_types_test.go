/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestByteSize_Unmarshal(t *testing.T) {
	var cfg struct {
		Size ByteSize `json:"size" yaml:"size"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"size":"10MB"}`), &cfg))
	require.Equal(t, ByteSize(10*1024*1024), cfg.Size)

	require.NoError(t, yaml.Unmarshal([]byte("size: 2048"), &cfg))
	require.Equal(t, ByteSize(2048), cfg.Size)

	require.Error(t, json.Unmarshal([]byte(`{"size":-1}`), &cfg))
	require.Error(t, yaml.Unmarshal([]byte("size: lots"), &cfg))
}

func TestByteSize_Marshal(t *testing.T) {
	data, err := json.Marshal(ByteSize(5 * 1024 * 1024))
	require.NoError(t, err)
	require.Equal(t, `"5M"`, string(data))
}

func TestTimeDuration_Unmarshal(t *testing.T) {
	var cfg struct {
		Timeout TimeDuration `json:"timeout" yaml:"timeout"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"timeout":"5s"}`), &cfg))
	require.Equal(t, TimeDuration(5*time.Second), cfg.Timeout)

	require.NoError(t, yaml.Unmarshal([]byte("timeout: 1m"), &cfg))
	require.Equal(t, TimeDuration(time.Minute), cfg.Timeout)

	require.Error(t, yaml.Unmarshal([]byte("timeout: soon"), &cfg))
	require.Equal(t, "1m0s", cfg.Timeout.String())
}
