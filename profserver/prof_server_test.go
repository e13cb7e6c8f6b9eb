/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package profserver

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-actionserver/config"
	"github.com/acronis/go-actionserver/log/logtest"
	"github.com/acronis/go-actionserver/netutil"
	"github.com/acronis/go-actionserver/testutil"
)

func TestConfig(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, config.NewLoader(config.NewViperAdapter()).LoadFromReader(
		bytes.NewBufferString("other: 1\n"), config.DataTypeYAML, cfg))
	require.False(t, cfg.Enabled)
	require.Equal(t, DefaultAddress, cfg.Address)

	t.Setenv("ACTION_SERVER_PROFSERVER_ENABLED", "true")
	t.Setenv("ACTION_SERVER_PROFSERVER_ADDRESS", "127.0.0.1:7070")
	cfg = NewConfig()
	require.NoError(t, config.NewDefaultLoader("action_server").Load(cfg))
	require.True(t, cfg.Enabled)
	require.Equal(t, "127.0.0.1:7070", cfg.Address)

	t.Setenv("ACTION_SERVER_PROFSERVER_ENABLED", "sometimes")
	require.Error(t, config.NewDefaultLoader("action_server").Load(NewConfig()))
}

func TestProfServer_Start(t *testing.T) {
	profServer := New(&Config{Address: "127.0.0.1:0"}, logtest.NewRecorder())
	fatalErr := make(chan error, 1)
	go profServer.Start(fatalErr)
	require.Eventually(t, func() bool { return profServer.URL() != "" }, time.Second*3, time.Millisecond*10)
	defer func() {
		require.NoError(t, profServer.Stop(false))
		testutil.RequireNoErrorInChannel(t, fatalErr)
	}()

	resp, err := http.Get(profServer.URL() + "/debug/pprof/")
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotEmpty(t, respBody)
}

func TestProfServer_BindFailure(t *testing.T) {
	busy, err := netutil.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()

	profServer := New(&Config{Address: busy.Addr().String()}, logtest.NewRecorder())
	fatalErr := make(chan error, 1)
	profServer.Start(fatalErr)
	require.ErrorIs(t, <-fatalErr, netutil.ErrBindFailure)
	require.NoError(t, profServer.Stop(false))
}
