//go:build !windows

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-actionserver/log/logtest"
)

func TestShutdownHandler_RealSignals(t *testing.T) {
	logRecorder := logtest.NewRecorder()
	h := NewShutdownHandler(logRecorder)
	defer h.Stop()

	ctx := h.Install(context.Background())
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	select {
	case <-ctx.Done():
	case <-time.After(time.Second * 3):
		require.Fail(t, "context should be canceled after SIGTERM")
	}

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))
	require.NoError(t, waitTrue(func() bool {
		return len(logRecorder.EntriesWithText("shutdown is already in progress")) == 1
	}, time.Second*3))
	require.Len(t, logRecorder.EntriesWithText("received SIGTERM, exiting"), 1)
}
