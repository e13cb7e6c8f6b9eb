/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-actionserver/log/logtest"
)

func TestService_Start(t *testing.T) {
	ctx, ctxCancel := context.WithCancel(context.Background())
	defer ctxCancel()

	logRecorder := logtest.NewRecorder()
	var runningCounter int32
	unit := newBlockingUnit("srv", &runningCounter)
	service := New(logRecorder, unit)
	startErr := make(chan error, 1)
	go func() {
		startErr <- service.Start(ctx)
	}()
	require.NoError(t, waitTrue(func() bool { return atomic.LoadInt32(&runningCounter) == 1 }, time.Second*3))

	ctxCancel()

	require.NoError(t, <-startErr)
	require.NoError(t, waitTrue(func() bool { return atomic.LoadInt32(&runningCounter) == 0 }, time.Second*3))
	require.Equal(t, int32(1), atomic.LoadInt32(&unit.registerCalls))
	require.Equal(t, int32(1), atomic.LoadInt32(&unit.unregisterCalls))
	require.Equal(t, int32(1), atomic.LoadInt32(&unit.gracefulStopCalls))
	_, found := logRecorder.FindEntry("context is canceled, service will be stopped")
	require.True(t, found)
}

func TestService_StartWithFatalError(t *testing.T) {
	errServe := errors.New("serve failed")
	var stopCalls int32
	unit := &funcUnit{
		start: func(fatalErr chan<- error) { fatalErr <- errServe },
		stop: func(gracefully bool) error {
			atomic.AddInt32(&stopCalls, 1)
			require.False(t, gracefully)
			return nil
		},
	}

	logRecorder := logtest.NewRecorder()
	err := New(logRecorder, unit).Start(context.Background())
	require.ErrorIs(t, err, errServe)
	require.Equal(t, int32(1), atomic.LoadInt32(&stopCalls))
	_, found := logRecorder.FindEntry("service fatal error")
	require.True(t, found)
}

type funcUnit struct {
	start func(fatalErr chan<- error)
	stop  func(gracefully bool) error
}

func (u *funcUnit) Start(fatalErr chan<- error) { u.start(fatalErr) }

func (u *funcUnit) Stop(gracefully bool) error { return u.stop(gracefully) }
