/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// blockingUnit runs until it's stopped, optionally failing right after the start or on stop.
type blockingUnit struct {
	name     string
	running  *int32
	startErr error
	stopErr  error

	stopOnce sync.Once
	stopped  chan struct{}

	stopCalls         int32
	gracefulStopCalls int32
	registerCalls     int32
	unregisterCalls   int32
}

func newBlockingUnit(name string, running *int32) *blockingUnit {
	return &blockingUnit{name: name, running: running, stopped: make(chan struct{})}
}

func (u *blockingUnit) Start(fatalError chan<- error) {
	if u.startErr != nil {
		fatalError <- u.startErr
		return
	}
	atomic.AddInt32(u.running, 1)
	defer atomic.AddInt32(u.running, -1)
	<-u.stopped
}

func (u *blockingUnit) Stop(gracefully bool) error {
	atomic.AddInt32(&u.stopCalls, 1)
	if gracefully {
		atomic.AddInt32(&u.gracefulStopCalls, 1)
	}
	u.stopOnce.Do(func() { close(u.stopped) })
	return u.stopErr
}

func (u *blockingUnit) MustRegisterMetrics() { atomic.AddInt32(&u.registerCalls, 1) }

func (u *blockingUnit) UnregisterMetrics() { atomic.AddInt32(&u.unregisterCalls, 1) }

func waitTrue(trueFunc func() bool, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		if trueFunc() {
			return nil
		}
		select {
		case <-timer.C:
			return errors.New("waiting true timed out")
		case <-time.After(time.Millisecond * 10):
		}
	}
}

func newBlockingUnits(n int, running *int32) ([]*blockingUnit, *CompositeUnit) {
	units := make([]*blockingUnit, n)
	composite := NewCompositeUnit()
	for i := range units {
		units[i] = newBlockingUnit(fmt.Sprintf("unit#%d", i), running)
		composite.Units = append(composite.Units, units[i])
	}
	return units, composite
}

func startInBackground(u Unit) (fatalErr chan error, startExit chan struct{}) {
	fatalErr = make(chan error, 1)
	startExit = make(chan struct{})
	go func() {
		defer close(startExit)
		u.Start(fatalErr)
	}()
	return fatalErr, startExit
}

func requireClosed(t *testing.T, c <-chan struct{}, msg string) {
	t.Helper()
	select {
	case <-c:
	case <-time.After(time.Second * 3):
		require.Fail(t, msg)
	}
}

func TestCompositeUnit_StartAndStop(t *testing.T) {
	const unitsNum = 50
	var running int32
	units, composite := newBlockingUnits(unitsNum, &running)

	fatalErr, startExit := startInBackground(composite)
	require.NoError(t, waitTrue(func() bool { return atomic.LoadInt32(&running) == unitsNum }, time.Second*3))

	require.NoError(t, composite.Stop(true))
	requireClosed(t, startExit, "Start should return after Stop")
	require.Zero(t, atomic.LoadInt32(&running))
	require.Len(t, fatalErr, 0)
	for _, u := range units {
		require.Equal(t, int32(1), atomic.LoadInt32(&u.gracefulStopCalls))
	}
}

func TestCompositeUnit_StopErrors(t *testing.T) {
	var running int32
	units, composite := newBlockingUnits(5, &running)
	errStop := errors.New("listener is already closed")
	units[1].stopErr = errStop
	units[3].stopErr = errStop

	_, startExit := startInBackground(composite)
	require.NoError(t, waitTrue(func() bool { return atomic.LoadInt32(&running) == 5 }, time.Second*3))

	err := composite.Stop(true)
	var compositeErr *CompositeUnitError
	require.True(t, errors.As(err, &compositeErr))
	require.Len(t, compositeErr.UnitErrors, 2)
	require.ErrorIs(t, err, errStop)
	requireClosed(t, startExit, "Start should return after Stop")
}

func TestCompositeUnit_OneUnitFails(t *testing.T) {
	var running int32
	units, composite := newBlockingUnits(3, &running)
	errBind := errors.New("bind failure")
	units[2].startErr = errBind

	fatalErr, startExit := startInBackground(composite)
	requireClosed(t, startExit, "Start should return when one of units fails")

	err := <-fatalErr
	require.ErrorIs(t, err, errBind)
	require.EqualError(t, err, "bind failure")
	for _, u := range units {
		require.Equal(t, int32(1), atomic.LoadInt32(&u.stopCalls))
		require.Zero(t, atomic.LoadInt32(&u.gracefulStopCalls))
	}
	require.Zero(t, atomic.LoadInt32(&running))
}

func TestCompositeUnit_WithWorker(t *testing.T) {
	var running int32
	server := newBlockingUnit("server", &running)
	var workerDone atomic.Bool
	worker := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		workerDone.Store(true)
		return nil
	}))
	composite := NewCompositeUnit(server, worker)

	fatalErr, startExit := startInBackground(composite)
	require.NoError(t, waitTrue(func() bool { return atomic.LoadInt32(&running) == 1 }, time.Second*3))

	require.NoError(t, composite.Stop(true))
	requireClosed(t, startExit, "Start should return after Stop")
	require.True(t, workerDone.Load())
	require.Len(t, fatalErr, 0)
}

func TestCompositeUnit_Metrics(t *testing.T) {
	var running int32
	units, composite := newBlockingUnits(2, &running)
	composite.Units = append(composite.Units, NewWorkerUnit(WorkerFunc(func(ctx context.Context) error { return nil })))

	composite.MustRegisterMetrics()
	composite.UnregisterMetrics()
	for _, u := range units {
		require.Equal(t, int32(1), atomic.LoadInt32(&u.registerCalls))
		require.Equal(t, int32(1), atomic.LoadInt32(&u.unregisterCalls))
	}
}
