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
)

func TestWorkerUnit_Start_Stop(t *testing.T) {
	t.Run("start, stop no gracefully", func(t *testing.T) {
		var stopped atomic.Bool
		worker := WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(time.Millisecond * 200)
			stopped.Store(true)
			return nil
		})

		unit := NewWorkerUnit(worker)
		fatalErr := make(chan error, 1)
		go unit.Start(fatalErr)
		time.Sleep(time.Millisecond * 50)
		require.NoError(t, unit.Stop(false))
		require.False(t, stopped.Load())
		require.NoError(t, waitTrue(stopped.Load, time.Second))
		require.Len(t, fatalErr, 0)
	})

	t.Run("start, stop gracefully with timeout", func(t *testing.T) {
		longRunningWorker := WorkerFunc(func(ctx context.Context) error {
			time.Sleep(time.Second * 3) // Emulate long blocking operation.
			return nil
		})
		unit := NewWorkerUnitWithOpts(longRunningWorker, WorkerUnitOpts{GracefulStopTimeout: time.Millisecond * 500})
		fatalErr := make(chan error, 1)
		go unit.Start(fatalErr)
		time.Sleep(time.Millisecond * 100)
		require.ErrorIs(t, unit.Stop(true), ErrWorkerUnitStopTimeoutExceeded)
	})

	t.Run("start, stop gracefully without timeout", func(t *testing.T) {
		var answer atomic.Int32
		longRunningWorker := WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(time.Millisecond * 250)
			answer.Store(42)
			return nil
		})
		unit := NewWorkerUnit(longRunningWorker)
		fatalErr := make(chan error, 1)
		go unit.Start(fatalErr)
		time.Sleep(time.Millisecond * 100)
		require.NoError(t, unit.Stop(true))
		require.Equal(t, int32(42), answer.Load())
		require.Len(t, fatalErr, 0)
	})

	t.Run("worker fails", func(t *testing.T) {
		errWatch := errors.New("watch failed")
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return errWatch
		}))
		fatalErr := make(chan error, 1)
		unit.Start(fatalErr)
		require.ErrorIs(t, <-fatalErr, errWatch)
		require.NoError(t, unit.Stop(true))
	})
}
