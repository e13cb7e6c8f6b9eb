//go:build !windows

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acronis/go-actionserver/log/logtest"
	"github.com/acronis/go-actionserver/service"
)

func (s *AppTestSuite) TestShutdownOnSignals() {
	// Keeps the test process alive if a signal comes after the handler is stopped.
	guard := make(chan os.Signal, 2)
	signal.Notify(guard, syscall.SIGHUP)
	defer signal.Stop(guard)

	signalsLogger := logtest.NewRecorder()
	s.app.Shutdown = &service.ShutdownHandler{Logger: signalsLogger, Signals: []os.Signal{syscall.SIGHUP}}

	exitCode := make(chan int, 1)
	go func() {
		exitCode <- s.app.Run(context.Background(), s.args("--actions", testPackageName))
	}()
	s.listener.waitAddr(s.T())

	s.Require().NoError(syscall.Kill(syscall.Getpid(), syscall.SIGHUP))
	s.Require().Eventually(func() bool {
		return len(signalsLogger.EntriesWithText("received SIGHUP, exiting")) == 1
	}, time.Second*5, time.Millisecond*10)
	s.Require().NoError(syscall.Kill(syscall.Getpid(), syscall.SIGHUP))

	select {
	case code := <-exitCode:
		s.Require().Equal(ExitCodeOK, code)
	case <-time.After(time.Second * 10):
		s.Require().Fail("action server should be stopped after the signal")
	}
	s.Require().Len(signalsLogger.EntriesWithText("received SIGHUP, exiting"), 1)
	s.Require().Equal(1, s.listener.callsCount())
}
