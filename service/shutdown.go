/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/acronis/go-actionserver/log"
)

// ShutdownHandler turns OS shutdown signals into cancellation of the run context.
// The context is canceled exactly once no matter how many signals are delivered.
type ShutdownHandler struct {
	Logger  log.FieldLogger
	Signals []os.Signal

	notify      func(c chan<- os.Signal, sig ...os.Signal)
	installOnce sync.Once
	cancelOnce  sync.Once
	stopOnce    sync.Once
	sigCh       chan os.Signal
	done        chan struct{}
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewShutdownHandler creates a new ShutdownHandler for SIGINT and SIGTERM.
func NewShutdownHandler(logger log.FieldLogger) *ShutdownHandler {
	return &ShutdownHandler{
		Logger:  logger,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// Install registers the signals and returns a context derived from ctx
// that is canceled on the first delivered signal. A nil Logger is replaced with a disabled one.
// Repeated calls return the context created by the first one.
func (h *ShutdownHandler) Install(ctx context.Context) context.Context {
	h.installOnce.Do(func() {
		if h.Logger == nil {
			h.Logger = log.NewDisabledLogger()
		}
		h.ctx, h.cancel = context.WithCancel(ctx)
		h.sigCh = make(chan os.Signal, 2)
		h.done = make(chan struct{})
		notify := h.notify
		if notify == nil {
			notify = signal.Notify
		}
		// signal.Notify with no signals relays all incoming signals.
		if len(h.Signals) != 0 {
			notify(h.sigCh, h.Signals...)
		}
		go h.loop()
	})
	return h.ctx
}

// Stop unregisters the signals and releases the handler goroutine. It is safe to call Stop repeatedly.
func (h *ShutdownHandler) Stop() {
	if h.sigCh == nil {
		return
	}
	h.stopOnce.Do(func() {
		signal.Stop(h.sigCh)
		close(h.done)
		h.cancel()
	})
}

func (h *ShutdownHandler) loop() {
	for {
		select {
		case <-h.done:
			return
		case sig := <-h.sigCh:
			h.handle(sig)
		}
	}
}

func (h *ShutdownHandler) handle(sig os.Signal) {
	sigName := signalName(sig)
	requested := false
	h.cancelOnce.Do(func() {
		requested = true
		h.Logger.Info(fmt.Sprintf("received %s, exiting", sigName), log.String("signal", sigName))
		h.cancel()
	})
	if !requested {
		h.Logger.Info("shutdown is already in progress", log.String("signal", sigName))
	}
}

func signalName(sig os.Signal) string {
	switch sig {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	}
	return sig.String()
}
