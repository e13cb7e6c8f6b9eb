/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package bootstrap

import (
	"context"
	"fmt"
	"sync"
)

// State is a state of the Dispatcher.
type State int

// Dispatcher states.
const (
	StateIdle State = iota
	StateValidated
	StateDispatchedHTTP
	StateDispatchedGRPC
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidated:
		return "validated"
	case StateDispatchedHTTP:
		return "dispatched_http"
	case StateDispatchedGRPC:
		return "dispatched_grpc"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// HTTPBackend runs the HTTP front-end and blocks until ctx is canceled or a fatal error occurs.
type HTTPBackend func(ctx context.Context, t HTTPTransport) error

// GRPCBackend runs the gRPC front-end and blocks until ctx is canceled or a fatal error occurs.
type GRPCBackend func(ctx context.Context, t GRPCTransport) error

// Dispatcher starts exactly one front-end per process.
type Dispatcher struct {
	httpBackend HTTPBackend
	grpcBackend GRPCBackend

	mu    sync.Mutex
	state State
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(httpBackend HTTPBackend, grpcBackend GRPCBackend) *Dispatcher {
	return &Dispatcher{httpBackend: httpBackend, grpcBackend: grpcBackend}
}

// State returns the current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Dispatch runs the front-end selected by cfg and blocks while it's running.
// It may be called only once, the next calls return ErrAlreadyDispatched.
// The backend error is returned wrapped with the transport name.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg StartupConfig) error {
	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		return ErrAlreadyDispatched
	}
	if err := cfg.check(); err != nil {
		d.state = StateTerminated
		d.mu.Unlock()
		return err
	}
	d.state = StateValidated
	d.mu.Unlock()

	defer d.setState(StateTerminated)

	var err error
	switch t := cfg.Transport().(type) {
	case HTTPTransport:
		d.setState(StateDispatchedHTTP)
		err = d.httpBackend(ctx, t)
	case GRPCTransport:
		d.setState(StateDispatchedGRPC)
		err = d.grpcBackend(ctx, t)
	}
	if err != nil {
		return fmt.Errorf("%s transport: %w", cfg.Transport().Name(), err)
	}
	return nil
}
