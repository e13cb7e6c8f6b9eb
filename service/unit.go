/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

// Unit is a component of the action server process with its own lifecycle
// (HTTP or gRPC front-end, action package reloader, profiling server).
type Unit interface {
	// Start runs the unit and usually blocks until it's stopped.
	// A failure is reported by writing to fatalErr exactly once, the channel must not be used after Start returns.
	Start(fatalErr chan<- error)

	// Stop halts the unit. It may be called even if Start has failed or was never called.
	// With gracefully=true the unit drains the in-flight work (e.g., webhook calls) within its shutdown timeout.
	Stop(gracefully bool) error
}

// MetricsRegisterer is implemented by units that export Prometheus metrics.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}
