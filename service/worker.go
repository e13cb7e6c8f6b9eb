/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import "context"

// Worker performs long-running background work until the context is canceled
// (e.g., action.Reloader watching the action package files).
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc is an adapter to allow the use of ordinary functions as Worker.
type WorkerFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}
