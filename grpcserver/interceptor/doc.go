/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package interceptor provides unary gRPC interceptors used by the action server:
// request ids, call logging, panic recovery and Prometheus metrics.
package interceptor
