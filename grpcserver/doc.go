/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package grpcserver implements the gRPC front-end of the action server.
// It serves action_server_webhook.ActionService and the standard gRPC health service
// with request id, logging, recovery and metrics interceptors.
package grpcserver
