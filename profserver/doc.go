/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package profserver provides the optional debug HTTP server with pprof handlers.
// The action server starts it next to the HTTP or gRPC front-end when
// ACTION_SERVER_PROFSERVER_ENABLED=true is set.
package profserver
