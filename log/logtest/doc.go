/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest contains loggers for tests of the action server packages.
//
// Recorder keeps every entry in memory, so a test may check what the server
// reported during startup, dispatching or shutdown (messages, levels and fields).
// NewLogger writes JSON lines and is handy when the output itself should be inspected
// or just seen in the "go test -v" output.
package logtest
