/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package bootstrap starts the action server process.
// It parses and validates the startup options, configures logging, installs the shutdown signal handling
// and runs either the HTTP or the gRPC front-end until the process is asked to stop.
//
// The typical main function:
//
//	func main() {
//		action.DefaultRegistry.SetResolver(declarative.Resolve)
//		bootstrap.Main()
//	}
package bootstrap
