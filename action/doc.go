/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package action contains everything needed to execute user-defined actions:
// the Action interface, the registry of action packages, the Executor that runs actions
// for webhook requests, Prometheus metrics and the Reloader used for auto-reload.
//
// Action packages are referenced by dotted names (e.g. "bot.actions").
// A Go package with actions registers itself from init():
//
//	func init() {
//		action.RegisterPackage("bot.actions", func() ([]action.Action, error) {
//			return []action.Action{action.NewFunc("action_greet", greet)}, nil
//		})
//	}
package action
