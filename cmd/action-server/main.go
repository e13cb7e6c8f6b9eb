/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Command action-server runs the action server.
// Action packages registered with action.RegisterPackage are compiled in, other dotted references are
// resolved as directories with declarative YAML actions ("bot.actions" -> "bot/actions/*.yml").
package main

import (
	"github.com/acronis/go-actionserver/action"
	"github.com/acronis/go-actionserver/action/declarative"
	"github.com/acronis/go-actionserver/bootstrap"
)

func main() {
	action.DefaultRegistry.SetResolver(declarative.Resolve)
	bootstrap.Main()
}
