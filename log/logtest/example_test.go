/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"fmt"

	"github.com/acronis/go-actionserver/log"
)

func Example() {
	runAction := func(name string, logger log.FieldLogger) {
		logger.Info("action executed", log.String("action", name), log.Int("events", 2))
	}

	logRecorder := NewRecorder()
	runAction("action_greet", logRecorder)

	if logEntry, found := logRecorder.FindEntry("action executed"); found {
		fmt.Printf("[%s] %s\n", logEntry.Level, logEntry.Text)
		if logField, found := logEntry.FindField("action"); found {
			fmt.Printf("action: %s\n", logField.Bytes)
		}
		if logField, found := logEntry.FindField("events"); found {
			fmt.Printf("events: %d\n", logField.Int)
		}
	}

	// Output:
	// [info] action executed
	// action: action_greet
	// events: 2
}
