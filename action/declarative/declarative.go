/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package declarative provides action packages defined by YAML files instead of Go code.
//
// Each *.yml or *.yaml file in the package directory may contain the list of actions:
//
//	actions:
//	  - name: action_greet
//	    utter:
//	      - text: "Hello, {name}!"
//	    set_slots:
//	      greeted: true
//
// Placeholders in curly braces are replaced with slot values from the tracker.
// Files are read on every load, so such packages take advantage of auto-reload.
package declarative

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/acronis/go-actionserver/action"
)

// File is a content of the single YAML file with actions.
type File struct {
	Actions []Definition `yaml:"actions"`
}

// Definition describes a single declarative action.
type Definition struct {
	Name     string                 `yaml:"name"`
	Utter    []Message              `yaml:"utter"`
	SetSlots map[string]interface{} `yaml:"set_slots"`
	Reject   string                 `yaml:"reject"`
}

// Message is a bot message uttered by the action.
type Message struct {
	Text     string                 `yaml:"text"`
	Response string                 `yaml:"response"`
	Custom   map[string]interface{} `yaml:"custom"`
}

// Resolve maps the dotted package name to the directory and returns the package if the directory exists.
// It may be used as action.Resolver.
func Resolve(name string) (action.Package, bool) {
	dir := action.PackageDir(name)
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return action.Package{}, false
	}
	return action.Package{Name: name, Loader: DirLoader(dir), WatchPaths: []string{dir}}, true
}

// DirLoader returns a loader that reads all YAML files from the directory.
func DirLoader(dir string) action.PackageLoader {
	return func() ([]action.Action, error) {
		var paths []string
		for _, pattern := range []string{"*.yml", "*.yaml"} {
			matched, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			paths = append(paths, matched...)
		}
		sort.Strings(paths)

		var actions []action.Action
		for _, path := range paths {
			fileActions, err := loadFile(path)
			if err != nil {
				return nil, err
			}
			actions = append(actions, fileActions...)
		}
		return actions, nil
	}
}

func loadFile(path string) ([]action.Action, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	var f File
	if err = yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	actions := make([]action.Action, 0, len(f.Actions))
	for i := range f.Actions {
		def := f.Actions[i]
		if def.Name == "" {
			return nil, fmt.Errorf("parse %s: action #%d has no name", path, i)
		}
		actions = append(actions, action.NewFunc(def.Name, def.run))
	}
	return actions, nil
}

func (d Definition) run(_ context.Context, dispatcher *action.Dispatcher, req *action.Request) ([]action.Event, error) {
	if d.Reject != "" {
		return nil, action.Reject(d.Reject)
	}
	fill := slotReplacer(req)
	for _, msg := range d.Utter {
		switch {
		case msg.Text != "":
			dispatcher.Utter(fill.Replace(msg.Text))
		case msg.Response != "":
			dispatcher.UtterResponse(msg.Response, nil)
		case msg.Custom != nil:
			dispatcher.UtterCustom(msg.Custom)
		}
	}

	names := make([]string, 0, len(d.SetSlots))
	for name := range d.SetSlots {
		names = append(names, name)
	}
	sort.Strings(names)
	events := make([]action.Event, 0, len(names))
	for _, name := range names {
		events = append(events, action.SlotSet(name, d.SetSlots[name]))
	}
	return events, nil
}

func slotReplacer(req *action.Request) *strings.Replacer {
	slots, _ := req.Tracker["slots"].(map[string]interface{})
	oldNew := make([]string, 0, len(slots)*2)
	for name, val := range slots {
		if val == nil {
			continue
		}
		oldNew = append(oldNew, "{"+name+"}", fmt.Sprint(val))
	}
	return strings.NewReplacer(oldNew...)
}
