/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package action

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/acronis/go-actionserver/log"
)

// DefaultReloadDebounce is a delay after the last file change before the package is reloaded.
const DefaultReloadDebounce = 500 * time.Millisecond

// Reloadable is implemented by Executor.
type Reloadable interface {
	Reload() error
}

// ReloaderOpts contains optional parameters for constructing Reloader.
type ReloaderOpts struct {
	Debounce time.Duration
}

// Reloader watches the action package files and reloads the package when they change.
// It implements service.Worker.
type Reloader struct {
	target   Reloadable
	paths    []string
	debounce time.Duration
	logger   log.FieldLogger
}

// NewReloader creates a new Reloader.
func NewReloader(target Reloadable, paths []string, logger log.FieldLogger, opts ReloaderOpts) *Reloader {
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = DefaultReloadDebounce
	}
	return &Reloader{target: target, paths: paths, debounce: debounce, logger: logger}
}

// Run watches the files until the context is canceled.
func (r *Reloader) Run(ctx context.Context) error {
	if len(r.paths) == 0 {
		r.logger.Warn("auto-reload is enabled, but action package has no paths to watch")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			r.logger.Warn("failed to close file watcher", log.Error(closeErr))
		}
	}()

	for _, path := range r.paths {
		if err = addRecursive(watcher, path); err != nil {
			return fmt.Errorf("watch %q: %w", path, err)
		}
	}
	r.logger.Info("watching action package for changes", log.Strings("paths", r.paths))

	timer := time.NewTimer(r.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			r.logger.Debug("action package file changed", log.String("file", event.Name), log.String("op", event.Op.String()))
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if addErr := addRecursive(watcher, event.Name); addErr != nil {
					r.logger.Warn("failed to watch new directory", log.String("dir", event.Name), log.Error(addErr))
				}
			}
			timer.Reset(r.debounce)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("file watcher error", log.Error(watchErr))
		case <-timer.C:
			// Reload errors are logged by the target, previous actions stay available.
			_ = r.target.Reload()
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	if !isDir(root) {
		return watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
