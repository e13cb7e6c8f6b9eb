/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package action

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// PackageLoader builds the actions of the package. It is called on startup and on every reload.
type PackageLoader func() ([]Action, error)

// Package describes a registered action package.
type Package struct {
	Name   string
	Loader PackageLoader

	// WatchPaths are files and directories that are watched for changes when auto-reload is enabled.
	WatchPaths []string
}

// PackageOption is a functional option for registering a package.
type PackageOption func(*Package)

// WithWatchPaths sets paths that are watched when auto-reload is enabled.
// By default, the directory derived from the dotted package name is watched if it exists.
func WithWatchPaths(paths ...string) PackageOption {
	return func(p *Package) {
		p.WatchPaths = append(p.WatchPaths, paths...)
	}
}

// Resolver is a fallback for resolving packages that were not registered explicitly.
type Resolver func(name string) (Package, bool)

// Registry maps dotted package names to package loaders.
type Registry struct {
	mu       sync.RWMutex
	packages map[string]Package
	resolver Resolver
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{packages: make(map[string]Package)}
}

// DefaultRegistry is the registry used by RegisterPackage.
var DefaultRegistry = NewRegistry()

// RegisterPackage registers the package in DefaultRegistry. It panics if the name is invalid or already registered.
func RegisterPackage(name string, loader PackageLoader, opts ...PackageOption) {
	if err := DefaultRegistry.Register(name, loader, opts...); err != nil {
		panic(err)
	}
}

// Register registers the action package under the dotted name.
func (r *Registry) Register(name string, loader PackageLoader, opts ...PackageOption) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid action package name %q", name)
	}
	if loader == nil {
		return fmt.Errorf("nil loader for action package %q", name)
	}
	pkg := Package{Name: name, Loader: loader}
	for _, opt := range opts {
		opt(&pkg)
	}
	if len(pkg.WatchPaths) == 0 {
		if dir := PackageDir(name); isDir(dir) {
			pkg.WatchPaths = []string{dir}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packages[name]; ok {
		return fmt.Errorf("action package %q is already registered", name)
	}
	r.packages[name] = pkg
	return nil
}

// SetResolver sets the fallback that is used for packages which were not registered.
func (r *Registry) SetResolver(resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolver = resolver
}

// Lookup finds the package by its dotted name.
func (r *Registry) Lookup(name string) (Package, error) {
	r.mu.RLock()
	pkg, ok := r.packages[name]
	resolver := r.resolver
	r.mu.RUnlock()
	if ok {
		return pkg, nil
	}
	if resolver != nil {
		if pkg, ok = resolver(name); ok {
			return pkg, nil
		}
	}
	return Package{}, fmt.Errorf("%w: %q", ErrPackageNotRegistered, name)
}

// Names returns sorted names of the registered packages.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.packages))
	for name := range r.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PackageDir converts the dotted package name to the relative directory path ("bot.actions" -> "bot/actions").
func PackageDir(name string) string {
	return filepath.Join(strings.Split(name, ".")...)
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
