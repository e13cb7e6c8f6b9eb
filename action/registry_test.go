/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package action

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func noActions() ([]Action, error) {
	return nil, nil
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("bot.actions", noActions, WithWatchPaths("bot/actions.yml")))
	require.Error(t, registry.Register("bot.actions", noActions))
	require.Error(t, registry.Register("bot/actions", noActions))
	require.Error(t, registry.Register("", noActions))
	require.Error(t, registry.Register("bot.other", nil))

	pkg, err := registry.Lookup("bot.actions")
	require.NoError(t, err)
	require.Equal(t, "bot.actions", pkg.Name)
	require.Equal(t, []string{"bot/actions.yml"}, pkg.WatchPaths)

	_, err = registry.Lookup("bot.unknown")
	require.ErrorIs(t, err, ErrPackageNotRegistered)

	require.Equal(t, []string{"bot.actions"}, registry.Names())
}

func TestRegistry_DefaultWatchPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bot", "actions"), 0o755))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(wd)) }()

	registry := NewRegistry()
	require.NoError(t, registry.Register("bot.actions", noActions))
	require.NoError(t, registry.Register("bot.missing", noActions))

	pkg, err := registry.Lookup("bot.actions")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join("bot", "actions")}, pkg.WatchPaths)

	pkg, err = registry.Lookup("bot.missing")
	require.NoError(t, err)
	require.Empty(t, pkg.WatchPaths)
}

func TestRegistry_Resolver(t *testing.T) {
	registry := NewRegistry()
	registry.SetResolver(func(name string) (Package, bool) {
		if name != "generated.actions" {
			return Package{}, false
		}
		return Package{Name: name, Loader: noActions}, true
	})

	pkg, err := registry.Lookup("generated.actions")
	require.NoError(t, err)
	require.Equal(t, "generated.actions", pkg.Name)

	_, err = registry.Lookup("other.actions")
	require.ErrorIs(t, err, ErrPackageNotRegistered)
}

func TestPackageDir(t *testing.T) {
	require.Equal(t, filepath.Join("a", "b", "c"), PackageDir("a.b.c"))
	require.Equal(t, "actions", PackageDir("actions"))
}
