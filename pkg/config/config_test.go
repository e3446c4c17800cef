package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/omnibox/pkg/core"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxAppResults, cfg.MaxAppResults)
	assert.Equal(t, DefaultListen, cfg.Server.Listen)
	assert.Contains(t, cfg.Providers, "web")
	assert.NotContains(t, cfg.Providers, "github")
}

func TestTemplateParses(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := &Config{StorageDir: filepath.Join(dir, "data")}
	require.NoError(t, cfg.SaveTemplateConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data"), loaded.StorageDir)
	assert.Equal(t, []string{"w", "g"}, loaded.Prefixes["web"])
	assert.False(t, loaded.Providers["github"].IsEnabled())
	assert.True(t, loaded.Providers["web"].IsEnabled())
	assert.Equal(t, []string{"contacts", "files", "github", "web", "youtube"}, loaded.ListProviders())

	typ, raw, err := loaded.GetProviderConfig("files")
	require.NoError(t, err)
	assert.Equal(t, "files", typ)
	assert.NotNil(t, raw)
}

func TestParseConfigRejectsBadPrefixes(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	_, err := ParseConfig([]byte("[prefixes]\nweb = [\"w w\"]\n"))
	require.Error(t, err)

	_, err = ParseConfig([]byte("[prefixes]\nweb = [\"\"]\n"))
	require.Error(t, err)
}

func TestParseConfigKeepsDuplicatePrefixes(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := ParseConfig([]byte("[prefixes]\nweb = [\"w\"]\nyoutube = [\"w\", \"y\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"w", "y"}, cfg.Prefixes["youtube"])

	pc := cfg.PrefixConfig()
	require.Error(t, pc.Validate())

	// Edits still refuse a prefix owned by another provider.
	require.Error(t, cfg.SetPrefixes("files", []string{"y"}))
	require.NoError(t, cfg.SetPrefixes("files", []string{"f"}))
}

func TestParseConfigRejectsUnknownPermission(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	_, err := ParseConfig([]byte("[permissions]\ngranted = [\"camera\"]\n"))
	require.Error(t, err)

	cfg, err := ParseConfig([]byte("debounce = \"50ms\"\n[permissions]\ngranted = [\"contacts\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []core.Permission{core.PermissionContacts}, cfg.GrantedPermissions())
	assert.Equal(t, 50*time.Millisecond, cfg.Debounce.Duration)
}

func TestSetPrefixes(t *testing.T) {
	cfg := &Config{Prefixes: map[string][]string{"web": {"w"}}}
	require.NoError(t, cfg.SetPrefixes("files", []string{"f", "fi"}))
	assert.Equal(t, []string{"f", "fi"}, cfg.Prefixes["files"])

	require.Error(t, cfg.SetPrefixes("files", []string{"w"}))
	require.Error(t, cfg.SetPrefixes("files", []string{"a b"}))

	require.NoError(t, cfg.SetPrefixes("files", nil))
	assert.NotContains(t, cfg.Prefixes, "files")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := GetDefaultConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.SetPrefixes("web", []string{"ddg"}))
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ddg"}, loaded.Prefixes["web"])
}

func TestWatcherPublishesReloads(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "[prefixes]\nweb = [\"w\"]\n")

	initial, err := LoadConfig(path)
	require.NoError(t, err)
	w := NewWatcher(path, initial)
	w.settle = 10 * time.Millisecond

	prefixes, stop := w.PrefixConfigs()
	defer stop()
	assert.Equal(t, core.PrefixConfig{"web": {"w"}}, <-prefixes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Give the watcher time to register before changing the file.
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, "[prefixes]\nweb = [\"g\"]\n")

	// A truncating write can be observed half-way; wait for the final revision.
	want := core.PrefixConfig{"web": {"g"}}
	timeout := time.After(3 * time.Second)
	for got := (core.PrefixConfig)(nil); !assert.ObjectsAreEqual(want, got); {
		select {
		case got = <-prefixes:
		case <-timeout:
			t.Fatal("no reload published")
		}
	}
	assert.Equal(t, []string{"g"}, w.Current().Prefixes["web"])

	cancel()
	require.NoError(t, <-errCh)
}

func TestWatcherKeepsConfigOnInvalidReload(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "[prefixes]\nweb = [\"w\"]\n")

	initial, err := LoadConfig(path)
	require.NoError(t, err)
	w := NewWatcher(path, initial)

	writeConfig(t, path, "[prefixes]\nweb = [\"a b\"]\n")
	require.Error(t, w.Reload())
	assert.Equal(t, []string{"w"}, w.Current().Prefixes["web"])
}
