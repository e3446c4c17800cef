package integration_tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/omnibox/pkg/apps"
	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/search"
	"github.com/rubiojr/omnibox/pkg/storage"
)

// waitForState returns the first state accepted by match, failing after timeout.
func waitForState(t *testing.T, states <-chan search.State, timeout time.Duration, match func(search.State) bool) search.State {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case st := <-states:
			if match(st) {
				return st
			}
		case <-deadline:
			t.Fatalf("timed out waiting for session state")
			return search.State{}
		}
	}
}

func TestConfigFileReloadReroutesSession(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")

	cfg := CreateTestConfig(tempDir)
	if err := cfg.SaveConfig(configPath); err != nil {
		t.Fatalf("Failed to save initial config: %v", err)
	}
	if err := WriteDesktopEntry(cfg.Apps.Dirs[0], "gimp", "GIMP"); err != nil {
		t.Fatalf("Failed to write desktop entry: %v", err)
	}

	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	registry := core.GetGlobalRegistry()
	if err := createProvidersFromConfig(registry, loaded, &core.Env{}); err != nil {
		t.Fatalf("Failed to create providers: %v", err)
	}

	catalog := NewCatalog(loaded)
	if err := catalog.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := config.NewWatcher(configPath, loaded)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			t.Errorf("Watcher stopped: %v", err)
		}
	}()

	dispatcher := search.NewDispatcher(registry, apps.NewSource(catalog, nil), search.Options{})
	sess := search.NewSession(dispatcher, search.Options{})
	states, unsubscribe := sess.Subscribe()
	defer unsubscribe()
	sess.Open(ctx)
	defer sess.Close()
	go sess.FollowSettings(ctx, watcher)

	// "g" is not a prefix yet, so the default path ranks apps.
	sess.OnQueryChanged("g cats")
	st := waitForState(t, states, 5*time.Second, func(s search.State) bool {
		return s.Query == "g cats" && !s.Loading
	})
	if st.ProviderActive {
		t.Fatalf("Expected default path before reload, got provider %s", st.Provider.ID)
	}

	// Give the watcher time to register before touching the file.
	time.Sleep(200 * time.Millisecond)

	cfg.Prefixes = map[string][]string{"web": {"g"}}
	tmp := configPath + ".tmp"
	if err := cfg.SaveConfig(tmp); err != nil {
		t.Fatalf("Failed to save updated config: %v", err)
	}
	// Atomic replace, the way most editors save.
	if err := os.Rename(tmp, configPath); err != nil {
		t.Fatalf("Failed to replace config: %v", err)
	}

	st = waitForState(t, states, 10*time.Second, func(s search.State) bool {
		return s.Query == "g cats" && s.ProviderActive && !s.Loading
	})
	if st.Provider.ID != "web" {
		t.Fatalf("Expected web provider after reload, got %s", st.Provider.ID)
	}
	if len(st.Results) != 1 || st.Results[0].Kind() != core.KindWeb {
		t.Fatalf("Expected one web result, got %v", st.Results)
	}
	if registry.FindByPrefix("w") != nil {
		t.Errorf("Default prefix w should be replaced by the configured prefix")
	}
}

func TestRecentsFlowThroughSession(t *testing.T) {
	tempDir := t.TempDir()
	cfg := CreateTestConfig(tempDir)
	if err := WriteDesktopEntry(cfg.Apps.Dirs[0], "inkscape", "Inkscape"); err != nil {
		t.Fatalf("Failed to write desktop entry: %v", err)
	}

	store, err := storage.Open(cfg.DBPath())
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close storage: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog := NewCatalog(cfg)
	if err := catalog.Load(ctx); err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	recents := apps.NewRecents(store, cfg.Apps.RecentLimit)
	if err := recents.Load(ctx); err != nil {
		t.Fatalf("Failed to load recents: %v", err)
	}
	source := apps.NewSource(catalog, recents)

	registry := core.GetGlobalRegistry()
	if err := createProvidersFromConfig(registry, cfg, &core.Env{Contacts: store}); err != nil {
		t.Fatalf("Failed to create providers: %v", err)
	}

	sess := search.NewSession(search.NewDispatcher(registry, source, search.Options{}), search.Options{})
	states, unsubscribe := sess.Subscribe()
	defer unsubscribe()
	sess.Open(ctx)
	defer sess.Close()

	waitForState(t, states, 5*time.Second, func(s search.State) bool {
		return s.Query == "" && len(s.Results) == 0
	})

	if _, err := source.Launch(ctx, "inkscape"); err != nil {
		t.Fatalf("Failed to launch: %v", err)
	}

	st := waitForState(t, states, 5*time.Second, func(s search.State) bool {
		return s.Query == "" && len(s.Results) == 1
	})
	if st.Results[0].Title() != "Inkscape" {
		t.Fatalf("Expected Inkscape in recents, got %s", st.Results[0].Title())
	}
}
