package integration_tests

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/rubiojr/omnibox/pkg/apps"
	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
	_ "github.com/rubiojr/omnibox/pkg/providers/contacts"
	_ "github.com/rubiojr/omnibox/pkg/providers/web"
	_ "github.com/rubiojr/omnibox/pkg/providers/youtube"
)

// CreateTestConfig creates a configuration with local-only providers and
// storage below tempDir.
func CreateTestConfig(tempDir string) *config.Config {
	return &config.Config{
		StorageDir:    filepath.Join(tempDir, "storage"),
		MaxAppResults: 8,
		Apps: config.AppsConfig{
			Dirs:        []string{filepath.Join(tempDir, "applications")},
			RecentLimit: 8,
		},
		Permissions: config.PermissionsConfig{Granted: []string{"contacts"}},
		Prefixes:    map[string][]string{},
		Providers: map[string]config.ProviderInfo{
			"web":      {Type: "web"},
			"youtube":  {Type: "youtube"},
			"contacts": {Type: "contacts"},
		},
	}
}

// WriteDesktopEntry installs a minimal application entry into dir.
func WriteDesktopEntry(dir, id, name string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	entry := fmt.Sprintf("[Desktop Entry]\nType=Application\nName=%s\nExec=%s\n", name, id)
	return os.WriteFile(filepath.Join(dir, id+".desktop"), []byte(entry), 0644)
}

// NewCatalog scans the configured app directories without caching.
func NewCatalog(cfg *config.Config) *apps.Catalog {
	return apps.NewCatalog(cfg.Apps.Dirs, "")
}

// createProvidersFromConfig mirrors the CLI wiring: enabled providers in
// sorted order, raw config converted through TOML, then the prefix table.
func createProvidersFromConfig(registry *core.Registry, cfg *config.Config, env *core.Env) error {
	var providers []core.Provider
	for _, name := range cfg.ListProviders() {
		info := cfg.Providers[name]
		if !info.IsEnabled() {
			continue
		}
		prototype, ok := registry.GetPrototype(info.Type)
		if !ok {
			return fmt.Errorf("unknown provider type %q", info.Type)
		}
		providerConfig := prototype.ConfigType()
		if info.Config != nil {
			data, err := toml.Marshal(info.Config)
			if err != nil {
				return fmt.Errorf("marshaling config for %s: %w", name, err)
			}
			if err := toml.Unmarshal(data, providerConfig); err != nil {
				return fmt.Errorf("unmarshaling config for %s: %w", name, err)
			}
		}
		p, err := registry.CreateProvider(name, info.Type, providerConfig, env)
		if err != nil {
			return err
		}
		providers = append(providers, p)
	}
	registry.Replace(providers)
	registry.UpdatePrefixConfig(cfg.PrefixConfig())
	return nil
}
