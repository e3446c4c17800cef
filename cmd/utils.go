package cmd

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/rubiojr/omnibox/pkg/apps"
	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
	"github.com/rubiojr/omnibox/pkg/search"
	"github.com/rubiojr/omnibox/pkg/storage"
)

// runtime is the wiring shared by the commands that run searches.
type runtime struct {
	cfg        *config.Config
	registry   *core.Registry
	perms      *core.Permissions
	store      *storage.Store
	apps       *apps.Source
	dispatcher *search.Dispatcher
	opts       search.Options
}

// openRuntime loads the configuration, opens the database, loads the app
// catalog and builds the provider registry.
func openRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	rt := &runtime{
		cfg:   cfg,
		perms: core.NewPermissions(cfg.GrantedPermissions()...),
		store: store,
	}

	cachePath := ""
	if cfg.Apps.Cache {
		cachePath = filepath.Join(cfg.StorageDir, apps.CacheFile)
	}
	catalog := apps.NewCatalog(cfg.Apps.Dirs, cachePath)
	if err := catalog.Load(ctx); err != nil {
		log.ForService("apps").Warnf("loading app catalog: %v", err)
	}
	recents := apps.NewRecents(store, cfg.Apps.RecentLimit)
	if err := recents.Load(ctx); err != nil {
		rt.Close()
		return nil, fmt.Errorf("loading recent apps: %w", err)
	}
	rt.apps = apps.NewSource(catalog, recents)

	env := &core.Env{
		Permissions: rt.perms,
		Contacts:    store,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
	rt.registry = core.GetGlobalRegistry()
	if err := createProvidersFromConfig(rt.registry, cfg, env); err != nil {
		rt.Close()
		return nil, fmt.Errorf("creating providers: %w", err)
	}

	rt.opts = search.Options{
		MaxAppResults: cfg.MaxAppResults,
		Debounce:      cfg.Debounce.Duration,
		Permissions:   rt.perms,
	}
	rt.dispatcher = search.NewDispatcher(rt.registry, rt.apps, rt.opts)
	return rt, nil
}

func (rt *runtime) Close() error {
	return rt.store.Close()
}

// createProvidersFromConfig creates the enabled providers from the config,
// installs them in the registry and applies the configured prefixes.
func createProvidersFromConfig(registry *core.Registry, cfg *config.Config, env *core.Env) error {
	var providers []core.Provider
	for _, name := range cfg.ListProviders() {
		info := cfg.Providers[name]
		if !info.IsEnabled() {
			continue
		}

		prototype, ok := registry.GetPrototype(info.Type)
		if !ok {
			return fmt.Errorf("unknown provider type %q for %s", info.Type, name)
		}

		// Convert the raw config to the proper type using the prototype's ConfigType
		providerConfig, err := convertRawConfigToType(prototype, info.Config)
		if err != nil {
			return fmt.Errorf("converting config for provider %s: %w", name, err)
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

// convertRawConfigToType converts raw config to the prototype's expected type
func convertRawConfigToType(prototype core.Prototype, rawConfig interface{}) (interface{}, error) {
	configType := prototype.ConfigType()

	if rawConfig == nil {
		return configType, nil
	}

	// Marshal and unmarshal to convert between types
	configData, err := toml.Marshal(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("marshaling config data: %w", err)
	}

	if err := toml.Unmarshal(configData, configType); err != nil {
		return nil, fmt.Errorf("unmarshaling provider config: %w", err)
	}

	return configType, nil
}
