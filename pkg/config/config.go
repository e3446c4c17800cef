package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultMaxAppResults = 8
	DefaultRecentLimit   = 8
	DefaultListen        = "127.0.0.1:8087"
)

type Config struct {
	StorageDir    string                  `toml:"storage_dir"`
	MaxAppResults int                     `toml:"max_app_results"`
	Debounce      Duration                `toml:"debounce"`
	Apps          AppsConfig              `toml:"apps"`
	Permissions   PermissionsConfig       `toml:"permissions"`
	Server        ServerConfig            `toml:"server"`
	Prefixes      map[string][]string     `toml:"prefixes"`
	Providers     map[string]ProviderInfo `toml:"providers"`
}

type AppsConfig struct {
	Dirs        []string `toml:"dirs"`
	Cache       bool     `toml:"cache"`
	RecentLimit int      `toml:"recent_limit"`
}

type PermissionsConfig struct {
	Granted []string `toml:"granted"`
}

type ServerConfig struct {
	Listen string `toml:"listen"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type ProviderInfo struct {
	Type string `toml:"type"`
	// Enabled defaults to true when omitted.
	Enabled *bool       `toml:"enabled,omitempty"`
	Config  interface{} `toml:"config,omitempty"`
}

// IsEnabled reports whether the provider should be instantiated.
func (p ProviderInfo) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// DefaultProviders is the provider set used when the configuration has none.
func DefaultProviders() map[string]ProviderInfo {
	return map[string]ProviderInfo{
		"web":      {Type: "web"},
		"youtube":  {Type: "youtube"},
		"contacts": {Type: "contacts"},
		"files":    {Type: "files"},
	}
}

// DefaultAppDirs returns the freedesktop application directories, user first.
func DefaultAppDirs() []string {
	user := "~/.local/share/applications"
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		user = filepath.Join(dataHome, "applications")
	}
	// Earlier directories take precedence for duplicate desktop ids.
	return []string{user, "/usr/local/share/applications", "/usr/share/applications"}
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	cfg := &Config{StorageDir: storageDir}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxAppResults <= 0 {
		c.MaxAppResults = DefaultMaxAppResults
	}
	if c.Apps.Dirs == nil {
		c.Apps.Dirs = DefaultAppDirs()
	}
	if c.Apps.RecentLimit <= 0 {
		c.Apps.RecentLimit = DefaultRecentLimit
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Prefixes == nil {
		c.Prefixes = make(map[string][]string)
	}
	if c.Providers == nil {
		c.Providers = DefaultProviders()
	}
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes, defaults and validates TOML configuration data.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}
	config.StorageDir = ExpandHome(config.StorageDir)
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks prefix syntax, provider entries and permissions. A prefix
// claimed by two providers is only logged; the registry keeps it for the
// first registrant when the index is rebuilt.
func (c *Config) Validate() error {
	for id, prefixes := range c.Prefixes {
		for _, p := range prefixes {
			if err := core.ValidatePrefix(p); err != nil {
				return fmt.Errorf("prefixes: provider %s: %w", id, err)
			}
		}
	}
	if err := core.PrefixConfig(c.Prefixes).Validate(); err != nil {
		log.ForService("config").Warnf("prefixes: %v", err)
	}
	for name, info := range c.Providers {
		if info.Type == "" {
			return fmt.Errorf("provider %s: missing type", name)
		}
	}
	for _, p := range c.Permissions.Granted {
		switch core.Permission(p) {
		case core.PermissionContacts, core.PermissionFiles:
		default:
			return fmt.Errorf("unknown permission %q", p)
		}
	}
	if c.Debounce.Duration < 0 {
		return fmt.Errorf("debounce must not be negative")
	}
	return nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	// Replace the placeholder storage_dir with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/omnibox", storageDir, 1)
	return template, nil
}

// PrefixConfig returns the configured prefixes as a registry snapshot.
func (c *Config) PrefixConfig() core.PrefixConfig {
	return core.PrefixConfig(c.Prefixes).Clone()
}

// SetPrefixes replaces the prefixes of provider id. An empty list restores the
// provider's default prefix. Prefixes owned by another provider are rejected.
func (c *Config) SetPrefixes(id string, prefixes []string) error {
	if err := (core.PrefixConfig{id: prefixes}).Validate(); err != nil {
		return err
	}
	if len(prefixes) == 0 {
		delete(c.Prefixes, id)
		return nil
	}
	next := c.PrefixConfig()
	if next == nil {
		next = make(core.PrefixConfig)
	}
	for other, owned := range next {
		if other == id {
			continue
		}
		for _, p := range prefixes {
			if slices.Contains(owned, p) {
				return fmt.Errorf("prefix %q is used by both %s and %s", p, other, id)
			}
		}
	}
	next[id] = append([]string(nil), prefixes...)
	c.Prefixes = next
	return nil
}

// GrantedPermissions returns the permissions listed in [permissions].
func (c *Config) GrantedPermissions() []core.Permission {
	perms := make([]core.Permission, 0, len(c.Permissions.Granted))
	for _, p := range c.Permissions.Granted {
		perms = append(perms, core.Permission(p))
	}
	return perms
}

func (c *Config) AddProvider(name, providerType string, providerConfig interface{}) error {
	if _, exists := c.Providers[name]; exists {
		return fmt.Errorf("provider %s already configured", name)
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderInfo)
	}
	c.Providers[name] = ProviderInfo{
		Type:   providerType,
		Config: providerConfig,
	}
	return nil
}

func (c *Config) GetProviderConfig(name string) (string, interface{}, error) {
	info, exists := c.Providers[name]
	if !exists {
		return "", nil, fmt.Errorf("provider %s not found", name)
	}

	return info.Type, info.Config, nil
}

// ListProviders returns the configured provider names, sorted. This is also
// the registration order used to resolve prefix conflicts.
func (c *Config) ListProviders() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) RemoveProvider(name string) {
	delete(c.Providers, name)
	delete(c.Prefixes, name)
}

// DBPath returns the database path inside the storage directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.StorageDir, "omnibox.db")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// GetDefaultStorageDir returns the default storage directory for databases
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "omnibox")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetConfigDir returns the configuration directory for omnibox
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "omnibox")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
