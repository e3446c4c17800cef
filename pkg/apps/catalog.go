package apps

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
)

const cacheVersion = 1

// CacheFile is the catalog cache file name inside the storage directory.
const CacheFile = "apps.json.zst"

type cacheFile struct {
	Version     int             `json:"version"`
	Dirs        []string        `json:"dirs"`
	GeneratedAt time.Time       `json:"generated_at"`
	Apps        []core.AppEntry `json:"apps"`
}

// Catalog is the set of installed applications found in desktop entry
// directories. InstalledApps returns an immutable snapshot.
type Catalog struct {
	dirs      []string
	cachePath string
	logger    *log.Logger

	mu   sync.RWMutex
	apps []core.AppEntry
}

// NewCatalog creates an empty catalog. cachePath may be empty to disable caching.
func NewCatalog(dirs []string, cachePath string) *Catalog {
	expanded := make([]string, 0, len(dirs))
	for _, d := range dirs {
		expanded = append(expanded, config.ExpandHome(d))
	}
	return &Catalog{
		dirs:      expanded,
		cachePath: cachePath,
		logger:    log.ForService("apps"),
	}
}

// InstalledApps implements search.AppSource.
func (c *Catalog) InstalledApps() []core.AppEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apps
}

// Find returns the app with the given desktop id.
func (c *Catalog) Find(id string) (core.AppEntry, bool) {
	for _, app := range c.InstalledApps() {
		if app.ID == id {
			return app, true
		}
	}
	return core.AppEntry{}, false
}

// Set replaces the snapshot.
func (c *Catalog) Set(apps []core.AppEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apps = slices.Clone(apps)
}

// Load fills the catalog from the cache when it is still valid, otherwise it
// rescans the directories and rewrites the cache.
func (c *Catalog) Load(ctx context.Context) error {
	if apps, ok := c.readCache(); ok {
		c.Set(apps)
		c.logger.Debugf("loaded %d apps from cache", len(apps))
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh rescans the directories and rewrites the cache.
func (c *Catalog) Refresh(ctx context.Context) error {
	apps, err := c.Scan(ctx)
	if err != nil {
		return err
	}
	c.Set(apps)
	c.logger.Infof("found %d installed apps", len(apps))

	if c.cachePath != "" {
		if err := c.writeCache(apps); err != nil {
			c.logger.Warnf("failed to write app cache: %v", err)
		}
	}
	return nil
}

// Scan walks the directories and parses every desktop entry. The first
// directory that provides a desktop id wins. Missing directories are skipped.
func (c *Catalog) Scan(ctx context.Context) ([]core.AppEntry, error) {
	seen := make(map[string]bool)
	var apps []core.AppEntry

	for _, dir := range c.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir && os.IsNotExist(err) {
					return filepath.SkipDir
				}
				c.logger.Debugf("skipping %s: %v", path, err)
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".desktop") {
				return nil
			}

			id := DesktopID(dir, path)
			if seen[id] {
				return nil
			}
			seen[id] = true

			app, ok, err := parseDesktopFile(path, id)
			if err != nil {
				c.logger.Debugf("%v", err)
				return nil
			}
			if ok {
				apps = append(apps, app)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}

	sort.SliceStable(apps, func(i, j int) bool {
		return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name)
	})
	return apps, nil
}

func parseDesktopFile(path, id string) (core.AppEntry, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.AppEntry{}, false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ParseDesktopEntry(f, id)
}

func (c *Catalog) readCache() ([]core.AppEntry, bool) {
	if c.cachePath == "" {
		return nil, false
	}
	info, err := os.Stat(c.cachePath)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil, false
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, false
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		c.logger.Warnf("discarding corrupt app cache: %v", err)
		return nil, false
	}
	var cf cacheFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		c.logger.Warnf("discarding unreadable app cache: %v", err)
		return nil, false
	}
	if cf.Version != cacheVersion || !slices.Equal(cf.Dirs, c.dirs) {
		return nil, false
	}

	// Installing or removing an app touches its directory.
	for _, dir := range c.dirs {
		if st, err := os.Stat(dir); err == nil && st.ModTime().After(info.ModTime()) {
			return nil, false
		}
	}
	return cf.Apps, true
}

func (c *Catalog) writeCache(apps []core.AppEntry) error {
	raw, err := json.Marshal(cacheFile{
		Version:     cacheVersion,
		Dirs:        c.dirs,
		GeneratedAt: time.Now().UTC(),
		Apps:        apps,
	})
	if err != nil {
		return fmt.Errorf("marshaling app cache: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	data := encoder.EncodeAll(raw, nil)
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("closing zstd encoder: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp := c.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing app cache: %w", err)
	}
	return os.Rename(tmp, c.cachePath)
}
