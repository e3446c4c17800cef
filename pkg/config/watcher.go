package config

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
	"github.com/rubiojr/omnibox/pkg/realtime"
)

// Watcher follows a configuration file and publishes every valid revision.
// It implements the settings stream consumed by search sessions.
type Watcher struct {
	path     string
	settle   time.Duration
	configs  *realtime.Hub[*Config]
	prefixes *realtime.Hub[core.PrefixConfig]
	logger   *log.Logger

	mu      sync.RWMutex
	current *Config
}

// NewWatcher creates a watcher seeded with the already loaded configuration.
func NewWatcher(path string, initial *Config) *Watcher {
	w := &Watcher{
		path:     path,
		settle:   100 * time.Millisecond,
		configs:  realtime.NewHub[*Config](1),
		prefixes: realtime.NewHub[core.PrefixConfig](1),
		logger:   log.ForService("config"),
	}
	if initial != nil {
		w.publish(initial)
	}
	return w
}

// Current returns the latest valid configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Configs streams full configuration revisions.
func (w *Watcher) Configs() (<-chan *Config, func()) {
	return w.configs.Subscribe()
}

// PrefixConfigs streams the [prefixes] table of every revision.
func (w *Watcher) PrefixConfigs() (<-chan core.PrefixConfig, func()) {
	return w.prefixes.Subscribe()
}

// Reload reads the file and publishes it if valid. Invalid revisions are
// rejected and the previous configuration stays current.
func (w *Watcher) Reload() error {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	w.publish(cfg)
	return nil
}

func (w *Watcher) publish(cfg *Config) {
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
	w.configs.Broadcast(cfg)
	w.prefixes.Broadcast(cfg.PrefixConfig())
}

// Run watches the file until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			w.logger.Warnf("failed to close config file watcher: %v", err)
		}
	}()

	if err := watcher.Add(w.path); err != nil {
		return fmt.Errorf("watching config file %s: %w", w.path, err)
	}
	w.logger.Infof("watching config file for changes: %s", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often replace the file atomically, which shows up as rename/remove.
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)) {
				continue
			}
			w.logger.Debugf("config file changed: %s (event: %s)", event.Name, event.Op.String())

			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if !w.sleep(ctx, 2*w.settle) {
					return nil
				}
				if _, err := os.Stat(w.path); os.IsNotExist(err) {
					w.logger.Warnf("config file was removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(w.path); err != nil {
					w.logger.Warnf("failed to re-add config file to watcher after rename/remove: %v", err)
				}
			} else if !w.sleep(ctx, w.settle) {
				return nil
			}

			if err := w.Reload(); err != nil {
				w.logger.Errorf("failed to reload configuration: %v", err)
				continue
			}
			w.logger.Infof("configuration reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorf("config file watcher error: %v", err)
		}
	}
}

func (w *Watcher) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
