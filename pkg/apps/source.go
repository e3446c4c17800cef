// Package apps provides the installed-app catalog and the recent-apps
// stream consumed by search sessions.
package apps

import (
	"context"
	"fmt"

	"github.com/rubiojr/omnibox/pkg/core"
)

// Source combines a Catalog and Recents into the app data source used by
// the search dispatcher.
type Source struct {
	catalog *Catalog
	recents *Recents
}

// NewSource creates a source. recents may be nil when launch history is unavailable.
func NewSource(catalog *Catalog, recents *Recents) *Source {
	return &Source{catalog: catalog, recents: recents}
}

func (s *Source) InstalledApps() []core.AppEntry {
	return s.catalog.InstalledApps()
}

func (s *Source) RecentApps() (<-chan []core.AppEntry, func()) {
	if s.recents == nil {
		return make(chan []core.AppEntry), func() {}
	}
	return s.recents.Subscribe()
}

func (s *Source) Catalog() *Catalog {
	return s.catalog
}

func (s *Source) Recents() *Recents {
	return s.recents
}

// Launch records that the installed app id was started.
func (s *Source) Launch(ctx context.Context, id string) (core.AppEntry, error) {
	app, ok := s.catalog.Find(id)
	if !ok {
		return core.AppEntry{}, fmt.Errorf("app %s not installed", id)
	}
	if s.recents == nil {
		return app, nil
	}
	if err := s.recents.Record(ctx, app); err != nil {
		return app, fmt.Errorf("recording launch: %w", err)
	}
	return app, nil
}
