package apps

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
	"github.com/rubiojr/omnibox/pkg/realtime"
)

// LaunchStore persists launch history.
type LaunchStore interface {
	RecordLaunch(ctx context.Context, app core.AppEntry, at time.Time) error
	RecentApps(ctx context.Context, limit int) ([]core.AppEntry, error)
}

// Recents publishes the recently launched apps, most recent first.
type Recents struct {
	store  LaunchStore
	limit  int
	hub    *realtime.Hub[[]core.AppEntry]
	logger *log.Logger
	now    func() time.Time

	// mu orders reads of the history with their broadcasts.
	mu sync.Mutex
}

func NewRecents(store LaunchStore, limit int) *Recents {
	if limit <= 0 {
		limit = 8
	}
	return &Recents{
		store:  store,
		limit:  limit,
		hub:    realtime.NewHub[[]core.AppEntry](1),
		logger: log.ForService("recents"),
		now:    time.Now,
	}
}

// Load reads the history and publishes it.
func (r *Recents) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	apps, err := r.store.RecentApps(ctx, r.limit)
	if err != nil {
		return fmt.Errorf("loading recent apps: %w", err)
	}
	if apps == nil {
		apps = []core.AppEntry{}
	}
	r.hub.Broadcast(apps)
	return nil
}

// Record stores a launch of app and publishes the updated list.
func (r *Recents) Record(ctx context.Context, app core.AppEntry) error {
	if err := r.store.RecordLaunch(ctx, app, r.now()); err != nil {
		return err
	}
	r.logger.Debugf("recorded launch of %s", app.ID)
	return r.Load(ctx)
}

// Subscribe streams the recent-apps list. The current list is delivered first.
func (r *Recents) Subscribe() (<-chan []core.AppEntry, func()) {
	return r.hub.Subscribe()
}

// Current returns the last published list.
func (r *Recents) Current() []core.AppEntry {
	apps, _ := r.hub.Latest()
	return apps
}
