package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
	"github.com/rubiojr/omnibox/pkg/query"
	"github.com/rubiojr/omnibox/pkg/realtime"
)

// State is the observable session state. Subscribers receive copies;
// Results is never mutated after publication.
type State struct {
	Query          string           `json:"query"`
	ProviderActive bool             `json:"provider_active"`
	Provider       *core.Descriptor `json:"provider,omitempty"`
	Loading        bool             `json:"loading"`
	Results        []core.Result    `json:"-"`
	Generation     uint64           `json:"generation"`
}

// Session owns the query text of one search box and publishes its results.
//
// A Session is Idle until Open and returns to Idle on Close. All methods are
// safe for concurrent use.
type Session struct {
	dispatcher *Dispatcher
	hub        *realtime.Hub[State]
	debounce   time.Duration
	perms      PermissionSetter
	logger     *log.Logger

	mu      sync.Mutex
	open    bool
	state   State
	gen     uint64
	cancel  context.CancelFunc
	recent  []core.AppEntry
	baseCtx context.Context
	stop    context.CancelFunc
}

// NewSession creates an idle session. Only Debounce and Permissions are read
// from opts; result limits belong to the dispatcher.
func NewSession(d *Dispatcher, opts Options) *Session {
	return &Session{
		dispatcher: d,
		hub:        realtime.NewHub[State](16),
		debounce:   opts.Debounce,
		perms:      opts.Permissions,
		logger:     log.ForService("session"),
	}
}

// Subscribe returns a channel of state snapshots and a function to stop them.
// The latest state is delivered first. Slow subscribers skip intermediate states.
func (s *Session) Subscribe() (<-chan State, func()) {
	return s.hub.Subscribe()
}

// Current returns the latest state.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsOpen reports whether the session is active.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Open activates the session. It follows the recent-apps stream until ctx is
// done or Close is called, and publishes the empty-query state.
func (s *Session) Open(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return
	}

	s.baseCtx, s.stop = context.WithCancel(ctx)
	s.open = true
	s.state = State{}
	s.recent = nil

	if apps := s.dispatcher.apps; apps != nil {
		ch, stopRecents := apps.RecentApps()
		go s.followRecents(s.baseCtx, ch, stopRecents)
	}

	s.startLocked("")
	s.logger.Debugf("session opened")
}

// Close cancels in-flight work and publishes the initial empty state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.stop()
	s.open = false
	s.gen++
	s.recent = nil
	s.state = State{Generation: s.gen}
	s.publishLocked()
	s.logger.Debugf("session closed at generation %d", s.gen)
}

// OnQueryChanged starts a new generation for text. Re-submitting the current
// text is ignored.
func (s *Session) OnQueryChanged(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || text == s.state.Query {
		return
	}
	s.startLocked(text)
}

// Refresh re-runs the current text as a new generation.
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	s.startLocked(s.state.Query)
}

// OnPermissionStateChanged records a permission decision for providerID and
// re-runs the current text when that provider is active.
func (s *Session) OnPermissionStateChanged(providerID string, granted bool) {
	if s.perms != nil {
		if p, err := s.dispatcher.registry.GetProvider(providerID); err == nil {
			if perm := p.Descriptor().Permission; perm != core.PermissionNone {
				s.perms.Set(perm, granted)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || !s.state.ProviderActive || s.state.Provider == nil {
		return
	}
	if s.state.Provider.ID != providerID {
		return
	}
	s.logger.Debugf("permission for %s changed (granted=%v), re-running", providerID, granted)
	s.startLocked(s.state.Query)
}

// FollowSettings applies every prefix configuration from src to the registry
// and refreshes the session. It returns when ctx is done or src stops.
func (s *Session) FollowSettings(ctx context.Context, src SettingsSource) {
	ch, stop := src.PrefixConfigs()
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok {
				return
			}
			conflicts := s.dispatcher.registry.UpdatePrefixConfig(cfg)
			s.logger.Infof("prefix configuration updated (%d conflicts)", len(conflicts))
			s.Refresh()
		}
	}
}

func (s *Session) followRecents(ctx context.Context, ch <-chan []core.AppEntry, stop func()) {
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case apps, ok := <-ch:
			if !ok {
				return
			}
			s.onRecents(ctx, apps)
		}
	}
}

func (s *Session) onRecents(ctx context.Context, apps []core.AppEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A recents update racing with Close/Open must not leak into the next session.
	if !s.open || ctx.Err() != nil {
		return
	}
	s.recent = apps
	if isBlank(s.dispatcher.Parse(s.state.Query)) {
		s.startLocked(s.state.Query)
	}
}

// startLocked begins a new generation. s.mu must be held.
func (s *Session) startLocked(text string) {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	gen := s.gen

	pq := s.dispatcher.Parse(text)
	if isBlank(pq) {
		s.state = State{
			Query:      text,
			Results:    s.dispatcher.RecentResults(s.recent),
			Generation: gen,
		}
		s.publishLocked()
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.state = State{
		Query:          text,
		ProviderActive: pq.ProviderActive(),
		Provider:       pq.Descriptor,
		Loading:        true,
		Results:        []core.Result{},
		Generation:     gen,
	}
	s.publishLocked()

	go s.run(ctx, gen, pq, s.recent)
}

func (s *Session) run(ctx context.Context, gen uint64, pq query.ParsedQuery, recent []core.AppEntry) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("generation %d: %v", gen, fmt.Errorf("search panicked: %v", r))
			s.finish(gen, []core.Result{})
		}
	}()

	if s.debounce > 0 {
		t := time.NewTimer(s.debounce)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}

	results := s.dispatcher.Run(ctx, pq, recent)
	s.finish(gen, results)
}

// finish publishes results if gen is still the current generation.
func (s *Session) finish(gen uint64, results []core.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || gen != s.gen {
		s.logger.Debugf("dropping stale generation %d (current %d)", gen, s.gen)
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state.Loading = false
	s.state.Results = results
	s.publishLocked()
}

func (s *Session) publishLocked() {
	s.hub.Broadcast(s.state)
}
