package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
	"github.com/rubiojr/omnibox/pkg/query"
	"github.com/rubiojr/omnibox/pkg/ranking"
	"github.com/rubiojr/omnibox/pkg/weburl"
)

// DefaultMaxAppResults is the number of ranked apps shown on the default path.
const DefaultMaxAppResults = 8

// AppSource provides installed and recently used apps.
type AppSource interface {
	// InstalledApps returns the current snapshot of installed apps.
	InstalledApps() []core.AppEntry

	// RecentApps streams the recent-apps list, most recent first.
	// The returned function stops the stream.
	RecentApps() (<-chan []core.AppEntry, func())
}

// SettingsSource streams prefix configuration snapshots.
type SettingsSource interface {
	PrefixConfigs() (<-chan core.PrefixConfig, func())
}

// Options tune dispatch and session behaviour. Zero values pick defaults.
type Options struct {
	// MaxAppResults caps ranked apps on the default path.
	MaxAppResults int

	// Debounce delays each generation before searching. Zero searches immediately.
	Debounce time.Duration

	// Permissions, when set, is updated by Session.OnPermissionStateChanged.
	Permissions PermissionSetter
}

// PermissionSetter records permission grants reported by the UI.
type PermissionSetter interface {
	Set(p core.Permission, granted bool) bool
}

// Response is the outcome of a one-shot search.
type Response struct {
	Query    string           `json:"query"`
	Provider *core.Descriptor `json:"provider,omitempty"`
	Results  []core.Result    `json:"-"`
	Took     time.Duration    `json:"took"`
}

// Dispatcher executes parsed queries. It holds no per-query state and is
// safe for concurrent use.
type Dispatcher struct {
	registry *core.Registry
	apps     AppSource
	maxApps  int
	logger   *log.Logger
}

// NewDispatcher creates a dispatcher. apps may be nil, in which case the
// default path only performs URL detection.
func NewDispatcher(registry *core.Registry, apps AppSource, opts Options) *Dispatcher {
	maxApps := opts.MaxAppResults
	if maxApps <= 0 {
		maxApps = DefaultMaxAppResults
	}
	return &Dispatcher{
		registry: registry,
		apps:     apps,
		maxApps:  maxApps,
		logger:   log.ForService("dispatch"),
	}
}

// Registry returns the registry queries are routed with.
func (d *Dispatcher) Registry() *core.Registry {
	return d.registry
}

// Parse routes text with the registry's current index.
func (d *Dispatcher) Parse(text string) query.ParsedQuery {
	return query.Parse(text, d.registry.Snapshot())
}

// Search parses and runs text to completion using the current recent apps.
func (d *Dispatcher) Search(ctx context.Context, text string) Response {
	start := time.Now()
	pq := d.Parse(text)
	results := d.Run(ctx, pq, d.currentRecent())
	return Response{
		Query:    text,
		Provider: pq.Descriptor,
		Results:  results,
		Took:     time.Since(start),
	}
}

// Run executes a parsed query. It never returns nil and never panics because
// of a provider.
func (d *Dispatcher) Run(ctx context.Context, pq query.ParsedQuery, recent []core.AppEntry) []core.Result {
	if pq.Provider != nil {
		return d.searchProvider(ctx, pq.Provider, pq.Remainder)
	}
	return d.searchDefault(ctx, pq.Remainder, recent)
}

// RecentResults wraps recent apps as results for an empty query.
func (d *Dispatcher) RecentResults(recent []core.AppEntry) []core.Result {
	return core.AppResults(recent)
}

func (d *Dispatcher) searchProvider(ctx context.Context, p core.Provider, text string) (results []core.Result) {
	desc := p.Descriptor()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("provider %s panicked: %v", desc.ID, r)
			results = []core.Result{}
		}
	}()

	res, err := p.Search(ctx, text)
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Errorf("provider %s search failed: %v", desc.ID, err)
		} else {
			d.logger.Debugf("provider %s search cancelled: %v", desc.ID, err)
		}
		return []core.Result{}
	}
	if res == nil {
		return []core.Result{}
	}
	return res
}

func (d *Dispatcher) searchDefault(ctx context.Context, text string, recent []core.AppEntry) []core.Result {
	var (
		match  weburl.Match
		isURL  bool
		ranked []core.AppEntry
	)

	var g errgroup.Group
	g.Go(func() error {
		match, isURL = weburl.Validate(text)
		return nil
	})
	g.Go(func() error {
		var installed []core.AppEntry
		if d.apps != nil {
			installed = d.apps.InstalledApps()
		}
		ranked = ranking.Limit(ranking.Filter(text, installed, recent), d.maxApps)
		return nil
	})
	if err := g.Wait(); err != nil {
		d.logger.Errorf("default search for %q: %v", text, err)
		return []core.Result{}
	}

	if ctx.Err() != nil {
		return []core.Result{}
	}

	results := make([]core.Result, 0, len(ranked)+1)
	if isURL {
		results = append(results, core.URLResult{URL: match.URL, Display: match.Display})
	}
	return append(results, core.AppResults(ranked)...)
}

func (d *Dispatcher) currentRecent() []core.AppEntry {
	if d.apps == nil {
		return nil
	}
	ch, stop := d.apps.RecentApps()
	defer stop()
	select {
	case recent, ok := <-ch:
		if ok {
			return recent
		}
	default:
	}
	return nil
}

// isBlank reports whether text takes the empty-query path.
func isBlank(pq query.ParsedQuery) bool {
	return pq.Provider == nil && strings.TrimSpace(pq.Remainder) == ""
}

func (r Response) String() string {
	if r.Provider != nil {
		return fmt.Sprintf("%q via %s: %d results", r.Query, r.Provider.ID, len(r.Results))
	}
	return fmt.Sprintf("%q: %d results", r.Query, len(r.Results))
}
