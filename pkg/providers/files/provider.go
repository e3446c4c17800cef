package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/rubiojr/omnibox/pkg/config"
	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
)

func init() {
	core.RegisterProviderPrototype("files", &Provider{desc: descriptor("files"), config: defaultConfig()})
}

const (
	DefaultMaxDepth   = 6
	DefaultMaxResults = 20
	// maxCandidates caps how many paths a single walk collects before matching.
	maxCandidates = 50000
)

type Config struct {
	Roots      []string `toml:"roots"`
	MaxDepth   int      `toml:"max_depth"`
	MaxResults int      `toml:"max_results"`
	ShowHidden bool     `toml:"show_hidden"`
}

func defaultConfig() *Config {
	return &Config{
		Roots:      []string{"~/Documents", "~/Downloads", "~/Desktop"},
		MaxDepth:   DefaultMaxDepth,
		MaxResults: DefaultMaxResults,
	}
}

func (c *Config) Validate() error {
	if c.MaxDepth < 0 || c.MaxResults < 0 {
		return fmt.Errorf("max_depth and max_results must not be negative")
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if len(c.Roots) == 0 {
		c.Roots = defaultConfig().Roots
	}
	for _, r := range c.Roots {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("roots must not contain empty paths")
		}
	}
	return nil
}

// Provider fuzzy-matches file names below the configured roots.
type Provider struct {
	desc   core.Descriptor
	config *Config
	env    *core.Env
	logger *log.Logger
}

func descriptor(id string) core.Descriptor {
	return core.Descriptor{
		ID:            id,
		Type:          "files",
		DefaultPrefix: "f",
		Name:          "Files",
		Description:   "Find files by name",
		AccentColor:   "#F4B400",
		Icon:          "system-file-manager",
		Permission:    core.PermissionFiles,
	}
}

func (p *Provider) Descriptor() core.Descriptor {
	return p.desc
}

type candidate struct {
	path  string
	name  string
	isDir bool
	entry fs.DirEntry
}

// candidates implements fuzzy.Source over the collected paths.
type candidates []candidate

func (c candidates) String(i int) string { return c[i].name }
func (c candidates) Len() int            { return len(c) }

func (p *Provider) Search(ctx context.Context, query string) ([]core.Result, error) {
	if !p.env.Granted(core.PermissionFiles) {
		return []core.Result{core.PermissionRequiredResult{
			ProviderID: p.desc.ID,
			Permission: core.PermissionFiles,
			Message:    "Allow access to your files to search them",
		}}, nil
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return []core.Result{}, nil
	}

	var all candidates
	for _, root := range p.config.Roots {
		found, err := p.walk(ctx, config.ExpandHome(root))
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}

	matches := fuzzy.FindFrom(q, all)
	limit := p.config.MaxResults
	if len(matches) < limit {
		limit = len(matches)
	}

	results := make([]core.Result, 0, limit)
	for _, m := range matches[:limit] {
		c := all[m.Index]
		r := core.FileResult{Path: c.path, Name: c.name, IsDir: c.isDir}
		if info, err := c.entry.Info(); err == nil {
			r.Size = info.Size()
			r.ModTime = info.ModTime()
		}
		results = append(results, r)
	}
	return results, nil
}

// walk collects the entries below root, honouring ctx between entries.
// A missing root is not an error.
func (p *Provider) walk(ctx context.Context, root string) (candidates, error) {
	if _, err := os.Stat(root); err != nil {
		p.logger.Debugf("skipping root %s: %v", root, err)
		return nil, nil
	}

	var found candidates
	errLimit := errors.New("candidate limit reached")
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// unreadable directory
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if !p.config.ShowHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		found = append(found, candidate{
			path:  path,
			name:  d.Name(),
			isDir: d.IsDir(),
			entry: d,
		})
		if len(found) >= maxCandidates {
			return errLimit
		}
		if d.IsDir() && depth >= p.config.MaxDepth {
			return fs.SkipDir
		}
		return nil
	})
	if errors.Is(err, errLimit) {
		p.logger.Warnf("stopped walking %s after %d entries", root, maxCandidates)
		return found, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return found, nil
}

func (p *Provider) ConfigType() interface{} {
	return &Config{}
}

func (p *Provider) Factory(id string, config interface{}, env *core.Env) (core.Provider, error) {
	cfg := defaultConfig()
	if config != nil {
		c, ok := config.(*Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for files provider")
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = c
	}
	if env == nil {
		env = &core.Env{}
	}
	return &Provider{
		desc:   descriptor(id),
		config: cfg,
		env:    env,
		logger: log.ForService("files"),
	}, nil
}
