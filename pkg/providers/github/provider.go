package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/log"
)

func init() {
	core.RegisterProviderPrototype("github", &Provider{desc: descriptor("github")})
}

const (
	DefaultMaxResults = 10
	// GitHub allows 10 unauthenticated and 30 authenticated search requests per minute.
	anonymousPerMinute     = 10
	authenticatedPerMinute = 30
)

type Config struct {
	Token      string `toml:"token"`
	Language   string `toml:"language"`
	MaxResults int    `toml:"max_results"`
	APIURL     string `toml:"api_url"`
}

func (c *Config) Validate() error {
	if c.MaxResults < 0 || c.MaxResults > 100 {
		return fmt.Errorf("max_results must be between 1 and 100")
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid api_url %q", c.APIURL)
		}
	}
	return nil
}

// Provider searches GitHub repositories. Requests are rate limited so a
// burst of keystrokes cannot exhaust the search API quota.
type Provider struct {
	desc    core.Descriptor
	config  *Config
	client  *github.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

func descriptor(id string) core.Descriptor {
	return core.Descriptor{
		ID:            id,
		Type:          "github",
		DefaultPrefix: "gh",
		Name:          "GitHub",
		Description:   "Search GitHub repositories",
		AccentColor:   "#24292F",
		Icon:          "github",
	}
}

func (p *Provider) Descriptor() core.Descriptor {
	return p.desc
}

func (p *Provider) Search(ctx context.Context, query string) ([]core.Result, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []core.Result{}, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchQuery := q
	if p.config.Language != "" {
		searchQuery = fmt.Sprintf("%s language:%s", q, p.config.Language)
	}

	opts := &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: p.config.MaxResults},
	}
	res, resp, err := p.client.Search.Repositories(ctx, searchQuery, opts)
	if err != nil {
		return nil, fmt.Errorf("searching repositories: %w", err)
	}
	if resp != nil {
		p.logger.Debugf("search %q: %d results, %d requests remaining", searchQuery, res.GetTotal(), resp.Rate.Remaining)
	}

	results := make([]core.Result, 0, len(res.Repositories))
	for _, repo := range res.Repositories {
		if len(results) == p.config.MaxResults {
			break
		}
		results = append(results, core.WebResult{
			Query:    repo.GetFullName(),
			URL:      repo.GetHTMLURL(),
			Subtitle: subtitle(repo),
		})
	}
	return results, nil
}

func subtitle(repo *github.Repository) string {
	parts := []string{fmt.Sprintf("★ %d", repo.GetStargazersCount())}
	if lang := repo.GetLanguage(); lang != "" {
		parts = append(parts, lang)
	}
	if desc := repo.GetDescription(); desc != "" {
		parts = append(parts, desc)
	}
	return strings.Join(parts, " · ")
}

func (p *Provider) ConfigType() interface{} {
	return &Config{}
}

func (p *Provider) Factory(id string, config interface{}, env *core.Env) (core.Provider, error) {
	cfg := &Config{MaxResults: DefaultMaxResults}
	if config != nil {
		c, ok := config.(*Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for github provider")
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = c
	}

	var httpClient *http.Client
	if env != nil {
		httpClient = env.HTTPClient
	}

	perMinute := anonymousPerMinute
	var client *github.Client
	if cfg.Token != "" {
		ctx := context.Background()
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		client = github.NewClient(oauth2.NewClient(ctx, ts))
		perMinute = authenticatedPerMinute
	} else {
		client = github.NewClient(httpClient)
	}

	if cfg.APIURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid api_url: %w", err)
		}
		client.BaseURL = base
	}

	return &Provider{
		desc:    descriptor(id),
		config:  cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 2),
		logger:  log.ForService("github"),
	}, nil
}
