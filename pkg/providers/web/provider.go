package web

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/weburl"
)

func init() {
	core.RegisterProviderPrototype("web", &Provider{desc: descriptor("web"), config: defaultConfig()})
}

const (
	DefaultEngine      = "Google"
	DefaultURLTemplate = "https://www.google.com/search?q=%s"
)

type Config struct {
	Engine      string `toml:"engine"`
	URLTemplate string `toml:"url_template"`
}

func defaultConfig() *Config {
	return &Config{Engine: DefaultEngine, URLTemplate: DefaultURLTemplate}
}

func (c *Config) Validate() error {
	if c.URLTemplate == "" {
		c.URLTemplate = DefaultURLTemplate
	}
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	if strings.Count(c.URLTemplate, "%s") != 1 {
		return fmt.Errorf("url_template must contain exactly one %%s placeholder")
	}
	u, err := url.Parse(strings.Replace(c.URLTemplate, "%s", "q", 1))
	if err != nil {
		return fmt.Errorf("invalid url_template: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url_template must be an http or https URL")
	}
	return nil
}

// Provider turns the query into a search-engine URL. When the query itself
// looks like a URL it is offered first so "w example.com" can open the site.
type Provider struct {
	desc   core.Descriptor
	config *Config
}

func descriptor(id string) core.Descriptor {
	return core.Descriptor{
		ID:            id,
		Type:          "web",
		DefaultPrefix: "w",
		Name:          "Web search",
		Description:   "Search the web",
		AccentColor:   "#4285F4",
		Icon:          "web-browser",
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

	var results []core.Result
	if m, ok := weburl.Validate(q); ok {
		results = append(results, core.URLResult{URL: m.URL, Display: m.Display})
	}
	results = append(results, core.WebResult{
		Query:  q,
		URL:    p.SearchURL(q),
		Engine: p.config.Engine,
	})
	return results, nil
}

// SearchURL expands the URL template for q.
func (p *Provider) SearchURL(q string) string {
	return strings.Replace(p.config.URLTemplate, "%s", url.QueryEscape(q), 1)
}

func (p *Provider) ConfigType() interface{} {
	return &Config{}
}

func (p *Provider) Factory(id string, config interface{}, env *core.Env) (core.Provider, error) {
	cfg := defaultConfig()
	if config != nil {
		c, ok := config.(*Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for web provider")
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = c
	}

	desc := descriptor(id)
	desc.Name = cfg.Engine
	desc.Description = fmt.Sprintf("Search %s", cfg.Engine)
	return &Provider{desc: desc, config: cfg}, nil
}
