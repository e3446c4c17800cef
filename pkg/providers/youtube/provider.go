package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rubiojr/omnibox/pkg/core"
)

func init() {
	core.RegisterProviderPrototype("youtube", &Provider{desc: descriptor("youtube")})
}

const searchURL = "https://www.youtube.com/results?search_query="

type Config struct{}

type Provider struct {
	desc core.Descriptor
}

func descriptor(id string) core.Descriptor {
	return core.Descriptor{
		ID:            id,
		Type:          "youtube",
		DefaultPrefix: "y",
		Name:          "YouTube",
		Description:   "Search YouTube videos",
		AccentColor:   "#FF0000",
		Icon:          "youtube",
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
	return []core.Result{
		core.YouTubeResult{Query: q, URL: searchURL + url.QueryEscape(q)},
	}, nil
}

func (p *Provider) ConfigType() interface{} {
	return &Config{}
}

func (p *Provider) Factory(id string, config interface{}, env *core.Env) (core.Provider, error) {
	if config != nil {
		if _, ok := config.(*Config); !ok {
			return nil, fmt.Errorf("invalid config type for youtube provider")
		}
	}
	return &Provider{desc: descriptor(id)}, nil
}
