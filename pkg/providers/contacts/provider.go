package contacts

import (
	"context"
	"fmt"
	"strings"

	"github.com/rubiojr/omnibox/pkg/core"
)

func init() {
	core.RegisterProviderPrototype("contacts", &Provider{desc: descriptor("contacts"), config: &Config{}})
}

const DefaultMaxResults = 10

type Config struct {
	MaxResults int `toml:"max_results"`
}

func (c *Config) Validate() error {
	if c.MaxResults < 0 {
		return fmt.Errorf("max_results must be positive")
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
	return nil
}

// Provider searches the local address book. It needs the contacts permission;
// without it every query, empty or not, yields a single permission prompt.
type Provider struct {
	desc   core.Descriptor
	config *Config
	env    *core.Env
}

func descriptor(id string) core.Descriptor {
	return core.Descriptor{
		ID:            id,
		Type:          "contacts",
		DefaultPrefix: "c",
		Name:          "Contacts",
		Description:   "Search your contacts",
		AccentColor:   "#34A853",
		Icon:          "x-office-address-book",
		Permission:    core.PermissionContacts,
	}
}

func (p *Provider) Descriptor() core.Descriptor {
	return p.desc
}

func (p *Provider) Search(ctx context.Context, query string) ([]core.Result, error) {
	if !p.env.Granted(core.PermissionContacts) {
		return []core.Result{core.PermissionRequiredResult{
			ProviderID: p.desc.ID,
			Permission: core.PermissionContacts,
			Message:    "Allow access to your contacts to search them",
		}}, nil
	}

	q := strings.TrimSpace(query)
	if q == "" || p.env.Contacts == nil {
		return []core.Result{}, nil
	}

	found, err := p.env.Contacts.SearchContacts(ctx, q, p.config.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("searching contacts: %w", err)
	}
	results := make([]core.Result, 0, len(found))
	for _, c := range found {
		results = append(results, c)
	}
	return results, nil
}

func (p *Provider) ConfigType() interface{} {
	return &Config{}
}

func (p *Provider) Factory(id string, config interface{}, env *core.Env) (core.Provider, error) {
	cfg := &Config{MaxResults: DefaultMaxResults}
	if config != nil {
		c, ok := config.(*Config)
		if !ok {
			return nil, fmt.Errorf("invalid config type for contacts provider")
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = c
	}
	if env == nil {
		env = &core.Env{}
	}
	return &Provider{desc: descriptor(id), config: cfg, env: env}, nil
}
