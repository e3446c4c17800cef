package core

import (
	"context"
	"net/http"
)

// Permission names a runtime permission a provider needs before it can return
// real results. An empty Permission means the provider is always available.
type Permission string

const (
	PermissionNone     Permission = ""
	PermissionContacts Permission = "contacts"
	PermissionFiles    Permission = "files"
)

// Descriptor is the static, immutable description of a provider instance.
//
// ID is the instance name used in configuration and in the [prefixes] table
// (e.g. "web" or "ddg"), Type is the prototype it was built from
// (e.g. "web"). Two instances of the same type have different IDs.
type Descriptor struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	DefaultPrefix string     `json:"default_prefix"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	AccentColor   string     `json:"accent_color"`
	Icon          string     `json:"icon"`
	Permission    Permission `json:"permission,omitempty"`
}

// Provider is a pluggable search strategy reachable through one or more prefixes.
//
// Providers are self-contained units that:
// - Describe themselves through an immutable Descriptor
// - Search their backing source for the text that followed the prefix
// - Represent "no data" and "no permission" as results, not errors
//
// Search receives the remainder exactly as typed after the prefix and its
// separating space. Implementations trim it themselves.
//
// Implementation guidelines:
// - Respect context cancellation; a new keystroke cancels the previous search
// - Return an empty slice when the trimmed query is empty
// - Return a PermissionRequiredResult instead of an error when a permission is missing
// - Errors are reserved for real failures (I/O, network) and are logged by the caller
//
// Example implementation pattern:
//
//	type MyProvider struct {
//		desc   core.Descriptor
//		config *Config
//	}
//
//	func (p *MyProvider) Descriptor() core.Descriptor { return p.desc }
//	func (p *MyProvider) Search(ctx context.Context, q string) ([]core.Result, error) { ... }
//
// Registration pattern:
//
//	func init() {
//		core.RegisterProviderPrototype("myprovider", &MyProvider{})
//	}
type Provider interface {
	// Descriptor returns the provider's identity and display metadata.
	Descriptor() Descriptor

	// Search returns the results for the text that followed the prefix.
	Search(ctx context.Context, query string) ([]Result, error)
}

// Prototype is a Provider that can build configured instances of itself.
// Prototypes are registered from init() and instantiated from the
// [providers.<id>] configuration entries.
type Prototype interface {
	Provider

	// ConfigType returns a pointer to an empty configuration struct.
	// Raw TOML configuration is converted into this type before Factory is called.
	ConfigType() interface{}

	// Factory creates a new provider instance named id.
	// config is either nil (defaults) or the value returned by ConfigType, filled in.
	Factory(id string, config interface{}, env *Env) (Provider, error)
}

// PermissionChecker reports whether a permission is currently granted.
type PermissionChecker interface {
	Granted(p Permission) bool
}

// ContactLookup is the contact store consumed by the contacts provider.
type ContactLookup interface {
	SearchContacts(ctx context.Context, query string, limit int) ([]ContactResult, error)
}

// Env carries the shared collaborators a provider may need at construction time.
// Any field may be nil; providers fall back to sensible defaults.
type Env struct {
	Permissions PermissionChecker
	Contacts    ContactLookup
	HTTPClient  *http.Client
}

// Granted reports whether p is granted according to the environment.
// A nil checker grants nothing except PermissionNone.
func (e *Env) Granted(p Permission) bool {
	if p == PermissionNone {
		return true
	}
	if e == nil || e.Permissions == nil {
		return false
	}
	return e.Permissions.Granted(p)
}
