package core

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// PrefixConfig maps a provider ID to the prefixes that activate it.
// The first prefix of each list is the primary one shown in the UI.
type PrefixConfig map[string][]string

// ValidatePrefix checks that p can be used as a routing prefix.
func ValidatePrefix(p string) error {
	if p == "" {
		return fmt.Errorf("prefix is empty")
	}
	if strings.IndexFunc(p, unicode.IsSpace) >= 0 {
		return fmt.Errorf("prefix %q contains whitespace", p)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c PrefixConfig) Clone() PrefixConfig {
	if c == nil {
		return nil
	}
	out := make(PrefixConfig, len(c))
	for id, prefixes := range c {
		out[id] = append([]string(nil), prefixes...)
	}
	return out
}

// Validate reports the first invalid or duplicated prefix.
// Provider IDs are checked in sorted order so the error is deterministic.
func (c PrefixConfig) Validate() error {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	owner := make(map[string]string)
	for _, id := range ids {
		for _, p := range c[id] {
			if err := ValidatePrefix(p); err != nil {
				return fmt.Errorf("provider %s: %w", id, err)
			}
			if other, ok := owner[p]; ok && other != id {
				return fmt.Errorf("prefix %q is used by both %s and %s", p, other, id)
			}
			owner[p] = id
		}
	}
	return nil
}

// PrefixConflict describes a prefix claim dropped while building an Index.
type PrefixConflict struct {
	Prefix     string `json:"prefix"`
	ProviderID string `json:"provider"`
	// Owner is the provider that kept the prefix. Empty when the prefix was invalid.
	Owner  string `json:"owner,omitempty"`
	Reason string `json:"reason"`
}

func (c PrefixConflict) String() string {
	if c.Owner != "" {
		return fmt.Sprintf("prefix %q of %s dropped: already used by %s", c.Prefix, c.ProviderID, c.Owner)
	}
	return fmt.Sprintf("prefix %q of %s dropped: %s", c.Prefix, c.ProviderID, c.Reason)
}
