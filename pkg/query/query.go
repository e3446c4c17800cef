// Package query turns raw search box text into a routing decision.
package query

import (
	"strings"

	"github.com/rubiojr/omnibox/pkg/core"
)

// ParsedQuery is the routing decision for one input string.
// Provider is nil when the input should go through the default
// (URL + installed apps) path.
type ParsedQuery struct {
	Provider   core.Provider
	Remainder  string
	Descriptor *core.Descriptor
}

// ProviderActive reports whether a provider was matched.
func (q ParsedQuery) ProviderActive() bool {
	return q.Provider != nil
}

// Prefix returns the matched prefix, or "" on the default path.
func (q ParsedQuery) Prefix(input string) string {
	if q.Provider == nil {
		return ""
	}
	head, _, _ := strings.Cut(input, " ")
	return head
}

// Parse routes input using the prefix index.
//
// A provider matches only when input starts with one of its prefixes followed
// by a space. The remainder is everything after that space, untrimmed.
// Prefixes never contain whitespace, so the token before the first space is
// the only possible match and the longest registered prefix always wins.
func Parse(input string, idx *core.Index) ParsedQuery {
	if input == "" {
		return ParsedQuery{}
	}

	head, rest, found := strings.Cut(input, " ")
	if !found || head == "" {
		return ParsedQuery{Remainder: input}
	}

	p := idx.Lookup(head)
	if p == nil {
		return ParsedQuery{Remainder: input}
	}
	desc := p.Descriptor()
	return ParsedQuery{Provider: p, Remainder: rest, Descriptor: &desc}
}
