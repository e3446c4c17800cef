// Package ranking filters installed apps against typed text.
package ranking

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rubiojr/omnibox/pkg/core"
)

// Tier is the strength of a match, strongest first.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierPrefix
	TierSubstring
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierPrefix:
		return "prefix"
	case TierSubstring:
		return "substring"
	default:
		return "none"
	}
}

// Filter ranks installed apps for query.
//
// A blank query returns recent unchanged. Otherwise each app lands in the
// first tier it satisfies against its name or ID: exact, then prefix, then
// substring. Tiers are concatenated in that order and apps keep their input
// order inside a tier. Matching is case-insensitive. No limit is applied.
func Filter(query string, installed, recent []core.AppEntry) []core.AppEntry {
	q := strings.TrimSpace(query)
	if q == "" {
		return recent
	}

	lower := cases.Lower(language.Und)
	q = lower.String(q)

	var exact, prefix, substring []core.AppEntry
	for _, app := range installed {
		switch classify(q, lower.String(app.Name), lower.String(app.ID)) {
		case TierExact:
			exact = append(exact, app)
		case TierPrefix:
			prefix = append(prefix, app)
		case TierSubstring:
			substring = append(substring, app)
		}
	}

	out := make([]core.AppEntry, 0, len(exact)+len(prefix)+len(substring))
	out = append(out, exact...)
	out = append(out, prefix...)
	return append(out, substring...)
}

// Classify returns the tier of app for an already trimmed query.
func Classify(query string, app core.AppEntry) Tier {
	lower := cases.Lower(language.Und)
	return classify(lower.String(query), lower.String(app.Name), lower.String(app.ID))
}

func classify(q, name, id string) Tier {
	switch {
	case name == q || id == q:
		return TierExact
	case strings.HasPrefix(name, q) || strings.HasPrefix(id, q):
		return TierPrefix
	case strings.Contains(name, q) || strings.Contains(id, q):
		return TierSubstring
	default:
		return TierNone
	}
}

// Limit truncates apps to at most n entries. n <= 0 means no limit.
func Limit(apps []core.AppEntry, n int) []core.AppEntry {
	if n <= 0 || len(apps) <= n {
		return apps
	}
	return apps[:n]
}
