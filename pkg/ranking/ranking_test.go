package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rubiojr/omnibox/pkg/core"
)

func app(id, name string) core.AppEntry {
	return core.AppEntry{ID: id, Name: name}
}

func names(apps []core.AppEntry) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.Name)
	}
	return out
}

func TestFilterTierOrdering(t *testing.T) {
	installed := []core.AppEntry{
		app("com.a", "Mail Pro"),
		app("com.b", "Gmail"),
		app("com.c", "Mail"),
	}

	got := Filter("mail", installed, nil)
	assert.Equal(t, []string{"Mail", "Mail Pro", "Gmail"}, names(got))
}

func TestFilterBlankReturnsRecent(t *testing.T) {
	recent := []core.AppEntry{app("r1", "Recent One"), app("r2", "Recent Two")}
	installed := []core.AppEntry{app("x", "Other")}

	assert.Equal(t, recent, Filter("", installed, recent))
	assert.Equal(t, recent, Filter("   ", installed, recent))
}

func TestFilterMatchesID(t *testing.T) {
	installed := []core.AppEntry{
		app("org.mozilla.firefox", "Browser"),
		app("firefox", "Web"),
	}
	got := Filter("firefox", installed, nil)
	assert.Equal(t, []string{"Web", "Browser"}, names(got))
}

func TestFilterOneTierPerApp(t *testing.T) {
	installed := []core.AppEntry{app("cam", "cam")}
	got := Filter("cam", installed, nil)
	assert.Len(t, got, 1)
}

func TestFilterPreservesInputOrderWithinTier(t *testing.T) {
	installed := []core.AppEntry{
		app("1", "Notes B"),
		app("2", "Notes A"),
		app("3", "Notes C"),
	}
	got := Filter("notes", installed, nil)
	assert.Equal(t, []string{"Notes B", "Notes A", "Notes C"}, names(got))
}

func TestFilterCaseInsensitiveUnicode(t *testing.T) {
	installed := []core.AppEntry{app("1", "ÉDITEUR"), app("2", "Straße")}
	assert.Equal(t, []string{"ÉDITEUR"}, names(Filter("éditeur", installed, nil)))
	assert.Equal(t, []string{"Straße"}, names(Filter("STRA", installed, nil)))
}

func TestFilterNoMatch(t *testing.T) {
	got := Filter("zzz", []core.AppEntry{app("1", "Mail")}, nil)
	assert.Empty(t, got)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, TierExact, Classify("Mail", app("x", "mail")))
	assert.Equal(t, TierPrefix, Classify("ma", app("x", "mail")))
	assert.Equal(t, TierSubstring, Classify("ai", app("x", "mail")))
	assert.Equal(t, TierNone, Classify("zz", app("x", "mail")))
	assert.Equal(t, "prefix", TierPrefix.String())
}

func TestLimit(t *testing.T) {
	apps := make([]core.AppEntry, 10)
	assert.Len(t, Limit(apps, 8), 8)
	assert.Len(t, Limit(apps, 0), 10)
	assert.Len(t, Limit(apps[:3], 8), 3)
}
