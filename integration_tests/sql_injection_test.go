package integration_tests

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rubiojr/omnibox/pkg/core"
	"github.com/rubiojr/omnibox/pkg/storage"
)

func TestContactSearchInjectionProtection(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "omnibox.db"))
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close storage: %v", err)
		}
	}()

	ctx := context.Background()
	seed := []core.ContactResult{
		{Name: "Alice Smith", Email: "alice@example.com"},
		{Name: "Bob Tables", Phone: "555-0100"},
		{Name: "DROP TABLE contacts"},
	}
	if _, err := store.AddContacts(ctx, seed); err != nil {
		t.Fatalf("Failed to add contacts: %v", err)
	}

	attempts := []struct {
		name  string
		query string
	}{
		{"quote escape", "'; DROP TABLE contacts; --"},
		{"union select", "x' UNION SELECT id, name, phone, email FROM contacts --"},
		{"fts operator", "alice OR bob"},
		{"fts column filter", "name:alice"},
		{"fts near", "NEAR(alice bob)"},
		{"unbalanced quote", `"bob`},
		{"bare star", "*"},
		{"only punctuation", "()^-"},
	}

	for _, tc := range attempts {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.SearchContacts(ctx, tc.query, 10); err != nil {
				t.Errorf("Search %q failed: %v", tc.query, err)
			}
		})
	}

	count, err := store.CountContacts(ctx)
	if err != nil {
		t.Fatalf("Failed to count contacts: %v", err)
	}
	if count != len(seed) {
		t.Fatalf("Expected %d contacts after injection attempts, got %d", len(seed), count)
	}

	// Operators are matched as literal words, not interpreted.
	results, err := store.SearchContacts(ctx, "alice OR bob", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected OR to be treated literally, got %d results", len(results))
	}
}
