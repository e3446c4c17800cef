package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/omnibox/pkg/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "omnibox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecentAppsDistinctMostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	mail := core.AppEntry{ID: "mail", Name: "Mail"}
	web := core.AppEntry{ID: "web", Name: "Browser"}
	notes := core.AppEntry{ID: "notes", Name: "Notes"}

	require.NoError(t, s.RecordLaunch(ctx, mail, base))
	require.NoError(t, s.RecordLaunch(ctx, web, base.Add(time.Minute)))
	require.NoError(t, s.RecordLaunch(ctx, notes, base.Add(2*time.Minute)))
	require.NoError(t, s.RecordLaunch(ctx, mail, base.Add(3*time.Minute)))

	apps, err := s.RecentApps(ctx, 10)
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, []string{"mail", "notes", "web"}, []string{apps[0].ID, apps[1].ID, apps[2].ID})

	apps, err = s.RecentApps(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	launches, err := s.RecentLaunches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, launches, 1)
	assert.True(t, launches[0].LaunchedAt.Equal(base.Add(3*time.Minute)))
}

func TestRecordLaunchRequiresID(t *testing.T) {
	s := openTestStore(t)
	require.Error(t, s.RecordLaunch(context.Background(), core.AppEntry{Name: "x"}, time.Now()))
}

func TestClearLaunches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordLaunch(ctx, core.AppEntry{ID: "a", Name: "A"}, time.Now()))
	require.NoError(t, s.ClearLaunches(ctx))
	apps, err := s.RecentApps(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestContacts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice, err := s.AddContact(ctx, core.ContactResult{Name: "Alice Smith", Phone: "+34 600 111 222", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)

	n, err := s.AddContacts(ctx, []core.ContactResult{
		{Name: "Bob Jones", Email: "bob@example.org"},
		{Name: "Alicia Keys"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := s.CountContacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	found, err := s.SearchContacts(ctx, "ali", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.SearchContacts(ctx, "alice smi", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, alice.ID, found[0].ID)

	found, err = s.SearchContacts(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	// Quotes are treated as text, not FTS syntax.
	found, err = s.SearchContacts(ctx, `"bob`, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bob Jones", found[0].Name)
}

func TestContactUpdateKeepsIndexInSync(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c, err := s.AddContact(ctx, core.ContactResult{Name: "Carol"})
	require.NoError(t, err)

	c.Name = "Caroline Herschel"
	_, err = s.AddContact(ctx, c)
	require.NoError(t, err)

	found, err := s.SearchContacts(ctx, "hersch", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Caroline Herschel", found[0].Name)

	count, err := s.CountContacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.DeleteContact(ctx, c.ID))
	require.Error(t, s.DeleteContact(ctx, c.ID))
	found, err = s.SearchContacts(ctx, "caroline", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAddContactRequiresName(t *testing.T) {
	s := openTestStore(t)
	_, err := s.AddContact(context.Background(), core.ContactResult{Name: "  "})
	require.Error(t, err)
}

func TestFTSPrefixQuery(t *testing.T) {
	assert.Equal(t, `"ali"* "smi"*`, ftsPrefixQuery(" ali  smi "))
	assert.Equal(t, `"a""b"*`, ftsPrefixQuery(`a"b`))
	assert.Equal(t, "", ftsPrefixQuery(""))
}

func TestMigrationStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omnibox.db")

	status, err := MigrationStatus(path)
	require.NoError(t, err)
	assert.Empty(t, status.Applied)
	assert.Len(t, status.Pending, 2)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	status, err = MigrationStatus(path)
	require.NoError(t, err)
	assert.Len(t, status.Applied, 2)
	assert.Empty(t, status.Pending)
	require.NotNil(t, status.Applied[0].AppliedAt)
}
