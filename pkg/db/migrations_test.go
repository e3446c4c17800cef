package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEmbeddedMigrationsOrdered(t *testing.T) {
	migrations, err := GetEmbeddedMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "launches", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, "contacts", migrations[1].Name)
}

func TestInitializeDatabaseIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, InitializeDatabase(db))
	require.NoError(t, InitializeDatabase(db))

	status, err := NewMigrationManager(db).GetMigrationStatus()
	require.NoError(t, err)
	assert.Len(t, status.Applied, 2)
	assert.Empty(t, status.Pending)

	for _, table := range []string{"launches", "contacts", "contacts_fts"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrationsFromSource(t *testing.T) {
	source := fstest.MapFS{
		"001_one.sql": {Data: []byte("CREATE TABLE one (id INTEGER);")},
		"002_two.sql": {Data: []byte("CREATE TABLE two (id INTEGER);")},
		"README.md":   {Data: []byte("ignored")},
	}

	db := openTestDB(t)
	m := newMigrationManager(db, source)

	status, err := m.GetMigrationStatus()
	require.NoError(t, err)
	assert.Empty(t, status.Applied)
	assert.Len(t, status.Pending, 2)

	require.NoError(t, m.ApplyPendingMigrations())

	status, err = m.GetMigrationStatus()
	require.NoError(t, err)
	assert.Len(t, status.Applied, 2)
	assert.Empty(t, status.Pending)
	require.NotNil(t, status.Applied[0].AppliedAt)
}

func TestFailedMigrationRollsBack(t *testing.T) {
	source := fstest.MapFS{
		"001_bad.sql": {Data: []byte("CREATE TABLE ok (id INTEGER); THIS IS NOT SQL;")},
	}

	db := openTestDB(t)
	m := newMigrationManager(db, source)
	require.Error(t, m.ApplyPendingMigrations())

	status, err := m.GetMigrationStatus()
	require.NoError(t, err)
	assert.Empty(t, status.Applied)
	assert.Len(t, status.Pending, 1)
}
