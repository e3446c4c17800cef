// Package storage persists launch history and the local address book in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rubiojr/omnibox/pkg/db"
	"github.com/rubiojr/omnibox/pkg/log"
)

// Store is the omnibox database. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

// Open opens (creating if needed) the database at dbPath and applies migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.InitializeDatabase(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	return &Store{db: conn, path: dbPath, logger: log.ForService("storage")}, nil
}

// MigrationStatus reports which schema migrations the database at dbPath has
// applied, without applying any. A missing database has every migration pending.
func MigrationStatus(dbPath string) (*db.MigrationStatus, error) {
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		available, err := db.GetEmbeddedMigrations()
		if err != nil {
			return nil, err
		}
		return &db.MigrationStatus{Pending: available, Available: available}, nil
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	status, err := db.NewMigrationManager(conn).GetMigrationStatus()
	if err != nil {
		return nil, fmt.Errorf("reading migration status: %w", err)
	}
	return status, nil
}

func openConn(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -16000", // 16MB cache
		"PRAGMA temp_store = memory",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	return conn, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				s.logger.Warnf("failed to rollback transaction: %v", err)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}
