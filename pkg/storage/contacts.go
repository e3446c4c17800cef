package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/rubiojr/omnibox/pkg/core"
)

// AddContact inserts or updates a contact. A missing ID is generated.
func (s *Store) AddContact(ctx context.Context, c core.ContactResult) (core.ContactResult, error) {
	var out core.ContactResult
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		out, err = upsertContact(ctx, tx, c)
		return err
	})
	return out, err
}

// AddContacts upserts many contacts in one transaction and returns how many were stored.
func (s *Store) AddContacts(ctx context.Context, contacts []core.ContactResult) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}
	err := s.withTx(func(tx *sql.Tx) error {
		for _, c := range contacts {
			if _, err := upsertContact(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(contacts), nil
}

func upsertContact(ctx context.Context, tx *sql.Tx, c core.ContactResult) (core.ContactResult, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, fmt.Errorf("adding contact: name is empty")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	// ON CONFLICT keeps the row (and its FTS entry) instead of REPLACE's delete+insert.
	_, err := tx.ExecContext(ctx, `
		INSERT INTO contacts (id, name, phone, email) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, phone = excluded.phone, email = excluded.email`,
		c.ID, c.Name, c.Phone, c.Email,
	)
	if err != nil {
		return c, fmt.Errorf("adding contact %s: %w", c.Name, err)
	}
	return c, nil
}

// DeleteContact removes a contact by ID.
func (s *Store) DeleteContact(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contact %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contact %s not found", id)
	}
	return nil
}

// SearchContacts returns contacts whose name, phone or email match every
// word of query as a prefix. It implements core.ContactLookup.
func (s *Store) SearchContacts(ctx context.Context, query string, limit int) ([]core.ContactResult, error) {
	match := ftsPrefixQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.phone, c.email
		FROM contacts_fts
		JOIN contacts c ON c.rowid = contacts_fts.rowid
		WHERE contacts_fts MATCH ?
		ORDER BY rank, c.name
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching contacts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("failed to close rows: %v", err)
		}
	}()

	var contacts []core.ContactResult
	for rows.Next() {
		var c core.ContactResult
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ListContacts returns every contact ordered by name.
func (s *Store) ListContacts(ctx context.Context) ([]core.ContactResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, phone, email FROM contacts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("failed to close rows: %v", err)
		}
	}()

	var contacts []core.ContactResult
	for rows.Next() {
		var c core.ContactResult
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// CountContacts returns the number of stored contacts.
func (s *Store) CountContacts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return n, nil
}

// ftsPrefixQuery turns free text into an FTS5 query where every word is a
// quoted prefix term, so user input can never inject FTS syntax.
func ftsPrefixQuery(query string) string {
	words := strings.Fields(query)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		// Words without letters or digits produce no tokens.
		if !strings.ContainsFunc(w, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(w, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " ")
}
