package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	derrors "git.home.luguber.info/inful/hxshowcase/internal/foundation/errors"
)

// Store keeps contacts in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens dsn and seeds an empty table. Use ":memory:" for a private
// in-memory database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStorage, "open sqlite database").Build()
	}
	// Every pooled connection to ":memory:" would get its own database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.initialize(ctx); err != nil {
		_ = db.Close()
		return nil, derrors.WrapError(err, derrors.CategoryStorage, "initialize contacts schema").Build()
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS contacts (
		id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL
	);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts").Scan(&n); err != nil {
		return fmt.Errorf("count contacts: %w", err)
	}
	if n > 0 {
		return nil
	}
	return s.Reset(ctx)
}

// Get returns the contact with id.
func (s *Store) Get(ctx context.Context, id int64) (Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Contact
	err := s.db.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, email FROM contacts WHERE id = ?", id,
	).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, notFound(id)
	}
	if err != nil {
		return Contact{}, derrors.WrapError(err, derrors.CategoryStorage, "query contact").
			WithContext("id", id).Build()
	}
	return c, nil
}

// List returns every contact ordered by id.
func (s *Store) List(ctx context.Context) ([]Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, first_name, last_name, email FROM contacts ORDER BY id")
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStorage, "query contacts").Build()
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryStorage, "scan contact").Build()
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStorage, "iterate contacts").Build()
	}
	return out, nil
}

// Update normalizes and validates c, then overwrites the stored record.
func (s *Store) Update(ctx context.Context, c Contact) (Contact, error) {
	c.Normalize()
	if problems := c.Validate(); problems != nil {
		return c, ValidationError(problems)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE contacts SET first_name = ?, last_name = ?, email = ? WHERE id = ?",
		c.FirstName, c.LastName, c.Email, c.ID,
	)
	if err != nil {
		return c, derrors.WrapError(err, derrors.CategoryStorage, "update contact").
			WithContext("id", c.ID).Build()
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return c, notFound(c.ID)
	}
	return c, nil
}

// Reset replaces every contact with Seed.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryStorage, "begin reset").Build()
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM contacts"); err != nil {
		return derrors.WrapError(err, derrors.CategoryStorage, "clear contacts").Build()
	}
	for _, c := range Seed {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO contacts (id, first_name, last_name, email) VALUES (?, ?, ?, ?)",
			c.ID, c.FirstName, c.LastName, c.Email,
		); err != nil {
			return derrors.WrapError(err, derrors.CategoryStorage, "seed contact").
				WithContext("id", c.ID).Build()
		}
	}
	if err := tx.Commit(); err != nil {
		return derrors.WrapError(err, derrors.CategoryStorage, "commit reset").Build()
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ParseID parses a path segment as a contact id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, derrors.ValidationError("invalid contact id").WithContext("id", raw).Build()
	}
	return id, nil
}

func notFound(id int64) error {
	return derrors.NotFoundError("contact not found").WithContext("id", id).Build()
}
