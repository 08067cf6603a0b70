// ABOUTME: SQLite backend for the document store
// ABOUTME: Stores JSON bodies in one table with revision-guarded single-row writes
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	rev TEXT NOT NULL,
	body BLOB NOT NULL
);
`

// SQLiteBackend stores documents in a SQLite table.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens the database at path with WAL mode. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		dsn = path + "?_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// Single connection: avoids database locked errors and keeps :memory: shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Get(ctx context.Context, id string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return body, err
}

func (s *SQLiteBackend) Put(ctx context.Context, id, expectRev string, body []byte) error {
	rev := revOf(body)

	if expectRev == "" {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO documents (id, rev, body) VALUES (?, ?, ?)
		`, id, rev, body)
		if isConstraintErr(err) {
			return ErrConflict
		}
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET rev = ?, body = ? WHERE id = ? AND rev = ?
	`, rev, body, id, expectRev)
	if err != nil {
		return err
	}
	return s.checkAffected(ctx, result, id)
}

func (s *SQLiteBackend) Delete(ctx context.Context, id, rev string) error {
	var (
		result sql.Result
		err    error
	)
	if rev == "" {
		result, err = s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	} else {
		result, err = s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ? AND rev = ?`, id, rev)
	}
	if err != nil {
		return err
	}
	return s.checkAffected(ctx, result, id)
}

func (s *SQLiteBackend) Scan(ctx context.Context, fn func(id string, body []byte) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, body FROM documents ORDER BY id`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	// Collect first: fn may write back through the single connection.
	type row struct {
		id   string
		body []byte
	}
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.body); err != nil {
			return err
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_ = rows.Close()

	for _, r := range all {
		if err := fn(r.id, r.body); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

// checkAffected distinguishes a missing row from a revision mismatch when a
// guarded write touched nothing.
func (s *SQLiteBackend) checkAffected(ctx context.Context, result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
