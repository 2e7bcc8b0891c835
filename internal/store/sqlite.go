package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// SQLiteIndex persists tokens so segment links survive restarts
type SQLiteIndex struct {
	db *sql.DB
}

var _ Index = (*SQLiteIndex)(nil)

// NewSQLiteIndex opens or creates the index database at dbPath
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", dbPath, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS segments (
			token TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}

	return &SQLiteIndex{db: db}, nil
}

// Put registers an entry
func (s *SQLiteIndex) Put(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO segments (token, name, path, created_at) VALUES (?, ?, ?, ?)",
		entry.Token, entry.Name, entry.Path, entry.CreatedAt.UTC(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

// Get resolves a token
func (s *SQLiteIndex) Get(ctx context.Context, token string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT token, name, path, created_at FROM segments WHERE token = ?", token)

	var e Entry
	if err := row.Scan(&e.Token, &e.Name, &e.Path, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Close releases the database handle
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
