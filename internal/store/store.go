// Package store maps opaque segment tokens to files in the output directory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown tokens
var ErrNotFound = errors.New("segment not found")

// ErrDuplicateToken is returned when a token is registered twice
var ErrDuplicateToken = errors.New("segment token already exists")

// Entry is one published segment
type Entry struct {
	Token     string
	Name      string
	Path      string
	CreatedAt time.Time
}

// Index resolves tokens issued to clients
type Index interface {
	Put(ctx context.Context, entry Entry) error
	Get(ctx context.Context, token string) (*Entry, error)
	Close() error
}

// NewToken returns a fresh unguessable token
func NewToken() string {
	return uuid.NewString()
}

// Open returns a SQLite index at path, or an in-memory one when path is empty
func Open(path string) (Index, error) {
	if path == "" {
		return NewMemoryIndex(), nil
	}
	return NewSQLiteIndex(path)
}
