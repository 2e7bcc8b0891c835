package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexes(t *testing.T) map[string]Index {
	t.Helper()
	sqlite, err := NewSQLiteIndex(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Index{
		"memory": NewMemoryIndex(),
		"sqlite": sqlite,
	}
}

func TestIndex_PutGet(t *testing.T) {
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			entry := Entry{
				Token:     NewToken(),
				Name:      "dQw4w9WgXcQ_a1b2c3d4_0_42.mp4",
				Path:      "/downloads/dQw4w9WgXcQ_a1b2c3d4_0_42.mp4",
				CreatedAt: time.Now().Truncate(time.Second),
			}
			require.NoError(t, idx.Put(ctx, entry))

			got, err := idx.Get(ctx, entry.Token)
			require.NoError(t, err)
			assert.Equal(t, entry.Name, got.Name)
			assert.Equal(t, entry.Path, got.Path)
			assert.True(t, entry.CreatedAt.Equal(got.CreatedAt))

			assert.ErrorIs(t, idx.Put(ctx, entry), ErrDuplicateToken)
		})
	}
}

func TestIndex_UnknownToken(t *testing.T) {
	for name, idx := range indexes(t) {
		t.Run(name, func(t *testing.T) {
			_, err := idx.Get(context.Background(), "../../etc/passwd")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSQLiteIndex_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	first, err := NewSQLiteIndex(path)
	require.NoError(t, err)
	token := NewToken()
	require.NoError(t, first.Put(ctx, Entry{Token: token, Name: "a.mp4", Path: "/a.mp4", CreatedAt: time.Now()}))
	require.NoError(t, first.Close())

	second, err := NewSQLiteIndex(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a.mp4", got.Name)
}

func TestOpen(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, &MemoryIndex{}, idx)

	idx, err = Open(filepath.Join(t.TempDir(), "i.db"))
	require.NoError(t, err)
	defer idx.Close()
	assert.IsType(t, &SQLiteIndex{}, idx)
}

func TestNewToken_Unique(t *testing.T) {
	assert.NotEqual(t, NewToken(), NewToken())
}
