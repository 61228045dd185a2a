package personality

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "traits.json")
	s := NewJSONFileStore(path)

	traits, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, traits)
	assert.NotNil(t, traits)

	require.NoError(t, s.Save(ctx, TraitMap{"curiosity": 0.98}))
	traits, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, TraitMap{"curiosity": 0.98}, traits)
}

func TestJSONFileStore_CorruptFileIsEmptyAndOverwritten(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "traits.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s := NewJSONFileStore(path)

	traits, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, traits)

	traits.Grow([]string{"calm"})
	require.NoError(t, s.Save(ctx, traits))

	reloaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, TraitMap{"calm": 0.2}, reloaded)
}

func TestJSONFileStore_NullAndOutOfRange(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "traits.json")
	s := NewJSONFileStore(path)

	require.NoError(t, os.WriteFile(path, []byte("null"), 0o644))
	traits, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, traits)

	require.NoError(t, os.WriteFile(path, []byte(`{"a": 0, "b": 2, "c": 0.4}`), 0o644))
	traits, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, TraitMap{"b": 1.0, "c": 0.4}, traits)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "traits.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)

	traits, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, traits)

	require.NoError(t, s.Save(ctx, TraitMap{"curiosity": 0.98, "wary": 0.2}))
	require.NoError(t, s.Save(ctx, TraitMap{"curiosity": 1.0}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	traits, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, TraitMap{"curiosity": 1.0}, traits)
}
