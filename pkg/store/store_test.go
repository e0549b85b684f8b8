package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/hullworld/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir, err := NewDir(filepath.Join(t.TempDir(), "worlds"))
	require.NoError(t, err)
	db, err := NewSQLite(filepath.Join(t.TempDir(), "worlds.db"))
	require.NoError(t, err)
	out := map[string]Store{
		KindMemory: NewMemory(),
		KindDir:    dir,
		KindSQLite: db,
	}
	t.Cleanup(func() {
		for _, s := range out {
			s.Close()
		}
	})
	return out
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	shapes := world.StarterShapes()
	shapes[0].AttachedIndices = []int{1}
	shapes[1].AttachedIndices = []int{0}

	for kind, s := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			e, err := s.Save(ctx, "starter", shapes)
			require.NoError(t, err)
			assert.NotEmpty(t, e.ID)
			assert.Equal(t, "starter", e.Name)
			assert.Equal(t, 2, e.Solids)
			assert.False(t, e.UpdatedAt.IsZero())

			got, err := s.Load(ctx, "starter")
			require.NoError(t, err)
			assert.Equal(t, shapes, got)

			w, err := world.FromSerialized(got)
			require.NoError(t, err)
			assert.Equal(t, 2, w.Len())
		})
	}
}

func TestSaveKeepsID(t *testing.T) {
	ctx := context.Background()
	for kind, s := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			first, err := s.Save(ctx, "w", world.StarterShapes())
			require.NoError(t, err)
			second, err := s.Save(ctx, "w", world.StarterShapes()[:1])
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, 1, second.Solids)

			got, err := s.Load(ctx, "w")
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	for kind, s := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			for _, name := range []string{"beta", "alpha", "gamma"} {
				_, err := s.Save(ctx, name, world.StarterShapes())
				require.NoError(t, err)
			}
			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "alpha", list[0].Name)
			assert.Equal(t, "gamma", list[2].Name)

			require.NoError(t, s.Delete(ctx, "beta"))
			assert.ErrorIs(t, s.Delete(ctx, "beta"), ErrNotFound)
			_, err = s.Load(ctx, "beta")
			assert.ErrorIs(t, err, ErrNotFound)

			list, err = s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 2)
		})
	}
}

func TestInvalidNames(t *testing.T) {
	ctx := context.Background()
	for kind, s := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			for _, name := range []string{"", ".hidden", "../escape", "a/b", "with space"} {
				_, err := s.Save(ctx, name, nil)
				assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
			}
		})
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for kind, s := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			_, err := s.Save(ctx, "w", world.StarterShapes())
			assert.Error(t, err)
		})
	}
}

func TestDirIgnoresStrayFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewDir(root)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub.json"), 0o755))
	_, err = d.Save(ctx, "one", world.StarterShapes())
	require.NoError(t, err)

	list, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "one", list[0].Name)
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "w.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	e, err := s.Save(ctx, "kept", world.StarterShapes())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)
	assert.True(t, e.UpdatedAt.Equal(list[0].UpdatedAt))
}

func TestOpen(t *testing.T) {
	s, err := Open(KindMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open("redis", "")
	assert.Error(t, err)
	_, err = Open(KindDir, "")
	assert.Error(t, err)
}
