package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "public"))
	require.NoError(t, err)
	return s
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "staged.png")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestMove(t *testing.T) {
	s := newStore(t)
	src := writeTemp(t, "png-bytes")

	require.NoError(t, s.EnsureDir("projects/p1"))
	require.NoError(t, s.Move(src, "projects/p1/a.png"))

	assert.True(t, s.Exists("projects/p1/a.png"))
	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	got, err := os.ReadFile(filepath.Join(s.Root(), "projects", "p1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(got))
}

func TestMoveMissingSource(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.EnsureDir("projects/p1"))
	assert.Error(t, s.Move(filepath.Join(t.TempDir(), "gone.png"), "projects/p1/a.png"))
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.EnsureDir("projects/p1"))
	require.NoError(t, s.Move(writeTemp(t, "x"), "projects/p1/a.png"))

	require.NoError(t, s.Remove("projects/p1/a.png"))
	require.NoError(t, s.Remove("projects/p1/a.png"))
	assert.False(t, s.Exists("projects/p1/a.png"))

	require.NoError(t, s.RemoveDir("projects/p1"))
	require.NoError(t, s.RemoveDir("projects/p1"))
	assert.False(t, s.Exists("projects/p1"))
}

func TestPathsStayBelowRoot(t *testing.T) {
	s := newStore(t)

	_, err := s.Abs("../etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)
	assert.ErrorIs(t, s.RemoveDir("."), ErrOutsideRoot)
	assert.ErrorIs(t, s.Move(writeTemp(t, "x"), "../../escape.png"), ErrOutsideRoot)
}

func TestStoreCheck(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Check(context.Background()))

	require.NoError(t, os.RemoveAll(s.Root()))
	err := s.Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootMissing))
}
