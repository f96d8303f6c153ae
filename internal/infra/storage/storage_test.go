package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.jpg", "a.JPEG", "c.png", "notes.txt", ".hidden.jpg", "d.jpg.tmp")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	s := New()
	files, err := s.List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.JPEG"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "c.png"),
	}, files)

	n, err := s.Count(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestList_MissingDirectory(t *testing.T) {
	files, err := New().List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRotate(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "photos")
	s := New()
	require.NoError(t, s.Ensure(dir))
	touch(t, dir, "a.jpg")

	s.now = func() time.Time { return time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC) }

	next, err := s.Rotate(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "photos_20240501-183000"), next)
	assert.DirExists(t, next)
	assert.FileExists(t, filepath.Join(dir, "a.jpg"))

	// Rotating a rotated directory keeps the original base name and
	// avoids collisions within the same second.
	again, err := s.Rotate(next)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "photos_20240501-183000-2"), again)
}

func TestIsStamp(t *testing.T) {
	assert.True(t, isStamp("20240501-183000"))
	assert.True(t, isStamp("20240501-183000-2"))
	assert.False(t, isStamp("archive"))
	assert.False(t, isStamp("2024"))
}
