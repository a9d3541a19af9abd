package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveAndPath(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(strings.NewReader("lecture notes"), "Notes.PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.True(t, store.Exists(name))

	path, err := store.Path(name)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "lecture notes", string(data))

	// Two saves of the same file get distinct names.
	other, err := store.Save(strings.NewReader("lecture notes"), "Notes.PDF")
	require.NoError(t, err)
	assert.NotEqual(t, name, other)
}

func TestFileStore_PathRejectsTraversal(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../secret", "a/b.pdf", `a\b.pdf`} {
		_, err := store.Path(name)
		assert.Error(t, err, name)
	}
}

func TestFileStore_Remove(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	name, err := store.Save(strings.NewReader("x"), "x.txt")
	require.NoError(t, err)

	require.NoError(t, store.Remove(name))
	assert.False(t, store.Exists(name))
	assert.NoFileExists(t, filepath.Join(dir, name))

	// Removing twice is fine.
	require.NoError(t, store.Remove(name))
}
