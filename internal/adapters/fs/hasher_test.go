package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsadapter "forge/internal/adapters/fs"
)

func TestHasher_HashFile_StableForSameContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	h := fsadapter.NewHasher()
	d1, err := h.HashFile(path)
	require.NoError(t, err)
	d2, err := h.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestHasher_HashFile_DiffersForDifferentContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("goodbye"), 0o644))

	h := fsadapter.NewHasher()
	da, err := h.HashFile(a)
	require.NoError(t, err)
	db, err := h.HashFile(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}

func TestHasher_HashFile_MissingFile(t *testing.T) {
	h := fsadapter.NewHasher()
	_, err := h.HashFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestHasher_HashDirListing_OrderIndependent(t *testing.T) {
	h := fsadapter.NewHasher()
	a := h.HashDirListing([]string{"b.go", "a.go"})
	b := h.HashDirListing([]string{"a.go", "b.go"})
	assert.Equal(t, a, b)
}

func TestHasher_HashDirListing_DiffersWithContent(t *testing.T) {
	h := fsadapter.NewHasher()
	a := h.HashDirListing([]string{"a.go"})
	b := h.HashDirListing([]string{"a.go", "b.go"})
	assert.NotEqual(t, a, b)
}

func TestHasher_HashText(t *testing.T) {
	h := fsadapter.NewHasher()
	assert.Equal(t, h.HashText("same"), h.HashText("same"))
	assert.NotEqual(t, h.HashText("a"), h.HashText("b"))
}
