package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsadapter "forge/internal/adapters/fs"
	"forge/internal/core/domain"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func resolveAll(root string, set domain.FileSet) []domain.ResolvedEntity {
	var out []domain.ResolvedEntity
	for e := range fsadapter.Resolve(root, set) {
		out = append(out, e)
	}
	return out
}

func TestResolve_ExplicitFiles(t *testing.T) {
	root := t.TempDir()
	entities := resolveAll(root, domain.NewFiles("a.go", "b.go"))
	require.Len(t, entities, 2)
	assert.Equal(t, "a.go", entities[0].Path)
	assert.False(t, entities[0].IsDir)
}

func TestResolve_NonRecursiveDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "src/pkg/util.go", "package pkg")

	entities := resolveAll(root, domain.NewDir("src"))
	require.Len(t, entities, 1)
	assert.Equal(t, "src", entities[0].Path)
	assert.Contains(t, entities[0].Children, "main.go")
	assert.NotContains(t, entities[0].Children, "pkg")
}

func TestResolve_RecursiveDirectoryYieldsSubdirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main")
	writeFile(t, root, "src/pkg/util.go", "package pkg")

	entities := resolveAll(root, domain.NewDir("src", domain.WithRecurse(true)))
	var paths []string
	for _, e := range entities {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "src")
	assert.Contains(t, paths, filepath.ToSlash(filepath.Join("src", "pkg")))
}

func TestResolve_HiddenExcludedByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/.hidden", "x")
	writeFile(t, root, "src/visible.go", "package src")

	entities := resolveAll(root, domain.NewDir("src"))
	require.Len(t, entities, 1)
	assert.NotContains(t, entities[0].Children, ".hidden")
	assert.Contains(t, entities[0].Children, "visible.go")
}

func TestResolve_ExtensionFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package src")
	writeFile(t, root, "src/README.md", "docs")

	entities := resolveAll(root, domain.NewDir("src", domain.WithExtensions("go")))
	require.Len(t, entities, 1)
	assert.Contains(t, entities[0].Children, "main.go")
	assert.NotContains(t, entities[0].Children, "README.md")
}

func TestResolve_MissingDirectoryYieldsEmptyEntity(t *testing.T) {
	root := t.TempDir()
	entities := resolveAll(root, domain.NewDir("missing"))
	require.Len(t, entities, 1)
	assert.True(t, entities[0].IsDir)
	assert.Empty(t, entities[0].Children)
}

func TestResolve_StopsWhenYieldReturnsFalse(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "x")
	writeFile(t, root, "b.go", "y")

	count := 0
	for range fsadapter.Resolve(root, domain.NewFiles("a.go", "b.go")) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestHashResolved_File(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "hello")

	h := fsadapter.NewHasher()
	d, err := fsadapter.HashResolved(h, root, domain.ResolvedEntity{Path: "a.go"})
	require.NoError(t, err)
	assert.NotEmpty(t, d)
}

func TestHashResolved_Directory(t *testing.T) {
	h := fsadapter.NewHasher()
	d, err := fsadapter.HashResolved(h, t.TempDir(), domain.ResolvedEntity{Path: "src", IsDir: true, Children: []string{"a.go"}})
	require.NoError(t, err)
	assert.NotEmpty(t, d)
}
