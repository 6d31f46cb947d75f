package cas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/internal/adapters/cas"
	fsadapter "forge/internal/adapters/fs"
	"forge/internal/core/domain"
)

func newCache(t *testing.T, root string) *cas.Cache {
	t.Helper()
	return cas.NewCache(root, fsadapter.NewHasher())
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
}

func TestCache_HasChanged_NoPriorRecord(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	c := newCache(t, root)

	changed, err := c.HasChanged(domain.NewFiles("a.txt"), "build")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestCache_HasChanged_NoPriorRecordAndFileMissing(t *testing.T) {
	root := t.TempDir()
	c := newCache(t, root)

	changed, err := c.HasChanged(domain.NewFiles("absent.txt"), "build")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCache_PutThenHasChanged_Unchanged(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	c := newCache(t, root)

	require.NoError(t, c.Put(domain.NewFiles("a.txt"), "build"))

	changed, err := c.HasChanged(domain.NewFiles("a.txt"), "build")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCache_HasChanged_AfterContentEdit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello")
	c := newCache(t, root)

	require.NoError(t, c.Put(domain.NewFiles("a.txt"), "build"))

	// Force the mtime fast path to miss by backdating the stored record's
	// effective window: rewrite with new content and a later mtime.
	time.Sleep(10 * time.Millisecond)
	writeFile(t, root, "a.txt", "goodbye")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(root, "a.txt"), future, future))

	changed, err := c.HasChanged(domain.NewFiles("a.txt"), "build")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestCache_Diff_ReportsChangedAndRemoved(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "1")
	writeFile(t, root, "b.txt", "2")
	c := newCache(t, root)

	require.NoError(t, c.Put(domain.NewFiles("a.txt", "b.txt"), "build"))

	require.NoError(t, os.Remove(filepath.Join(root, "b.txt")))
	writeFile(t, root, "a.txt", "1-edited")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(root, "a.txt"), future, future))

	changed, removed, err := c.Diff(domain.NewFiles("a.txt"), "build")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, changed)
	assert.Equal(t, []string{"b.txt"}, removed)
}

func TestCache_Remove(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "1")
	c := newCache(t, root)

	require.NoError(t, c.Put(domain.NewFiles("a.txt"), "build"))
	require.NoError(t, c.Remove(domain.NewFiles("a.txt"), "build"))

	changed, err := c.HasChanged(domain.NewFiles("a.txt"), "build")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestCache_Clean(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "1")
	c := newCache(t, root)

	require.NoError(t, c.Put(domain.NewFiles("a.txt"), "build"))
	require.NoError(t, c.Clean("build"))

	changed, err := c.HasChanged(domain.NewFiles("a.txt"), "build")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestCache_TaskInvocation_RoundTrip(t *testing.T) {
	root := t.TempDir()
	c := newCache(t, root)

	inv := domain.TaskInvocation{
		Task:           domain.NewTask("build", domain.PlainAction(func([]string) error { return nil })),
		Args:           []string{"release"},
		InvocationName: "build",
	}

	_, ok, err := c.LatestInvocationTime("build")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.CacheTaskInvocation(inv))

	changed, err := c.HasTaskInvocationChanged(inv)
	require.NoError(t, err)
	assert.False(t, changed)

	differentArgs := inv
	differentArgs.Args = []string{"debug"}
	changed, err = c.HasTaskInvocationChanged(differentArgs)
	require.NoError(t, err)
	assert.True(t, changed)

	_, ok, err = c.LatestInvocationTime("build")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.RemoveTaskInvocation("build"))
	_, ok, err = c.LatestInvocationTime("build")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_RemoveNotMatching(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "1")
	writeFile(t, root, "b.txt", "2")
	c := newCache(t, root)

	require.NoError(t, c.Put(domain.NewFiles("a.txt"), "keep"))
	require.NoError(t, c.Put(domain.NewFiles("b.txt"), "stale"))

	inv := domain.TaskInvocation{InvocationName: "keep", Task: domain.NewTask("keep", domain.PlainAction(func([]string) error { return nil }))}
	require.NoError(t, c.CacheTaskInvocation(inv))

	require.NoError(t, c.RemoveNotMatching(
		map[string]struct{}{"keep": {}},
		map[string]struct{}{"keep": {}},
	))

	changed, err := c.HasChanged(domain.NewFiles("a.txt"), "keep")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = c.HasChanged(domain.NewFiles("b.txt"), "stale")
	require.NoError(t, err)
	assert.True(t, changed)

	_, ok, err := c.LatestInvocationTime("keep")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_WithMtimeGrace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "1")
	c := cas.NewCache(root, fsadapter.NewHasher(), cas.WithMtimeGrace(0))

	require.NoError(t, c.Put(domain.NewFiles("a.txt"), "build"))

	changed, err := c.HasChanged(domain.NewFiles("a.txt"), "build")
	require.NoError(t, err)
	assert.False(t, changed)
}
