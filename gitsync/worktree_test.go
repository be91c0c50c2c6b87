package gitsync

import (
	"context"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemWorktree(t *testing.T) (*worktree, *memory.Storage, billy.Filesystem) {
	t.Helper()
	s := memory.NewStorage()
	fs := memfs.New()
	return &worktree{objects: s, index: s, fs: fs}, s, fs
}

func fileContent(t *testing.T, fs billy.Filesystem, name string) string {
	t.Helper()
	data, err := util.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

func exists(fs billy.Filesystem, name string) bool {
	_, err := fs.Lstat(name)
	return err == nil
}

func TestWorktree_CheckoutWritesAndRemoves(t *testing.T) {
	w, s, fs := newMemWorktree(t)

	prev := map[string]fileEntry{
		"old/gone.txt": blob(t, s, "gone"),
		"keep.txt":     blob(t, s, "stale"),
	}
	require.NoError(t, w.checkout(context.Background(), prev, nil))
	require.NoError(t, util.WriteFile(fs, "untracked.txt", []byte("mine"), 0o644))

	next := map[string]fileEntry{
		"keep.txt":  blob(t, s, "fresh"),
		"new/a.txt": blob(t, s, "a"),
	}
	require.NoError(t, w.checkout(context.Background(), next, prev))

	assert.Equal(t, "fresh", fileContent(t, fs, "keep.txt"))
	assert.Equal(t, "a", fileContent(t, fs, "new/a.txt"))
	assert.False(t, exists(fs, "old/gone.txt"))
	assert.False(t, exists(fs, "old"), "emptied parent directory is pruned")
	assert.True(t, exists(fs, "untracked.txt"))

	idx, err := s.Index()
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	assert.Equal(t, "keep.txt", idx.Entries[0].Name)
	assert.Equal(t, "new/a.txt", idx.Entries[1].Name)
}

func TestWorktree_FileReplacedByDirectory(t *testing.T) {
	w, s, fs := newMemWorktree(t)
	require.NoError(t, util.WriteFile(fs, "config", []byte("was a file"), 0o644))

	next := map[string]fileEntry{"config/a.cfg": blob(t, s, "a")}
	require.NoError(t, w.checkout(context.Background(), next, nil))
	assert.Equal(t, "a", fileContent(t, fs, "config/a.cfg"))
}

func TestWorktree_RestorePath(t *testing.T) {
	w, s, fs := newMemWorktree(t)
	tracked := map[string]fileEntry{
		"mods/a.jar":   blob(t, s, "a"),
		"mods/x/b.jar": blob(t, s, "b"),
		"other/c.txt":  blob(t, s, "c"),
	}
	require.NoError(t, w.checkout(context.Background(), tracked, nil))

	require.NoError(t, util.WriteFile(fs, "mods/a.jar", []byte("modified"), 0o644))
	require.NoError(t, fs.Remove("mods/x/b.jar"))
	require.NoError(t, util.WriteFile(fs, "mods/extra.jar", []byte("extra"), 0o644))
	require.NoError(t, util.WriteFile(fs, "mods/y/z.jar", []byte("extra"), 0o644))
	require.NoError(t, util.WriteFile(fs, "mods/cache/index.bin", []byte("ignored"), 0o644))
	require.NoError(t, util.WriteFile(fs, "other/untracked.txt", []byte("not managed"), 0o644))

	ignored := gitignore.NewMatcher([]gitignore.Pattern{gitignore.ParsePattern("cache/", nil)})
	removed, err := w.restorePath(context.Background(), "mods", tracked, ignored)
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.Equal(t, "a", fileContent(t, fs, "mods/a.jar"))
	assert.Equal(t, "b", fileContent(t, fs, "mods/x/b.jar"))
	assert.False(t, exists(fs, "mods/extra.jar"))
	assert.False(t, exists(fs, "mods/y"))
	assert.True(t, exists(fs, "mods/cache/index.bin"))
	assert.True(t, exists(fs, "other/untracked.txt"))
}

func TestWorktree_RestorePathMissingDir(t *testing.T) {
	w, _, _ := newMemWorktree(t)
	removed, err := w.restorePath(context.Background(), "kubejs", map[string]fileEntry{}, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestWorktree_ResolvedHookSkipsWrite(t *testing.T) {
	w, s, fs := newMemWorktree(t)
	require.NoError(t, util.WriteFile(fs, "big.bin", []byte("real content"), 0o644))
	w.resolved = func(name string, _ plumbing.Hash) bool { return name == "big.bin" }

	next := map[string]fileEntry{"big.bin": blob(t, s, "pointer")}
	require.NoError(t, w.checkout(context.Background(), next, nil))
	assert.Equal(t, "real content", fileContent(t, fs, "big.bin"))
}

func TestWorktree_CheckoutHonorsCancel(t *testing.T) {
	w, s, _ := newMemWorktree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.checkout(ctx, map[string]fileEntry{"a": blob(t, s, "a")}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// openCounter records every file opened for reading.
type openCounter struct {
	billy.Filesystem
	opened []string
}

func (c *openCounter) Open(name string) (billy.File, error) {
	c.opened = append(c.opened, name)
	return c.Filesystem.Open(name)
}

func TestWorktree_RestoreSkipsFilesMatchingIndexStat(t *testing.T) {
	s := memory.NewStorage()
	fs := &openCounter{Filesystem: osfs.New(t.TempDir())}
	w := &worktree{objects: s, index: s, fs: fs}
	tracked := map[string]fileEntry{
		"mods/a.jar": blob(t, s, "a"),
		"mods/b.jar": blob(t, s, "b"),
	}
	require.NoError(t, w.checkout(context.Background(), tracked, nil))

	fs.opened = nil
	_, err := w.restorePath(context.Background(), "mods", tracked, nil)
	require.NoError(t, err)
	assert.Empty(t, fs.opened)

	require.NoError(t, util.WriteFile(fs.Filesystem, "mods/a.jar", []byte("changed"), 0o644))
	_, err = w.restorePath(context.Background(), "mods", tracked, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"mods/a.jar"}, fs.opened)
	assert.Equal(t, "a", fileContent(t, fs, "mods/a.jar"))
}

func TestWorktree_LoadStatFromIndex(t *testing.T) {
	w, s, _ := newMemWorktree(t)
	require.NoError(t, w.checkout(context.Background(), map[string]fileEntry{"mods/a.jar": blob(t, s, "a")}, nil))

	fresh := &worktree{objects: s, index: s, fs: w.fs}
	require.NoError(t, fresh.loadStat())
	require.Contains(t, fresh.stat, "mods/a.jar")
	assert.Equal(t, w.stat["mods/a.jar"].Hash, fresh.stat["mods/a.jar"].Hash)
}

// failingRemove refuses to delete anything.
type failingRemove struct {
	billy.Filesystem
}

func (failingRemove) Remove(name string) error {
	return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
}

func TestWorktree_RestorePathRemoveFails(t *testing.T) {
	w, s, fs := newMemWorktree(t)
	tracked := map[string]fileEntry{"mods/a.jar": blob(t, s, "a")}
	require.NoError(t, w.checkout(context.Background(), tracked, nil))
	require.NoError(t, util.WriteFile(fs, "mods/stray.jar", []byte("x"), 0o644))

	w.fs = failingRemove{fs}
	_, err := w.restorePath(context.Background(), "mods", tracked, nil)
	require.ErrorIs(t, err, os.ErrPermission)
	assert.True(t, exists(fs, "mods/stray.jar"))
}
