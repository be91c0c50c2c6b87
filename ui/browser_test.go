package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(n)), 0o755))
	}
}

func TestBrowser_ListsOnlyFolders(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "b", "a")
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), nil, 0o644))

	b := NewBrowser()
	require.NoError(t, b.Open(root))
	assert.Equal(t, []string{filepath.Join(root, "a"), filepath.Join(root, "b")}, b.Items())
	assert.True(t, b.Opened())
}

func TestBrowser_NavigationWraps(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a", "b", "c")
	b := NewBrowser()
	require.NoError(t, b.Open(root))

	b.Prev()
	assert.Equal(t, 2, b.Cursor())
	b.Next()
	assert.Equal(t, 0, b.Cursor())
	b.Next()
	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "b"), cur)
}

func TestBrowser_UpReselectsFolderLeft(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a", "b/inner", "c")
	b := NewBrowser()
	require.NoError(t, b.Open(root))

	b.Next()
	require.NoError(t, b.In())
	assert.Equal(t, filepath.Join(root, "b"), b.Dir())
	assert.Equal(t, 0, b.Cursor())

	require.NoError(t, b.Up())
	assert.Equal(t, root, b.Dir())
	assert.Equal(t, 1, b.Cursor())
}

func TestBrowser_ResetReturnsToStart(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a/deeper")
	b := NewBrowser()
	require.NoError(t, b.Open(root))
	require.NoError(t, b.In())
	require.NoError(t, b.In())

	require.NoError(t, b.Reset())
	assert.Equal(t, root, b.Dir())
}

func TestBrowser_MarkClearedOnNavigation(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a/inner")
	b := NewBrowser()
	require.NoError(t, b.Open(root))

	b.Mark()
	assert.Equal(t, filepath.Join(root, "a"), b.Marked())
	require.NoError(t, b.In())
	assert.Empty(t, b.Marked())

	b.Mark()
	assert.True(t, b.Unmark())
	assert.False(t, b.Unmark())
}

func TestBrowser_EmptyFolder(t *testing.T) {
	b := NewBrowser()
	require.NoError(t, b.Open(t.TempDir()))

	b.Next()
	b.Prev()
	_, ok := b.Current()
	assert.False(t, ok)
	assert.NoError(t, b.In())
	assert.Contains(t, b.String(), "no folders here")
}

func TestBrowser_OpenMissingFolder(t *testing.T) {
	b := NewBrowser()
	err := b.Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.False(t, b.Opened())
}

func TestBrowser_StringScrollsToCursor(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a", "b", "c", "d", "e")
	b := NewBrowser()
	require.NoError(t, b.Open(root))
	b.SetSize(40, 4)

	b.Prev() // "e"
	lines := strings.Split(b.String(), "\n")
	require.Len(t, lines, 4) // folder, blank, two rows
	assert.Contains(t, lines[2], "d"+string(filepath.Separator))
	assert.Contains(t, lines[3], "e"+string(filepath.Separator))
}
