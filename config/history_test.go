package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHistoryFrom_PrunesMissingAndFiles(t *testing.T) {
	dir := t.TempDir()
	kept := t.TempDir()
	file := filepath.Join(t.TempDir(), "not-a-dir.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	missing := filepath.Join(t.TempDir(), "gone")

	content := strings.Join([]string{kept, missing, "", file, kept}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, HistoryFileName), []byte(content), 0o644))

	h, err := LoadHistoryFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{kept}, h.Paths)
}

func TestLoadHistoryFrom_MissingFileIsEmpty(t *testing.T) {
	h, err := LoadHistoryFrom(t.TempDir())
	require.NoError(t, err)
	assert.True(t, h.Empty())
}

func TestHistory_AddAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a, b := t.TempDir(), t.TempDir()

	h, err := LoadHistoryFrom(dir)
	require.NoError(t, err)
	h.Add(a)
	h.Add(b)
	h.Add(a) // duplicate ignored
	require.NoError(t, h.Save())

	raw, err := os.ReadFile(filepath.Join(dir, HistoryFileName))
	require.NoError(t, err)
	assert.Equal(t, a+"\n"+b, string(raw))

	reloaded, err := LoadHistoryFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, reloaded.Paths)
}

func TestHistory_Prune(t *testing.T) {
	gone := t.TempDir()
	h := &History{dir: t.TempDir(), Paths: []string{gone}}
	require.NoError(t, os.RemoveAll(gone))

	h.Prune()
	assert.True(t, h.Empty())
}

func TestTutorialFlag(t *testing.T) {
	dir := t.TempDir()
	h, err := LoadHistoryFrom(dir)
	require.NoError(t, err)

	assert.True(t, ShouldStartTutorial(h), "empty history and no flag")

	require.NoError(t, MarkTutorialCompleted(h))
	assert.False(t, ShouldStartTutorial(h), "flag present")
	assert.FileExists(t, filepath.Join(dir, TutorialFlagName))
}

func TestTutorialFlag_NonEmptyHistorySkipsTutorial(t *testing.T) {
	h := &History{dir: t.TempDir(), Paths: []string{t.TempDir()}}
	assert.False(t, ShouldStartTutorial(h))
}
