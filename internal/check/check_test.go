package check

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/minecraftwithtwink/Modpack-Updater/gitsync"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{"-C", dir, "-c", "user.email=test@test.com", "-c", "user.name=test", "-c", "commit.gpgsign=false"}, args...)
	out, err := exec.Command("git", full...).CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func write(t *testing.T, root, name, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// syncedInstance returns the upstream fixture and an instance synced from it.
func syncedInstance(t *testing.T) (string, string) {
	t.Helper()
	upstream := t.TempDir()
	runGit(t, upstream, "init", "-b", "main")
	write(t, upstream, "mods/a.jar", "a")
	write(t, upstream, "config/game.cfg", "x")
	write(t, upstream, "configureddefaults/tectonic.json", "{}")
	write(t, upstream, ".gitignore", "*.log\n")
	runGit(t, upstream, "add", "-A")
	runGit(t, upstream, "commit", "-m", "initial")

	local := t.TempDir()
	_, err := gitsync.New(local, "main", gitsync.WithURL(upstream), gitsync.WithLFS(false)).Run(context.Background(), job.Discard)
	require.NoError(t, err)
	return upstream, local
}

func find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

func TestAudit_FreshSyncIsHealthy(t *testing.T) {
	upstream, local := syncedInstance(t)

	result := Audit(local, Options{UpstreamURL: upstream})
	ok, total := result.Summary()
	assert.Equal(t, total, ok, "%+v", result)
	assert.Greater(t, total, 4)

	head, found := find(result.Repository, "HEAD")
	require.True(t, found)
	assert.Contains(t, head.Detail, "main @ ")

	kubejs, found := find(result.Managed, "kubejs/")
	require.True(t, found)
	assert.Equal(t, StatusSkipped, kubejs.Status)

	tectonic, found := find(result.Overlay, "tectonic.json")
	require.True(t, found)
	assert.Equal(t, StatusOK, tectonic.Status)
}

func TestAudit_ReportsDrift(t *testing.T) {
	upstream, local := syncedInstance(t)
	write(t, local, "mods/extra.jar", "extra")
	write(t, local, "mods/debug.log", "ignored")
	write(t, local, "tectonic.json", `{"changed": true}`)

	result := Audit(local, Options{UpstreamURL: upstream})
	ok, total := result.Summary()
	assert.Equal(t, total-2, ok)

	mods, _ := find(result.Managed, "mods/")
	assert.Equal(t, StatusFailed, mods.Status)
	assert.Equal(t, "untracked: mods/extra.jar", mods.Detail)

	tectonic, _ := find(result.Overlay, "tectonic.json")
	assert.Equal(t, StatusFailed, tectonic.Status)
}

func TestAudit_WrongOrigin(t *testing.T) {
	_, local := syncedInstance(t)

	result := Audit(local, Options{UpstreamURL: "https://example.com/other.git"})
	origin, found := find(result.Repository, "origin")
	require.True(t, found)
	assert.Equal(t, StatusFailed, origin.Status)
}

func TestAudit_NotARepository(t *testing.T) {
	result := Audit(t.TempDir(), Options{})
	require.Len(t, result.Repository, 1)
	assert.Equal(t, StatusFailed, result.Repository[0].Status)
	assert.Nil(t, result.Managed)

	ok, total := result.Summary()
	assert.Equal(t, 0, ok)
	assert.Equal(t, 1, total)
}

func TestAudit_UnresolvedPointer(t *testing.T) {
	upstream := t.TempDir()
	runGit(t, upstream, "init", "-b", "main")
	write(t, upstream, "resourcepacks/pack.zip",
		"version https://git-lfs.github.com/spec/v1\noid sha256:4d7a214614ab2935c943f9e0ff69d22eadbb8f32b1258daaa5e2ca24d17e2393\nsize 12345\n")
	runGit(t, upstream, "add", "-A")
	runGit(t, upstream, "commit", "-m", "pointer")

	local := t.TempDir()
	_, err := gitsync.New(local, "main", gitsync.WithURL(upstream), gitsync.WithLFS(false)).Run(context.Background(), job.Discard)
	require.NoError(t, err)

	result := Audit(local, Options{UpstreamURL: upstream})
	require.Len(t, result.LargeFiles, 1)
	assert.Equal(t, StatusFailed, result.LargeFiles[0].Status)
	assert.Contains(t, result.LargeFiles[0].Detail, "resourcepacks/pack.zip")
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "broken", StatusBroken.String())
}
