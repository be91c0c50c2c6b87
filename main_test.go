package main

import (
	"bytes"
	"errors"
	stdlog "log"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/minecraftwithtwink/Modpack-Updater/cmd/cmd_test"
	"github.com/minecraftwithtwink/Modpack-Updater/config"
	"github.com/minecraftwithtwink/Modpack-Updater/deps"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs c with args and returns everything it printed.
func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetErr(&buf)
	c.SetArgs(args)
	err := c.Execute()
	return buf.String(), err
}

// isolateConfig points the user config dir at a temp dir and returns the
// updater's config dir inside it.
func isolateConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	t.Setenv("HOME", base)
	t.Setenv("AppData", base)
	dir, err := config.GetConfigDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

// fakeTools makes the headless commands see exactly the given tools on PATH.
// Running "brew install <tool>" adds it.
func fakeTools(t *testing.T, tools ...string) *cmd_test.MockCmdExec {
	t.Helper()
	var mu sync.Mutex
	installed := append([]string{"brew"}, tools...)
	ex := cmd_test.NewMockExecutor()
	ex.RunFunc = func(c *exec.Cmd) error {
		if len(c.Args) == 3 && c.Args[0] == "brew" && c.Args[1] == "install" {
			mu.Lock()
			installed = append(installed, c.Args[2])
			mu.Unlock()
		}
		return nil
	}
	lookPath := func(file string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if slices.Contains(installed, file) {
			return "/usr/bin/" + file, nil
		}
		return "", exec.ErrNotFound
	}

	prev := newDepsChecker
	newDepsChecker = func() *deps.Checker {
		return deps.NewChecker(ex, deps.WithLookPath(lookPath), deps.WithOS("darwin"))
	}
	t.Cleanup(func() { newDepsChecker = prev })
	return ex
}

func fixtureUpstream(t *testing.T) string {
	t.Helper()
	upstream := t.TempDir()
	runGit(t, upstream, "init", "-b", "main")
	for name, content := range map[string]string{
		"mods/a.jar":      "a",
		"config/game.cfg": "fov=70",
	} {
		p := filepath.Join(upstream, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	runGit(t, upstream, "add", "-A")
	runGit(t, upstream, "commit", "-m", "initial")
	return upstream
}

func emptyInstance(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "mods"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	return dir
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	for _, name := range []string{"sync", "branches", "check", "deps", "update", "history", "runs", "version", "debug"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, versionCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "modpack-updater version "+version)
	assert.Contains(t, out, "/releases/tag/v"+version)
}

func TestHistoryCmd(t *testing.T) {
	dir := isolateConfig(t)

	out, err := execute(t, newHistoryCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "No instances synchronized yet.")

	inst := t.TempDir()
	gone := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.HistoryFileName), []byte(inst+"\n"+gone+"\n"), 0o644))

	out, err = execute(t, newHistoryCmd())
	require.NoError(t, err)
	assert.Contains(t, out, inst)
	assert.NotContains(t, out, gone)
}

func TestSyncCmd_SyncsInstance(t *testing.T) {
	isolateConfig(t)
	fakeTools(t, "git", "git-lfs")
	upstream := fixtureUpstream(t)
	local := emptyInstance(t)

	out, err := execute(t, newSyncCmd(), "--upstream", upstream, "--lfs=false", "--branch", "main", local)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Synchronized "+local)
	assert.Contains(t, out, "branch:      main")
	assert.FileExists(t, filepath.Join(local, "mods", "a.jar"))

	out, err = execute(t, newHistoryCmd())
	require.NoError(t, err)
	assert.Contains(t, out, local)

	out, err = execute(t, newRunsCmd(), "--instance", local)
	require.NoError(t, err)
	assert.Contains(t, out, "job_succeeded")
	assert.Contains(t, out, "job_started")
}

func TestSyncCmd_RejectsNonInstance(t *testing.T) {
	isolateConfig(t)
	fakeTools(t, "git", "git-lfs")

	_, err := execute(t, newSyncCmd(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not an instance folder")
}

func TestSyncCmd_RequiresDependencies(t *testing.T) {
	isolateConfig(t)
	fakeTools(t, "git")

	_, err := execute(t, newSyncCmd(), emptyInstance(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Git LFS is not installed.")
	assert.Contains(t, err.Error(), "deps --install")
}

func TestDepsCmd_AllInstalled(t *testing.T) {
	fakeTools(t, "git", "git-lfs")

	out, err := execute(t, newDepsCmd())
	require.NoError(t, err)
	assert.Contains(t, out, deps.AllOk.String())
}

func TestDepsCmd_MissingWithoutInstall(t *testing.T) {
	fakeTools(t, "git")

	out, err := execute(t, newDepsCmd())
	require.Error(t, err)
	assert.Contains(t, out, deps.GitLfsMissing.String())
	assert.Contains(t, err.Error(), "git-lfs is missing")
}

func TestDepsCmd_InstallWithYes(t *testing.T) {
	isolateConfig(t)
	ex := fakeTools(t, "git")

	out, err := execute(t, newDepsCmd(), "--install", "--yes")
	require.NoError(t, err, out)
	assert.Contains(t, out, deps.AllOk.String())
	assert.Equal(t, []string{"brew install git-lfs", "git lfs install"}, ex.Commands())
}

func TestDepsCmd_InstallDeclined(t *testing.T) {
	isolateConfig(t)
	ex := fakeTools(t)

	var asked deps.Status
	prev := confirmInstall
	confirmInstall = func(s deps.Status) (bool, error) {
		asked = s
		return false, nil
	}
	t.Cleanup(func() { confirmInstall = prev })

	_, err := execute(t, newDepsCmd(), "--install")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "installation cancelled")
	assert.Equal(t, deps.GitMissing, asked)
	assert.Empty(t, ex.Commands())
}

func TestRunsCmd_Empty(t *testing.T) {
	isolateConfig(t)

	out, err := execute(t, newRunsCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestDebugCmd_PrintsPaths(t *testing.T) {
	dir := isolateConfig(t)

	out, err := execute(t, debugCmd)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, config.ConfigFileName))
	assert.Contains(t, out, filepath.Join(dir, config.HistoryFileName))
}

func TestInitTelemetry_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	prevLog := log.ErrorLog
	log.ErrorLog = stdlog.New(&buf, "", 0)
	t.Cleanup(func() { log.ErrorLog = prevLog })

	var gotEnabled bool
	prev := initSentry
	initSentry = func(v string, enabled bool) error {
		gotEnabled = enabled
		return errors.New("bad dsn")
	}
	t.Cleanup(func() { initSentry = prev })

	off := false
	initTelemetry(&config.Config{TelemetryEnabled: &off})
	assert.False(t, gotEnabled)
	assert.Equal(t, "failed to initialize sentry: bad dsn\n", buf.String())
}
