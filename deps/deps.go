// Package deps verifies and installs the external tools a sync needs.
package deps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/minecraftwithtwink/Modpack-Updater/cmd"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
)

// Status is the outcome of a dependency check.
type Status int

const (
	AllOk Status = iota
	GitMissing
	GitLfsMissing
)

func (s Status) String() string {
	switch s {
	case AllOk:
		return "All dependencies are installed."
	case GitMissing:
		return "Git is not installed."
	case GitLfsMissing:
		return "Git LFS is not installed."
	default:
		return "unknown"
	}
}

// Tool names the binary whose absence produced s.
func (s Status) Tool() string {
	switch s {
	case GitMissing:
		return "git"
	case GitLfsMissing:
		return "git-lfs"
	default:
		return ""
	}
}

// ErrNoPackageManager is returned when no supported package manager exists.
var ErrNoPackageManager = errors.New("no supported package manager found")

// tools are checked in order; the first one missing decides the status.
var tools = []struct {
	name   string
	status Status
}{
	{"git", GitMissing},
	{"git-lfs", GitLfsMissing},
}

// LookPathFunc resolves a binary name to a path.
type LookPathFunc func(file string) (string, error)

type Option func(*Checker)

// WithLookPath replaces exec.LookPath.
func WithLookPath(f LookPathFunc) Option {
	return func(c *Checker) { c.lookPath = f }
}

// WithOS pretends to run on goos.
func WithOS(goos string) Option {
	return func(c *Checker) { c.goos = goos }
}

// Checker verifies dependencies and installs the missing ones.
type Checker struct {
	exec     cmd.Executor
	lookPath LookPathFunc
	goos     string
}

func NewChecker(executor cmd.Executor, opts ...Option) *Checker {
	c := &Checker{exec: executor, lookPath: exec.LookPath, goos: runtime.GOOS}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) installed(tool string) bool {
	_, err := c.lookPath(tool)
	return err == nil
}

// Status reports the first missing tool, or AllOk.
func (c *Checker) Status() Status {
	for _, t := range tools {
		if !c.installed(t.name) {
			return t.status
		}
	}
	return AllOk
}

// Check is the dependency-check job.
func (c *Checker) Check(ctx context.Context, r job.Reporter) (Status, error) {
	r.Update("Checking dependencies...", 0)
	s := c.Status()
	log.InfoLog.Printf("dependency check: %s", s)
	return s, nil
}

// Manager returns the first package manager available for this OS.
func (c *Checker) Manager() (*PackageManager, error) {
	for _, m := range managers[c.goos] {
		if c.installed(m.Name) {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w on %s; please install Git and Git LFS manually from https://git-scm.com/downloads", ErrNoPackageManager, c.goos)
}

// Install is the install job. It installs every missing tool through the
// platform package manager, then runs `git lfs install`.
func (c *Checker) Install(ctx context.Context, r job.Reporter) (Status, error) {
	var missing []string
	for _, t := range tools {
		if !c.installed(t.name) {
			missing = append(missing, t.name)
		}
	}

	if len(missing) > 0 {
		m, err := c.Manager()
		if err != nil {
			return c.Status(), err
		}
		plan := m.Commands(missing)
		for i, args := range plan {
			r.Update(fmt.Sprintf("Running %s...", strings.Join(args, " ")), float64(i)/float64(len(plan)+1))
			if err := c.run(ctx, args); err != nil {
				return c.Status(), err
			}
		}
	}

	r.Update("Configuring Git LFS...", 1)
	if err := c.run(ctx, []string{"git", "lfs", "install"}); err != nil {
		return c.Status(), err
	}
	return c.Status(), nil
}

func (c *Checker) run(ctx context.Context, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	command := exec.CommandContext(ctx, args[0], args[1:]...)
	var out bytes.Buffer
	command.Stdout = &out
	command.Stderr = &out

	log.InfoLog.Printf("running %s", cmd.ToString(command))
	if err := c.exec.Run(command); err != nil {
		log.ErrorLog.Printf("%s failed: %v\n%s", cmd.ToString(command), err, out.String())
		if detail := strings.TrimSpace(out.String()); detail != "" {
			return fmt.Errorf("command failed: %s: %w: %s", cmd.ToString(command), err, lastLine(detail))
		}
		return fmt.Errorf("command failed: %s: %w", cmd.ToString(command), err)
	}
	return nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
