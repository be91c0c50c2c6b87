// Package update checks GitHub releases for a newer build and replaces the
// running executable with it.
package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/minecraftwithtwink/Modpack-Updater/cmd"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
	"github.com/minio/selfupdate"
)

const (
	RepoOwner  = "minecraftwithtwink"
	RepoName   = "Modpack-Updater"
	BinaryName = "modpack-updater"

	defaultAPI = "https://api.github.com"
)

// State classifies the result of a check.
type State int

const (
	UpToDate State = iota
	Available
	Failed
)

// Status is the result of an update check. Version is set when an update is
// Available; Err when the check Failed.
type Status struct {
	State   State
	Version string
	Err     error
}

func (s Status) String() string {
	switch s.State {
	case Available:
		return fmt.Sprintf("Update available: v%s", s.Version)
	case Failed:
		return "Failed to check for updates"
	default:
		return "Up to date"
	}
}

// ErrNoAsset is returned when a release has no build for this platform.
var ErrNoAsset = errors.New("no release asset for this platform")

type Option func(*Client)

// WithAPI points the client at a different GitHub API root.
func WithAPI(base string) Option {
	return func(c *Client) { c.api = base }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPlatform overrides the GOOS/GOARCH used to select assets.
func WithPlatform(goos, goarch string) Option {
	return func(c *Client) { c.goos, c.goarch = goos, goarch }
}

// WithTarget replaces a file other than the running executable.
func WithTarget(path string) Option {
	return func(c *Client) { c.target = path }
}

// Client talks to the GitHub releases API for this project.
type Client struct {
	current string
	api     string
	http    *http.Client
	goos    string
	goarch  string
	target  string
}

// NewClient returns a client for a binary built as version current.
func NewClient(current string, opts ...Option) *Client {
	c := &Client{
		current: current,
		api:     defaultAPI,
		http:    http.DefaultClient,
		goos:    runtime.GOOS,
		goarch:  runtime.GOARCH,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the latest published release.
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.api, RepoOwner, RepoName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", BinaryName+"/"+c.current)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to query latest release: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseRelease(data)
}

// Newer reports whether latest has higher semantic precedence than current.
func Newer(current, latest string) (bool, error) {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("invalid current version %q: %w", current, err)
	}
	lat, err := semver.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("invalid release version %q: %w", latest, err)
	}
	return lat.GreaterThan(cur), nil
}

// Check is the update-check job. A failed check is reported as a Failed
// status rather than a job failure so the caller carries on without it.
func (c *Client) Check(ctx context.Context, r job.Reporter) (Status, error) {
	rel, err := c.Latest(ctx)
	if err != nil {
		log.WarningLog.Printf("update check failed: %v", err)
		return Status{State: Failed, Err: err}, nil
	}
	newer, err := Newer(c.current, rel.Version)
	if err != nil {
		log.WarningLog.Printf("update check failed: %v", err)
		return Status{State: Failed, Err: err}, nil
	}
	if !newer {
		return Status{State: UpToDate}, nil
	}
	log.InfoLog.Printf("update available: %s -> %s", c.current, rel.Version)
	return Status{State: Available, Version: rel.Version}, nil
}

// Apply downloads the build of the latest release for this platform and
// replaces the target executable with it. It returns the installed version.
func (c *Client) Apply(ctx context.Context, r job.Reporter) (string, error) {
	r.Update("Looking up the latest release...", 0)
	rel, err := c.Latest(ctx)
	if err != nil {
		return "", err
	}
	asset, ok := SelectAsset(rel.Assets, c.goos, c.goarch)
	if !ok {
		return "", fmt.Errorf("%w (%s/%s, release %s)", ErrNoAsset, c.goos, c.goarch, rel.Tag)
	}

	r.Update(fmt.Sprintf("Downloading %s...", asset.Name), 0.2)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/octet-stream")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: %s", asset.Name, resp.Status)
	}

	bin, err := extractBinary(asset.Name, resp.Body, c.goos)
	if err != nil {
		return "", fmt.Errorf("failed to unpack %s: %w", asset.Name, err)
	}

	r.Update("Installing update...", 0.8)
	if err := selfupdate.Apply(bin, selfupdate.Options{TargetPath: c.target}); err != nil {
		if rerr := selfupdate.RollbackError(err); rerr != nil {
			log.ErrorLog.Printf("failed to roll back broken update: %v", rerr)
		}
		return "", fmt.Errorf("failed to replace executable: %w", err)
	}
	log.InfoLog.Printf("updated to %s", rel.Version)
	return rel.Version, nil
}

// Relaunch starts the freshly installed executable with the current
// arguments and returns without waiting for it. The caller exits right
// after, leaving the new process in charge of the terminal.
func Relaunch(ex cmd.Executor) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	c := exec.Command(exe, os.Args[1:]...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := ex.Start(c); err != nil {
		return fmt.Errorf("failed to relaunch %s: %w", cmd.ToString(c), err)
	}
	if c.Process != nil {
		_ = c.Process.Release()
	}
	log.InfoLog.Printf("relaunched %s", cmd.ToString(c))
	return nil
}
