// Package check audits an instance folder against the state a successful
// sync leaves behind.
package check

import (
	"github.com/minecraftwithtwink/Modpack-Updater/gitsync"
)

// Status represents the state of a single check.
type Status int

const (
	StatusOK      Status = iota // the instance matches upstream
	StatusSkipped               // nothing to check, e.g. the directory does not exist
	StatusFailed                // drift a sync would repair
	StatusBroken                // the check itself could not run
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	case StatusBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Entry is one check's result.
type Entry struct {
	Name   string
	Status Status
	Detail string // e.g. the offending paths or an error message
}

// AuditResult is the complete output of `modpack-updater check`.
type AuditResult struct {
	Path       string
	Repository []Entry
	Managed    []Entry
	Overlay    []Entry
	LargeFiles []Entry
}

// Options tunes an audit.
type Options struct {
	// UpstreamURL is the URL origin must point at. Defaults to the
	// compiled-in upstream.
	UpstreamURL string
	// Manifest is the overlay to verify. Defaults to the compiled-in one.
	Manifest *gitsync.Manifest
}

// Audit runs every check against the instance at path.
func Audit(path string, opts Options) *AuditResult {
	if opts.UpstreamURL == "" {
		opts.UpstreamURL = gitsync.UpstreamURL
	}
	if opts.Manifest == nil {
		opts.Manifest = gitsync.DefaultManifest()
	}

	result := &AuditResult{Path: path}
	repo, entries := auditRepository(path, opts.UpstreamURL)
	result.Repository = entries
	if repo == nil {
		return result
	}

	tracked, err := trackedFiles(repo)
	if err != nil {
		result.Managed = []Entry{{Name: "index", Status: StatusBroken, Detail: err.Error()}}
		return result
	}
	result.Managed = auditManaged(repo, tracked)
	result.Overlay = auditOverlay(path, opts.Manifest)
	result.LargeFiles = auditLargeFiles(path, tracked)
	return result
}

func (r *AuditResult) all() []Entry {
	var out []Entry
	for _, group := range [][]Entry{r.Repository, r.Managed, r.Overlay, r.LargeFiles} {
		out = append(out, group...)
	}
	return out
}

// Summary returns (ok, total) counts across all checks.
func (r *AuditResult) Summary() (int, int) {
	ok, total := 0, 0
	for _, e := range r.all() {
		if e.Status == StatusSkipped {
			continue // nothing was checked
		}
		total++
		if e.Status == StatusOK {
			ok++
		}
	}
	return ok, total
}
