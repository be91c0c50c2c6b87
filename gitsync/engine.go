package gitsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
)

// DefaultSignature is the identity recorded on merge commits.
var DefaultSignature = object.Signature{Name: "Modpack Updater", Email: "updater@example.com"}

// Target is what one sync operates on.
type Target struct {
	Path   string
	Branch string
}

// Outcome is how the local branch was brought up to date.
type Outcome int

const (
	OutcomeUpToDate Outcome = iota
	OutcomeFastForward
	OutcomeMerged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeFastForward:
		return "fast-forward"
	case OutcomeMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// Summary describes a successful run.
type Summary struct {
	Target     Target
	Outcome    Outcome
	Head       plumbing.Hash
	Removed    int
	Overlaid   int
	LargeFiles int
}

func (s Summary) String() string {
	return fmt.Sprintf("Successfully updated and verified repository at:\n\n%s\n\nPress Enter to close.", s.Target.Path)
}

// Option configures an Engine.
type Option func(*Engine)

// WithURL overrides the upstream URL. Tests point it at a local fixture.
func WithURL(url string) Option {
	return func(e *Engine) { e.url = url }
}

// WithLFS toggles large-file resolution.
func WithLFS(enabled bool) Option {
	return func(e *Engine) { e.lfsEnabled = enabled }
}

// WithHTTPClient sets the client used for LFS transfers.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithSignature sets the merge commit identity.
func WithSignature(sig object.Signature) Option {
	return func(e *Engine) { e.sig = sig }
}

// WithManifest replaces the default configuration overlay.
func WithManifest(m *Manifest) Option {
	return func(e *Engine) { e.manifest = m }
}

// Engine synchronizes one instance folder with the upstream branch.
type Engine struct {
	target     Target
	url        string
	lfsEnabled bool
	client     *http.Client
	sig        object.Signature
	manifest   *Manifest
}

func New(path, branch string, opts ...Option) *Engine {
	e := &Engine{
		target:     Target{Path: path, Branch: branch},
		url:        UpstreamURL,
		lfsEnabled: true,
		client:     http.DefaultClient,
		sig:        DefaultSignature,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.manifest == nil {
		e.manifest = DefaultManifest()
	}
	return e
}

func (e *Engine) Target() Target { return e.target }

// Run performs one synchronization. It is a job.Func.
func (e *Engine) Run(ctx context.Context, r job.Reporter) (Summary, error) {
	summary := Summary{Target: e.target}
	branch := e.target.Branch
	log.InfoLog.Printf("sync started: %s (branch %s)", e.target.Path, branch)

	repo, err := openOrInit(e.target.Path)
	if err != nil {
		return summary, stepErr(StepOpen, err)
	}

	r.Update("Setting up remote...", 0)
	if err := bindRemote(repo, e.url); err != nil {
		return summary, stepErr(StepRemote, err)
	}

	r.Update("Fetching from remote...", 0)
	if err := e.fetch(ctx, repo, r); err != nil {
		return summary, stepErr(StepFetch, err)
	}

	r.Update("Analyzing changes...", 1)
	fetchedRef, err := repo.Reference(remoteBranchRef(branch), true)
	if err != nil {
		return summary, stepErr(StepAnalyze, fmt.Errorf("branch %q not found on remote: %w", branch, err))
	}
	fetched, err := repo.CommitObject(fetchedRef.Hash())
	if err != nil {
		return summary, stepErr(StepAnalyze, err)
	}
	head, err := e.switchHead(repo)
	if err != nil {
		return summary, stepErr(StepAnalyze, err)
	}
	kind, err := analyze(head, fetched)
	if err != nil {
		return summary, stepErr(StepAnalyze, err)
	}
	log.InfoLog.Printf("merge analysis: %s", kind)

	wt, err := repo.Worktree()
	if err != nil {
		return summary, stepErr(StepCheckout, err)
	}
	tree := &worktree{objects: repo.Storer, index: repo.Storer, fs: wt.Filesystem}
	if err := tree.loadStat(); err != nil {
		return summary, stepErr(StepCheckout, err)
	}
	var large *lfs
	if e.lfsEnabled {
		large = &lfs{
			objects:  repo.Storer,
			worktree: wt.Filesystem,
			cache:    osfs.New(filepath.Join(e.target.Path, git.GitDirName, "lfs")),
			endpoint: lfsEndpoint(e.url),
			client:   e.client,
		}
		tree.resolved = large.resolved
	}

	prev, err := indexFiles(repo)
	if err != nil {
		return summary, stepErr(StepCheckout, err)
	}

	var final *object.Commit
	switch kind {
	case analysisUpToDate:
		r.Update("Repository up-to-date. Verifying files...", 1)
		final, summary.Outcome = head, OutcomeUpToDate
	case analysisFastForward:
		r.Update("Applying fast-forward update...", 1)
		ref := plumbing.NewHashReference(localBranchRef(branch), fetched.Hash)
		if err := repo.Storer.SetReference(ref); err != nil {
			return summary, stepErr(StepFastForward, err)
		}
		final, summary.Outcome = fetched, OutcomeFastForward
	case analysisDivergent:
		r.Update("Merging changes...", 1)
		merged, err := e.merge(repo, head, fetched)
		if err != nil {
			return summary, stepErr(StepMerge, err)
		}
		final, summary.Outcome = merged, OutcomeMerged
	}
	summary.Head = final.Hash

	finalTree, err := final.Tree()
	if err != nil {
		return summary, stepErr(StepCheckout, err)
	}
	files, err := flatten(finalTree)
	if err != nil {
		return summary, stepErr(StepCheckout, err)
	}
	if err := tree.checkout(ctx, files, prev); err != nil {
		return summary, stepErr(StepCheckout, err)
	}

	r.Update("Cleaning managed directories...", 1)
	patterns, err := gitignore.ReadPatterns(wt.Filesystem, nil)
	if err != nil {
		return summary, stepErr(StepClean, err)
	}
	ignored := gitignore.NewMatcher(patterns)
	for _, dir := range ManagedDirs {
		n, err := tree.restorePath(ctx, dir, files, ignored)
		if err != nil {
			return summary, stepErr(StepClean, fmt.Errorf("%s: %w", dir, err))
		}
		summary.Removed += n
	}

	if large != nil {
		r.Update("Downloading large files...", 0)
		n, err := large.pull(ctx, files, r)
		if err != nil {
			return summary, stepErr(StepLFS, err)
		}
		summary.LargeFiles = n
	}

	r.Update("Applying default configurations...", 1)
	n, err := e.manifest.Apply(wt.Filesystem)
	if err != nil {
		return summary, stepErr(StepOverlay, err)
	}
	summary.Overlaid = n

	log.InfoLog.Printf("sync finished: %s at %s (%s, %d removed, %d overlaid, %d large files)",
		e.target.Path, summary.Head, summary.Outcome, summary.Removed, summary.Overlaid, summary.LargeFiles)
	return summary, nil
}

func (e *Engine) fetch(ctx context.Context, repo *git.Repository, r job.Reporter) error {
	installCountingTransport()

	progress := newFetchProgress(r)
	counter := &byteCounter{onChange: progress.addBytes}
	err := repo.FetchContext(withByteCounter(ctx, counter), &git.FetchOptions{
		RemoteName: RemoteName,
		RefSpecs:   []config.RefSpec{FetchRefSpec(e.target.Branch)},
		Tags:       git.NoTags,
		Force:      true,
		Progress:   progress,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// switchHead points HEAD at the sync branch and returns the commit that
// branch holds, or nil when it does not exist yet.
func (e *Engine) switchHead(repo *git.Repository) (*object.Commit, error) {
	want := localBranchRef(e.target.Branch)
	current, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, err
	}
	if current == nil || current.Type() != plumbing.SymbolicReference || current.Target() != want {
		log.InfoLog.Printf("pointing HEAD at %s", want)
		if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, want)); err != nil {
			return nil, err
		}
	}

	ref, err := repo.Storer.Reference(want)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c, err := repo.CommitObject(ref.Hash())
	if err != nil {
		log.WarningLog.Printf("unable to resolve %s, treating it as unborn: %v", want, err)
		return nil, nil
	}
	return c, nil
}

// merge records the merge of fetched into head on the local branch. A
// conflict returns *ConflictError and writes no commit.
func (e *Engine) merge(repo *git.Repository, head, fetched *object.Commit) (*object.Commit, error) {
	baseTree, err := mergeBaseTree(head, fetched)
	if err != nil {
		return nil, err
	}
	ourTree, err := head.Tree()
	if err != nil {
		return nil, err
	}
	theirTree, err := fetched.Tree()
	if err != nil {
		return nil, err
	}

	base, err := flatten(baseTree)
	if err != nil {
		return nil, err
	}
	ours, err := flatten(ourTree)
	if err != nil {
		return nil, err
	}
	theirs, err := flatten(theirTree)
	if err != nil {
		return nil, err
	}

	merged, err := newTreeMerger(repo.Storer).merge(base, ours, theirs)
	if err != nil {
		return nil, err
	}
	treeHash, err := writeTree(repo.Storer, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to write merged tree: %w", err)
	}
	msg := fmt.Sprintf("Merge remote-tracking branch '%s/%s'", RemoteName, e.target.Branch)
	commitHash, err := writeMergeCommit(repo.Storer, treeHash, head.Hash, fetched.Hash, e.sig, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to write merge commit: %w", err)
	}
	ref := plumbing.NewHashReference(localBranchRef(e.target.Branch), commitHash)
	if err := repo.Storer.SetReference(ref); err != nil {
		return nil, err
	}
	return repo.CommitObject(commitHash)
}

// indexFiles lists what the last checkout wrote, so files dropped upstream
// can be removed.
func indexFiles(repo *git.Repository) (map[string]fileEntry, error) {
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, err
	}
	out := make(map[string]fileEntry, len(idx.Entries))
	for _, e := range idx.Entries {
		out[e.Name] = fileEntry{Hash: e.Hash, Mode: e.Mode}
	}
	return out, nil
}
