package check

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/minecraftwithtwink/Modpack-Updater/gitsync"
)

// auditRepository checks the repository, its remote and HEAD. The returned
// repository is nil when none could be opened.
func auditRepository(path, upstream string) (*git.Repository, []Entry) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, []Entry{{Name: "repository", Status: StatusFailed, Detail: err.Error()}}
	}
	entries := []Entry{{Name: "repository", Status: StatusOK}}

	remote, err := repo.Remote(gitsync.RemoteName)
	switch {
	case err != nil:
		entries = append(entries, Entry{Name: "origin", Status: StatusFailed, Detail: err.Error()})
	case len(remote.Config().URLs) != 1 || remote.Config().URLs[0] != upstream:
		entries = append(entries, Entry{
			Name:   "origin",
			Status: StatusFailed,
			Detail: fmt.Sprintf("points at %s", strings.Join(remote.Config().URLs, ", ")),
		})
	default:
		entries = append(entries, Entry{Name: "origin", Status: StatusOK, Detail: upstream})
	}

	head, err := repo.Head()
	switch {
	case err != nil:
		entries = append(entries, Entry{Name: "HEAD", Status: StatusFailed, Detail: err.Error()})
	case !head.Name().IsBranch():
		entries = append(entries, Entry{Name: "HEAD", Status: StatusFailed, Detail: "detached at " + head.Hash().String()[:7]})
	default:
		entries = append(entries, Entry{
			Name:   "HEAD",
			Status: StatusOK,
			Detail: fmt.Sprintf("%s @ %s", head.Name().Short(), head.Hash().String()[:7]),
		})
	}
	return repo, entries
}

// trackedFiles returns the index entries by path.
func trackedFiles(repo *git.Repository) (map[string]plumbing.Hash, error) {
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, err
	}
	out := make(map[string]plumbing.Hash, len(idx.Entries))
	for _, e := range idx.Entries {
		out[e.Name] = e.Hash
	}
	return out, nil
}
