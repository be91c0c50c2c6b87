package gitsync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
)

const (
	// UpstreamURL is the only remote the updater ever talks to.
	UpstreamURL = "https://github.com/minecraftwithtwink/Twinkcraft-Modpack.git"
	// RemoteName is the remote the upstream is bound to in every instance.
	RemoteName = "origin"
)

// FetchRefSpec returns the force-update refspec mapping the remote branch to
// its remote-tracking ref.
func FetchRefSpec(branch string) config.RefSpec {
	return config.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, RemoteName, branch))
}

func remoteBranchRef(branch string) plumbing.ReferenceName {
	return plumbing.NewRemoteReferenceName(RemoteName, branch)
}

func localBranchRef(branch string) plumbing.ReferenceName {
	return plumbing.NewBranchReferenceName(branch)
}

// openOrInit opens the repository at path, initializing one when none exists.
func openOrInit(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	switch {
	case err == nil:
		return repo, nil
	case errors.Is(err, git.ErrRepositoryNotExists):
		log.InfoLog.Printf("initializing repository at %s", path)
		repo, err = git.PlainInit(path, false)
		if err != nil {
			return nil, fmt.Errorf("unable to initialize repository at %q: %w", path, err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unable to open repository at %q: %w", path, err)
	}
}

// bindRemote makes RemoteName point at url and nothing else, replacing a
// stale URL if one is configured.
func bindRemote(repo *git.Repository, url string) error {
	cfg := config.RemoteConfig{
		Name: RemoteName,
		URLs: []string{url},
	}

	remote, err := repo.Remote(RemoteName)
	switch {
	case errors.Is(err, git.ErrRemoteNotFound):
		_, err = repo.CreateRemote(&cfg)
		return err
	case err == nil:
		urls := remote.Config().URLs
		if len(urls) == 1 && urls[0] == url {
			return nil
		}
		log.InfoLog.Printf("rebinding %s from %v to %s", RemoteName, urls, url)
		if err := repo.DeleteRemote(RemoteName); err != nil {
			return err
		}
		_, err = repo.CreateRemote(&cfg)
		return err
	default:
		return err
	}
}

// ListRemoteBranches lists the branch names advertised by url, sorted
// lexically. It uses a throwaway in-memory remote so no local repository is
// read or written. Either the full list or an error is returned.
func ListRemoteBranches(ctx context.Context, url string) ([]string, error) {
	installCountingTransport()

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: RemoteName,
		URLs: []string{url},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list remote branches: %w", err)
	}

	var branches []string
	for _, ref := range refs {
		name := ref.Name().String()
		if strings.HasPrefix(name, "refs/heads/") {
			branches = append(branches, strings.TrimPrefix(name, "refs/heads/"))
		}
	}
	sort.Strings(branches)
	return branches, nil
}
