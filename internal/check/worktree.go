package check

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/minecraftwithtwink/Modpack-Updater/gitsync"
)

// maxListed caps how many offending paths an entry names.
const maxListed = 5

func listDetail(paths []string) string {
	sort.Strings(paths)
	if len(paths) > maxListed {
		return strings.Join(paths[:maxListed], ", ") + ", ..."
	}
	return strings.Join(paths, ", ")
}

// auditManaged reports untracked, non-ignored files in each managed dir.
func auditManaged(repo *git.Repository, tracked map[string]plumbing.Hash) []Entry {
	wt, err := repo.Worktree()
	if err != nil {
		return []Entry{{Name: "worktree", Status: StatusBroken, Detail: err.Error()}}
	}
	fs := wt.Filesystem
	patterns, err := gitignore.ReadPatterns(fs, nil)
	if err != nil {
		return []Entry{{Name: "gitignore", Status: StatusBroken, Detail: err.Error()}}
	}
	ignored := gitignore.NewMatcher(patterns)

	var entries []Entry
	for _, dir := range gitsync.ManagedDirs {
		name := dir + "/"
		if fi, err := fs.Stat(dir); err != nil || !fi.IsDir() {
			entries = append(entries, Entry{Name: name, Status: StatusSkipped, Detail: "not present"})
			continue
		}
		var untracked []string
		err := util.Walk(fs, dir, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			p = filepath.ToSlash(p)
			if ignored.Match(strings.Split(p, "/"), fi.IsDir()) {
				if fi.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if fi.IsDir() {
				return nil
			}
			if _, ok := tracked[p]; !ok {
				untracked = append(untracked, p)
			}
			return nil
		})
		switch {
		case err != nil:
			entries = append(entries, Entry{Name: name, Status: StatusBroken, Detail: err.Error()})
		case len(untracked) > 0:
			entries = append(entries, Entry{Name: name, Status: StatusFailed, Detail: "untracked: " + listDetail(untracked)})
		default:
			entries = append(entries, Entry{Name: name, Status: StatusOK})
		}
	}
	return entries
}

// auditOverlay checks that every overlay destination matches its source.
func auditOverlay(root string, m *gitsync.Manifest) []Entry {
	fs := osfs.New(root)
	var entries []Entry
	for _, e := range m.Entries {
		src := m.SourcePath(e)
		if _, err := fs.Stat(src); err != nil {
			entries = append(entries, Entry{Name: e.Dest, Status: StatusSkipped, Detail: "no default shipped"})
			continue
		}
		same, err := sameTree(fs, src, e.Dest)
		switch {
		case err != nil:
			entries = append(entries, Entry{Name: e.Dest, Status: StatusFailed, Detail: err.Error()})
		case !same:
			entries = append(entries, Entry{Name: e.Dest, Status: StatusFailed, Detail: "differs from " + src})
		default:
			entries = append(entries, Entry{Name: e.Dest, Status: StatusOK})
		}
	}
	return entries
}

// sameTree compares a file or directory at a with the one at b.
func sameTree(fs billy.Filesystem, a, b string) (bool, error) {
	fa, err := fs.Stat(a)
	if err != nil {
		return false, err
	}
	fb, err := fs.Stat(b)
	if err != nil {
		return false, err
	}
	if fa.IsDir() != fb.IsDir() {
		return false, nil
	}
	if !fa.IsDir() {
		if fa.Size() != fb.Size() {
			return false, nil
		}
		da, err := util.ReadFile(fs, a)
		if err != nil {
			return false, err
		}
		db, err := util.ReadFile(fs, b)
		if err != nil {
			return false, err
		}
		return bytes.Equal(da, db), nil
	}

	la, err := fs.ReadDir(a)
	if err != nil {
		return false, err
	}
	lb, err := fs.ReadDir(b)
	if err != nil {
		return false, err
	}
	if len(la) != len(lb) {
		return false, nil
	}
	for i := range la {
		if la[i].Name() != lb[i].Name() {
			return false, nil
		}
		same, err := sameTree(fs, path.Join(a, la[i].Name()), path.Join(b, lb[i].Name()))
		if err != nil || !same {
			return false, err
		}
	}
	return true, nil
}

// auditLargeFiles reports tracked files still holding an LFS pointer.
func auditLargeFiles(root string, tracked map[string]plumbing.Hash) []Entry {
	fs := osfs.New(root)
	var pointers []string
	for name := range tracked {
		fi, err := fs.Stat(name)
		if err != nil || fi.IsDir() || fi.Size() > 1024 {
			continue
		}
		f, err := fs.Open(name)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			continue
		}
		if _, ok := gitsync.ParsePointer(data); ok {
			pointers = append(pointers, name)
		}
	}
	if len(pointers) > 0 {
		return []Entry{{Name: "large files", Status: StatusFailed, Detail: "unresolved: " + listDetail(pointers)}}
	}
	return []Entry{{Name: "large files", Status: StatusOK}}
}
