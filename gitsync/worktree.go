package gitsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// fileEntry is a non-directory tree entry.
type fileEntry struct {
	Hash plumbing.Hash
	Mode filemode.FileMode
}

// flatten maps every non-directory path of tree to its entry. A nil tree is
// empty.
func flatten(tree *object.Tree) (map[string]fileEntry, error) {
	out := map[string]fileEntry{}
	if tree == nil {
		return out, nil
	}
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		out[name] = fileEntry{Hash: entry.Hash, Mode: entry.Mode}
	}
}

// worktree writes tree content into a billy filesystem rooted at the
// instance folder and keeps the repository index in step with it.
type worktree struct {
	objects storer.EncodedObjectStorer
	index   storer.IndexStorer
	fs      billy.Filesystem
	// resolved reports whether the file on disk holds the real content of a
	// large-file pointer blob, in which case it is left alone.
	resolved func(name string, blob plumbing.Hash) bool
	// stat holds the index entries last written, by path. A file whose size
	// and mtime still match its entry is not rehashed.
	stat map[string]*index.Entry
}

// loadStat reads the stat data of the current index.
func (w *worktree) loadStat() error {
	idx, err := w.index.Index()
	if err != nil {
		return err
	}
	w.stat = make(map[string]*index.Entry, len(idx.Entries))
	for _, entry := range idx.Entries {
		w.stat[entry.Name] = entry
	}
	return nil
}

// checkout force-writes every file of next and removes files that prev
// tracked but next does not. Untracked files are left alone.
func (w *worktree) checkout(ctx context.Context, next, prev map[string]fileEntry) error {
	for _, name := range sortedKeys(next) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.restore(name, next[name]); err != nil {
			return err
		}
	}
	for name := range prev {
		if _, ok := next[name]; ok {
			continue
		}
		if err := w.remove(name); err != nil {
			return err
		}
	}
	return w.writeIndex(next)
}

// restore makes name hold the content of e unless it already does.
func (w *worktree) restore(name string, e fileEntry) error {
	if e.Mode == filemode.Submodule {
		return nil
	}
	same, err := w.matches(name, e)
	if err != nil {
		return err
	}
	if same || (w.resolved != nil && w.resolved(name, e.Hash)) {
		return nil
	}
	return w.write(name, e)
}

func (w *worktree) matches(name string, e fileEntry) (bool, error) {
	fi, err := w.fs.Lstat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if fi.IsDir() {
		return false, nil
	}

	if e.Mode == filemode.Symlink {
		if fi.Mode()&os.ModeSymlink == 0 {
			return false, nil
		}
		target, err := w.fs.Readlink(name)
		if err != nil {
			return false, nil
		}
		return plumbing.ComputeHash(plumbing.BlobObject, []byte(target)) == e.Hash, nil
	}

	if s, ok := w.stat[name]; ok && s.Hash == e.Hash && s.Mode == e.Mode &&
		s.Size == uint32(fi.Size()) && s.ModifiedAt.Equal(fi.ModTime()) {
		return true, nil
	}

	f, err := w.fs.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()
	h := plumbing.NewHasher(plumbing.BlobObject, fi.Size())
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return h.Sum() == e.Hash, nil
}

func (w *worktree) write(name string, e fileEntry) error {
	blob, err := object.GetBlob(w.objects, e.Hash)
	if err != nil {
		return fmt.Errorf("missing blob for %s: %w", name, err)
	}
	rd, err := blob.Reader()
	if err != nil {
		return err
	}
	defer rd.Close()

	if dir := path.Dir(name); dir != "." {
		if err := w.clearFileAncestors(dir); err != nil {
			return err
		}
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if fi, err := w.fs.Lstat(name); err == nil && (fi.IsDir() || fi.Mode()&os.ModeSymlink != 0) {
		if err := util.RemoveAll(w.fs, name); err != nil {
			return err
		}
	}

	if e.Mode == filemode.Symlink {
		target, err := io.ReadAll(rd)
		if err != nil {
			return err
		}
		return w.fs.Symlink(string(target), name)
	}

	perm := os.FileMode(0o644)
	if e.Mode == filemode.Executable {
		perm = 0o755
	}
	f, err := w.fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rd); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// clearFileAncestors removes a regular file standing where a directory
// is needed, e.g. when a tracked file became a folder upstream.
func (w *worktree) clearFileAncestors(dir string) error {
	parts := strings.Split(dir, "/")
	for i := range parts {
		p := strings.Join(parts[:i+1], "/")
		fi, err := w.fs.Lstat(p)
		if err != nil {
			return nil
		}
		if !fi.IsDir() {
			return w.fs.Remove(p)
		}
	}
	return nil
}

// remove deletes name and any parent directories it leaves empty.
func (w *worktree) remove(name string) error {
	if err := w.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	pruneEmptyParents(w.fs, path.Dir(name), "")
	return nil
}

// restorePath restores the tracked files under dir and deletes every
// untracked, non-ignored file below it. It returns the number of files
// removed.
func (w *worktree) restorePath(ctx context.Context, dir string, tracked map[string]fileEntry, ignored gitignore.Matcher) (int, error) {
	prefix := dir + "/"
	for _, name := range sortedKeys(tracked) {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := w.restore(name, tracked[name]); err != nil {
			return 0, err
		}
	}

	fi, err := w.fs.Lstat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	if !fi.IsDir() {
		return 0, nil
	}

	removed := 0
	var sweep func(p string) error
	sweep = func(p string) error {
		entries, err := w.fs.ReadDir(p)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			child := p + "/" + entry.Name()
			isDir := entry.IsDir()
			if ignored != nil && ignored.Match(strings.Split(child, "/"), isDir) {
				continue
			}
			if isDir {
				if err := sweep(child); err != nil {
					return err
				}
				pruneEmptyDir(w.fs, child)
				continue
			}
			if _, ok := tracked[child]; ok {
				continue
			}
			if err := w.fs.Remove(child); err != nil && !os.IsNotExist(err) {
				return err
			}
			removed++
		}
		return nil
	}
	if err := sweep(dir); err != nil {
		return removed, err
	}
	return removed, nil
}

// writeIndex replaces the repository index with the entries of files.
func (w *worktree) writeIndex(files map[string]fileEntry) error {
	idx := &index.Index{Version: 2}
	w.stat = make(map[string]*index.Entry, len(files))
	for _, name := range sortedKeys(files) {
		e := files[name]
		entry := &index.Entry{Name: name, Hash: e.Hash, Mode: e.Mode}
		if fi, err := w.fs.Lstat(name); err == nil {
			entry.Size = uint32(fi.Size())
			entry.ModifiedAt = fi.ModTime()
		}
		idx.Entries = append(idx.Entries, entry)
		w.stat[name] = entry
	}
	return w.index.SetIndex(idx)
}

func sortedKeys(m map[string]fileEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// pruneEmptyParents removes dir and its ancestors while they are empty,
// stopping at stop.
func pruneEmptyParents(fs billy.Filesystem, dir, stop string) {
	for dir != "." && dir != "" && dir != stop {
		if !pruneEmptyDir(fs, dir) {
			return
		}
		dir = path.Dir(dir)
	}
}

func pruneEmptyDir(fs billy.Filesystem, dir string) bool {
	entries, err := fs.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}
	return fs.Remove(dir) == nil
}
