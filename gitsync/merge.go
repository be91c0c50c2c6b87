package gitsync

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// analysis is the relationship between the local HEAD and the fetched commit.
type analysis int

const (
	analysisUpToDate analysis = iota
	analysisFastForward
	analysisDivergent
)

func (a analysis) String() string {
	switch a {
	case analysisUpToDate:
		return "up-to-date"
	case analysisFastForward:
		return "fast-forward"
	default:
		return "divergent"
	}
}

// analyze classifies head against fetched. A nil head (unborn branch) is a
// fast-forward.
func analyze(head, fetched *object.Commit) (analysis, error) {
	if head == nil {
		return analysisFastForward, nil
	}
	if head.Hash == fetched.Hash {
		return analysisUpToDate, nil
	}
	behind, err := fetched.IsAncestor(head)
	if err != nil {
		return 0, err
	}
	if behind {
		return analysisUpToDate, nil
	}
	ahead, err := head.IsAncestor(fetched)
	if err != nil {
		return 0, err
	}
	if ahead {
		return analysisFastForward, nil
	}
	return analysisDivergent, nil
}

// mergeBaseTree returns the tree of the best common ancestor of a and b, or
// nil when the histories are unrelated.
func mergeBaseTree(a, b *object.Commit) (*object.Tree, error) {
	bases, err := a.MergeBase(b)
	if err != nil {
		return nil, err
	}
	if len(bases) == 0 {
		return nil, nil
	}
	return bases[0].Tree()
}

// treeMerger performs a three-way merge of flattened trees and writes the
// result into the object store.
type treeMerger struct {
	objects storer.EncodedObjectStorer
	dmp     *diffmatchpatch.DiffMatchPatch
}

func newTreeMerger(objects storer.EncodedObjectStorer) *treeMerger {
	return &treeMerger{objects: objects, dmp: diffmatchpatch.New()}
}

// merge returns the merged file set, or a *ConflictError listing every path
// that could not be reconciled.
func (m *treeMerger) merge(base, ours, theirs map[string]fileEntry) (map[string]fileEntry, error) {
	paths := map[string]struct{}{}
	for _, set := range []map[string]fileEntry{base, ours, theirs} {
		for p := range set {
			paths[p] = struct{}{}
		}
	}

	out := map[string]fileEntry{}
	var conflicts []string
	for p := range paths {
		b, inBase := base[p]
		o, inOurs := ours[p]
		t, inTheirs := theirs[p]

		switch {
		case inOurs == inTheirs && o == t:
			if inOurs {
				out[p] = o
			}
		case inOurs == inBase && o == b:
			if inTheirs {
				out[p] = t
			}
		case inTheirs == inBase && t == b:
			if inOurs {
				out[p] = o
			}
		case inBase && inOurs && inTheirs:
			merged, ok, err := m.mergeFile(b, o, t)
			if err != nil {
				return nil, fmt.Errorf("failed to merge %s: %w", p, err)
			}
			if !ok {
				conflicts = append(conflicts, p)
				continue
			}
			out[p] = merged
		default:
			// modify/delete or add/add with different content
			conflicts = append(conflicts, p)
		}
	}

	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return nil, &ConflictError{Paths: conflicts}
	}
	return out, nil
}

// mergeFile merges the content of a path both sides edited.
func (m *treeMerger) mergeFile(b, o, t fileEntry) (fileEntry, bool, error) {
	mode, ok := mergeMode(b.Mode, o.Mode, t.Mode)
	if !ok || mode == filemode.Symlink || mode == filemode.Submodule {
		return fileEntry{}, false, nil
	}
	if o.Hash == t.Hash {
		return fileEntry{Hash: o.Hash, Mode: mode}, true, nil
	}

	base, err := m.read(b.Hash)
	if err != nil {
		return fileEntry{}, false, err
	}
	ours, err := m.read(o.Hash)
	if err != nil {
		return fileEntry{}, false, err
	}
	theirs, err := m.read(t.Hash)
	if err != nil {
		return fileEntry{}, false, err
	}
	if isBinary(base) || isBinary(ours) || isBinary(theirs) {
		return fileEntry{}, false, nil
	}

	merged, ok := m.mergeText(string(base), string(ours), string(theirs))
	if !ok {
		return fileEntry{}, false, nil
	}
	h, err := writeBlob(m.objects, []byte(merged))
	if err != nil {
		return fileEntry{}, false, err
	}
	return fileEntry{Hash: h, Mode: mode}, true, nil
}

// mergeText merges two line-based edits of base. Changes from both sides
// that overlap or touch the same base lines conflict unless they are
// identical.
func (m *treeMerger) mergeText(base, ours, theirs string) (string, bool) {
	lines := splitLines(base)
	a, b := m.hunks(base, ours), m.hunks(base, theirs)

	var out []string
	pos := 0
	emit := func(h hunk) {
		out = append(out, lines[pos:h.start]...)
		out = append(out, h.lines...)
		pos = h.end
	}
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b):
			emit(a[i])
			i++
		case i == len(a):
			emit(b[j])
			j++
		case a[i].start <= b[j].end && b[j].start <= a[i].end:
			if !a[i].equal(b[j]) {
				return "", false
			}
			emit(a[i])
			i++
			j++
		case a[i].start < b[j].start:
			emit(a[i])
			i++
		default:
			emit(b[j])
			j++
		}
	}
	out = append(out, lines[pos:]...)
	return strings.Join(out, ""), true
}

// hunk replaces the base lines [start, end) with lines. An insertion has
// start == end.
type hunk struct {
	start, end int
	lines      []string
}

func (h hunk) equal(o hunk) bool {
	return h.start == o.start && h.end == o.end && slices.Equal(h.lines, o.lines)
}

// hunks returns the changes that turn base into other, in base order.
func (m *treeMerger) hunks(base, other string) []hunk {
	// One rune per line.
	a, b, _ := m.dmp.DiffLinesToChars(base, other)
	otherLines := splitLines(other)

	var out []hunk
	var cur *hunk
	pos, otherPos := 0, 0
	for _, d := range m.dmp.DiffMain(a, b, false) {
		n := utf8.RuneCountInString(d.Text)
		if d.Type == diffmatchpatch.DiffEqual {
			if cur != nil {
				out = append(out, *cur)
				cur = nil
			}
			pos += n
			otherPos += n
			continue
		}
		if cur == nil {
			cur = &hunk{start: pos, end: pos}
		}
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			pos += n
			cur.end = pos
		case diffmatchpatch.DiffInsert:
			cur.lines = append(cur.lines, otherLines[otherPos:otherPos+n]...)
			otherPos += n
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

// splitLines splits s after every newline. A final line without one is kept.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (m *treeMerger) read(h plumbing.Hash) ([]byte, error) {
	blob, err := object.GetBlob(m.objects, h)
	if err != nil {
		return nil, err
	}
	rd, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return io.ReadAll(rd)
}

func mergeMode(b, o, t filemode.FileMode) (filemode.FileMode, bool) {
	switch {
	case o == t:
		return o, true
	case o == b:
		return t, true
	case t == b:
		return o, true
	}
	return 0, false
}

func isBinary(data []byte) bool {
	n := len(data)
	if n > 8000 {
		n = 8000
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

func writeBlob(s storer.EncodedObjectStorer, data []byte) (plumbing.Hash, error) {
	obj := s.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(obj)
}

// dirNode is one directory level while rebuilding a tree from flat paths.
type dirNode struct {
	files map[string]fileEntry
	dirs  map[string]*dirNode
}

func newDirNode() *dirNode {
	return &dirNode{files: map[string]fileEntry{}, dirs: map[string]*dirNode{}}
}

// writeTree stores the nested trees for files and returns the root hash.
func writeTree(s storer.EncodedObjectStorer, files map[string]fileEntry) (plumbing.Hash, error) {
	root := newDirNode()
	for p, e := range files {
		parts := strings.Split(p, "/")
		n := root
		for _, dir := range parts[:len(parts)-1] {
			child, ok := n.dirs[dir]
			if !ok {
				child = newDirNode()
				n.dirs[dir] = child
			}
			n = child
		}
		n.files[parts[len(parts)-1]] = e
	}
	return writeDirNode(s, root)
}

func writeDirNode(s storer.EncodedObjectStorer, n *dirNode) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(n.files)+len(n.dirs))
	for name, child := range n.dirs {
		h, err := writeDirNode(s, child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: h})
	}
	for name, e := range n.files {
		entries = append(entries, object.TreeEntry{Name: name, Mode: e.Mode, Hash: e.Hash})
	}
	// git orders tree entries as if directory names ended in "/"
	sort.Slice(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})

	tree := &object.Tree{Entries: entries}
	obj := s.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(obj)
}

func treeSortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// writeMergeCommit stores a two-parent commit of tree and returns its hash.
func writeMergeCommit(s storer.EncodedObjectStorer, tree plumbing.Hash, ours, theirs plumbing.Hash, sig object.Signature, message string) (plumbing.Hash, error) {
	if sig.When.IsZero() {
		sig.When = time.Now()
	}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: []plumbing.Hash{ours, theirs},
	}
	obj := s.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(obj)
}
