package gitsync

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
)

const (
	lfsSpecVersion  = "https://git-lfs.github.com/spec/v1"
	lfsMediaType    = "application/vnd.git-lfs+json"
	maxPointerSize  = 1024
	lfsBatchMaxSize = 100
)

// Pointer is a parsed Git LFS pointer file.
type Pointer struct {
	OID  string
	Size int64
}

// ParsePointer recognizes the content of an LFS pointer file.
func ParsePointer(data []byte) (Pointer, bool) {
	if len(data) == 0 || len(data) > maxPointerSize {
		return Pointer{}, false
	}
	var p Pointer
	var version bool
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), " ")
		if !ok {
			return Pointer{}, false
		}
		switch key {
		case "version":
			version = value == lfsSpecVersion
		case "oid":
			oid, found := strings.CutPrefix(value, "sha256:")
			if !found || len(oid) != 64 {
				return Pointer{}, false
			}
			p.OID = oid
		case "size":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				return Pointer{}, false
			}
			p.Size = n
		}
	}
	if !version || p.OID == "" {
		return Pointer{}, false
	}
	return p, true
}

// Matches reports whether r yields exactly the object p points to.
func (p Pointer) Matches(r io.Reader) bool {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil || n != p.Size {
		return false
	}
	return hex.EncodeToString(h.Sum(nil)) == p.OID
}

// lfsEndpoint derives the LFS server URL from the repository URL.
func lfsEndpoint(repoURL string) string {
	u := strings.TrimSuffix(repoURL, "/")
	if !strings.HasSuffix(u, ".git") {
		u += ".git"
	}
	return u + "/info/lfs"
}

// lfs resolves pointer files in the worktree into real content, keeping a
// local object cache laid out like git-lfs does (objects/aa/bb/<oid>).
type lfs struct {
	objects  storer.EncodedObjectStorer
	worktree billy.Filesystem
	cache    billy.Filesystem
	endpoint string
	client   *http.Client
}

func (l *lfs) cachePath(oid string) string {
	return path.Join("objects", oid[0:2], oid[2:4], oid)
}

// pointerFor returns the pointer stored in a blob, if it is one.
func (l *lfs) pointerFor(blob plumbing.Hash) (Pointer, bool) {
	b, err := object.GetBlob(l.objects, blob)
	if err != nil || b.Size > maxPointerSize {
		return Pointer{}, false
	}
	rd, err := b.Reader()
	if err != nil {
		return Pointer{}, false
	}
	defer rd.Close()
	data, err := io.ReadAll(rd)
	if err != nil {
		return Pointer{}, false
	}
	return ParsePointer(data)
}

// resolved reports whether the worktree file already holds the object the
// pointer blob refers to.
func (l *lfs) resolved(name string, blob plumbing.Hash) bool {
	p, ok := l.pointerFor(blob)
	if !ok {
		return false
	}
	return l.fileMatches(l.worktree, name, p)
}

func (l *lfs) fileMatches(fs billy.Filesystem, name string, p Pointer) bool {
	fi, err := fs.Stat(name)
	if err != nil || fi.IsDir() || fi.Size() != p.Size {
		return false
	}
	f, err := fs.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	return p.Matches(f)
}

// pull replaces every unresolved pointer among files with its object and
// returns how many files were written.
func (l *lfs) pull(ctx context.Context, files map[string]fileEntry, r job.Reporter) (int, error) {
	pending := map[string][]string{} // oid → worktree paths
	pointers := map[string]Pointer{}
	for _, name := range sortedKeys(files) {
		p, ok := l.pointerFor(files[name].Hash)
		if !ok || l.fileMatches(l.worktree, name, p) {
			continue
		}
		pending[p.OID] = append(pending[p.OID], name)
		pointers[p.OID] = p
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var missing []Pointer
	for oid, p := range pointers {
		if !l.fileMatches(l.cache, l.cachePath(oid), p) {
			missing = append(missing, p)
		}
	}

	for start := 0; start < len(missing); start += lfsBatchMaxSize {
		end := min(start+lfsBatchMaxSize, len(missing))
		if err := l.download(ctx, missing[start:end], func(done int) {
			r.Update(fmt.Sprintf("Downloading large files: %d / %d", start+done, len(missing)), float64(start+done)/float64(len(missing)))
		}); err != nil {
			return 0, err
		}
	}

	written := 0
	for oid, names := range pending {
		for _, name := range names {
			if err := copyFile(l.cache, l.cachePath(oid), l.worktree, name); err != nil {
				return written, fmt.Errorf("failed to place %s: %w", name, err)
			}
			written++
		}
	}
	return written, nil
}

type batchObject struct {
	OID     string `json:"oid"`
	Size    int64  `json:"size"`
	Actions struct {
		Download *struct {
			Href   string            `json:"href"`
			Header map[string]string `json:"header"`
		} `json:"download"`
	} `json:"actions"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type batchRequest struct {
	Operation string        `json:"operation"`
	Transfers []string      `json:"transfers"`
	Objects   []batchObject `json:"objects"`
}

type batchResponse struct {
	Objects []batchObject `json:"objects"`
	Message string        `json:"message"`
}

// download fetches ps through the batch API into the cache.
func (l *lfs) download(ctx context.Context, ps []Pointer, progress func(done int)) error {
	req := batchRequest{Operation: "download", Transfers: []string{"basic"}}
	for _, p := range ps {
		req.Objects = append(req.Objects, batchObject{OID: p.OID, Size: p.Size})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint+"/objects/batch", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", lfsMediaType)
	httpReq.Header.Set("Content-Type", lfsMediaType)

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("lfs batch request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lfs batch request failed: %s", resp.Status)
	}

	var batch batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return fmt.Errorf("invalid lfs batch response: %w", err)
	}

	want := map[string]Pointer{}
	for _, p := range ps {
		want[p.OID] = p
	}
	for i, obj := range batch.Objects {
		p, ok := want[obj.OID]
		if !ok {
			continue
		}
		if obj.Error != nil {
			return fmt.Errorf("lfs object %s: %s (%d)", obj.OID, obj.Error.Message, obj.Error.Code)
		}
		if obj.Actions.Download == nil {
			return fmt.Errorf("lfs object %s has no download action", obj.OID)
		}
		if err := l.fetchObject(ctx, p, obj.Actions.Download.Href, obj.Actions.Download.Header); err != nil {
			return err
		}
		delete(want, obj.OID)
		progress(i + 1)
	}
	if len(want) > 0 {
		return fmt.Errorf("lfs server did not return %d object(s)", len(want))
	}
	return nil
}

// fetchObject downloads one object, verifies it, and moves it into the cache.
func (l *lfs) fetchObject(ctx context.Context, p Pointer, href string, header map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download lfs object %s: %w", p.OID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download lfs object %s: %s", p.OID, resp.Status)
	}

	final := l.cachePath(p.OID)
	if err := l.cache.MkdirAll(path.Dir(final), 0o755); err != nil {
		return err
	}
	tmp, err := l.cache.TempFile(path.Dir(final), "incomplete-")
	if err != nil {
		return err
	}
	h := sha256.New()
	n, copyErr := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = l.cache.Remove(tmp.Name())
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	}
	if n != p.Size || hex.EncodeToString(h.Sum(nil)) != p.OID {
		_ = l.cache.Remove(tmp.Name())
		return fmt.Errorf("lfs object %s failed verification", p.OID)
	}
	return l.cache.Rename(tmp.Name(), final)
}

func copyFile(srcFS billy.Filesystem, src string, dstFS billy.Filesystem, dst string) error {
	in, err := srcFS.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if dir := path.Dir(dst); dir != "." {
		if err := dstFS.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	perm := os.FileMode(0o644)
	if fi, err := srcFS.Stat(src); err == nil {
		perm = fi.Mode().Perm()
	}
	out, err := dstFS.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
