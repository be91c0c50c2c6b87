package gitsync

import (
	_ "embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

//go:embed overlay.yaml
var defaultManifest []byte

// OverlayEntry copies Source (relative to the manifest's source root) onto
// Dest (relative to the instance root).
type OverlayEntry struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
	Dir    bool   `yaml:"dir"`
}

// Manifest is the table of default configuration files forced onto an
// instance after it is synchronized.
type Manifest struct {
	SourceRoot string         `yaml:"source_root"`
	Entries    []OverlayEntry `yaml:"entries"`
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse overlay manifest: %w", err)
	}
	if err := checkRelative(m.SourceRoot); err != nil {
		return nil, fmt.Errorf("invalid source_root: %w", err)
	}
	for i, e := range m.Entries {
		if err := checkRelative(e.Source); err != nil {
			return nil, fmt.Errorf("invalid source in entry %d: %w", i, err)
		}
		if err := checkRelative(e.Dest); err != nil {
			return nil, fmt.Errorf("invalid dest in entry %d: %w", i, err)
		}
	}
	return &m, nil
}

// DefaultManifest returns the compiled-in manifest.
func DefaultManifest() *Manifest {
	m, err := ParseManifest(defaultManifest)
	if err != nil {
		panic(err)
	}
	return m
}

func checkRelative(p string) error {
	switch {
	case p == "":
		return fmt.Errorf("empty path")
	case path.IsAbs(p) || filepath.IsAbs(p):
		return fmt.Errorf("%q is absolute", p)
	case path.Clean(p) == ".." || strings.HasPrefix(path.Clean(p), "../"):
		return fmt.Errorf("%q escapes the instance", p)
	}
	return nil
}

// SourcePath is the instance-relative path of e's source.
func (m *Manifest) SourcePath(e OverlayEntry) string {
	return path.Join(m.SourceRoot, e.Source)
}

// Apply copies every entry whose source exists. It returns the number of
// entries applied.
func (m *Manifest) Apply(fs billy.Filesystem) (int, error) {
	applied := 0
	for _, e := range m.Entries {
		src := m.SourcePath(e)
		fi, err := fs.Stat(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return applied, err
		}
		if e.Dir != fi.IsDir() {
			return applied, fmt.Errorf("overlay source %s: expected directory=%t", src, e.Dir)
		}

		if dir := path.Dir(e.Dest); dir != "." {
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				return applied, err
			}
		}
		if e.Dir {
			if err := util.RemoveAll(fs, e.Dest); err != nil {
				return applied, fmt.Errorf("failed to replace %s: %w", e.Dest, err)
			}
			if err := copyTree(fs, src, e.Dest); err != nil {
				return applied, fmt.Errorf("failed to copy %s: %w", src, err)
			}
		} else if err := copyFile(fs, src, fs, e.Dest); err != nil {
			return applied, fmt.Errorf("failed to copy %s: %w", src, err)
		}
		applied++
	}
	return applied, nil
}

func copyTree(fs billy.Filesystem, src, dst string) error {
	return util.Walk(fs, src, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), src)
		target := path.Join(dst, rel)
		if fi.IsDir() {
			return fs.MkdirAll(target, 0o755)
		}
		return copyFile(fs, p, fs, target)
	})
}
