// Package instance recognizes modpack instance folders and lists the
// directories a user can browse to find one.
package instance

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// markers are the subdirectories every instance folder has.
var markers = []string{"mods", "config"}

// IsValid reports whether path looks like a modpack instance.
func IsValid(path string) bool {
	for _, m := range markers {
		fi, err := os.Stat(filepath.Join(path, m))
		if err != nil || !fi.IsDir() {
			return false
		}
	}
	return true
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// ParseInput turns typed or pasted text into a path: surrounding whitespace
// and one pair of double quotes are removed and separators are normalized
// for the current OS.
func ParseInput(input string) string {
	return parseInput(input, runtime.GOOS)
}

func parseInput(input, goos string) string {
	s := strings.TrimSpace(input)
	if len(s) > 1 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	if goos == "windows" {
		return strings.ReplaceAll(s, "/", `\`)
	}
	return strings.ReplaceAll(s, `\`, "/")
}

// Subdirs lists the directories directly inside dir, sorted by name.
func Subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() || (e.Type()&os.ModeSymlink != 0 && IsDir(p)) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}
