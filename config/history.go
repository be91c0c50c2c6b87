package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	HistoryFileName  = "history.txt"
	TutorialFlagName = "tutorial.flag"
)

// History is the list of instance folders that were synchronized
// successfully, oldest first.
type History struct {
	dir   string
	Paths []string
}

// LoadHistory reads history.txt from the config directory.
func LoadHistory() (*History, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	return LoadHistoryFrom(dir)
}

// LoadHistoryFrom reads history.txt from dir. Entries that no longer exist or
// are not directories are dropped. A missing file is an empty history.
func LoadHistoryFrom(dir string) (*History, error) {
	h := &History{dir: dir}
	data, err := os.ReadFile(filepath.Join(dir, HistoryFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		p := strings.TrimSpace(line)
		if p == "" || slices.Contains(h.Paths, p) {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			h.Paths = append(h.Paths, p)
		}
	}
	return h, nil
}

// Add appends path if it is not already recorded. Relative paths are made
// absolute first.
func (h *History) Add(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if slices.Contains(h.Paths, path) {
		return
	}
	h.Paths = append(h.Paths, path)
}

// Prune drops entries that stopped being directories since load.
func (h *History) Prune() {
	h.Paths = slices.DeleteFunc(h.Paths, func(p string) bool {
		info, err := os.Stat(p)
		return err != nil || !info.IsDir()
	})
}

// Empty reports whether no instance has been recorded.
func (h *History) Empty() bool {
	return len(h.Paths) == 0
}

// Save writes the history as newline separated paths.
func (h *History) Save() error {
	if err := os.MkdirAll(h.dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data := strings.Join(h.Paths, "\n")
	if err := os.WriteFile(filepath.Join(h.dir, HistoryFileName), []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// ShouldStartTutorial reports whether the first-run tutorial is due: nothing
// has been synchronized yet and the tutorial was never completed.
func ShouldStartTutorial(h *History) bool {
	if !h.Empty() {
		return false
	}
	_, err := os.Stat(filepath.Join(h.dir, TutorialFlagName))
	return os.IsNotExist(err)
}

// MarkTutorialCompleted creates the tutorial flag file.
func MarkTutorialCompleted(h *History) error {
	if err := os.MkdirAll(h.dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(h.dir, TutorialFlagName), nil, 0644); err != nil {
		return fmt.Errorf("failed to write tutorial flag: %w", err)
	}
	return nil
}
