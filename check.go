package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/minecraftwithtwink/Modpack-Updater/internal/check"
	"github.com/spf13/cobra"
)

// errUnhealthy is returned when health < 100% to signal exit code 1 without printing a message.
var errUnhealthy = errors.New("unhealthy")

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Audit an instance folder against the upstream modpack",
		Long: `Audits an instance folder and reports what a sync would repair:

  1. Repository  (git repository, origin URL, checked-out branch)
  2. Managed     (untracked files in mods/, kubejs/, resourcepacks/, ...)
  3. Overlay     (default configurations match configureddefaults/)
  4. Large files (no unresolved LFS pointers)

The path defaults to the current directory.
Exit code 0 if 100% healthy, exit code 1 otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheck,
		// Health failures are not usage errors.
		SilenceUsage: true,
		// Suppress cobra's "Error: ..." line for the unhealthy sentinel.
		SilenceErrors: true,
	}
	cmd.Flags().BoolP("verbose", "v", false, "show skipped checks")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", abs)
	}

	result := check.Audit(abs, check.Options{})
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Instance: %s\n", result.Path)

	renderGroup(out, "Repository", result.Repository, verbose)
	if result.Managed != nil {
		renderGroup(out, "Managed directories", result.Managed, verbose)
		renderGroup(out, "Default configurations", result.Overlay, verbose)
		renderGroup(out, "Large files", result.LargeFiles, verbose)
	}

	ok, total := result.Summary()
	pct := 0
	if total > 0 {
		pct = ok * 100 / total
	}

	fmt.Fprintf(out, "\nHealth: %d/%d OK (%d%%)\n", ok, total, pct)

	if pct < 100 {
		return errUnhealthy
	}
	return nil
}

func renderGroup(out io.Writer, title string, entries []check.Entry, verbose bool) {
	fmt.Fprintf(out, "\n%s:\n", title)
	shown := 0
	for _, e := range entries {
		if e.Status == check.StatusSkipped && !verbose {
			continue
		}
		detail := ""
		if e.Detail != "" {
			detail = "  " + e.Detail
		}
		fmt.Fprintf(out, "  %s %-24s%s\n", statusGlyph(e.Status), e.Name, detail)
		shown++
	}
	if shown == 0 {
		fmt.Fprintf(out, "  (nothing to check)\n")
	}
}

func statusGlyph(s check.Status) string {
	switch s {
	case check.StatusOK:
		return "✓"
	case check.StatusSkipped:
		return "⊘"
	case check.StatusFailed, check.StatusBroken:
		return "✗"
	default:
		return "?"
	}
}

func init() {
	rootCmd.AddCommand(newCheckCmd())
}
