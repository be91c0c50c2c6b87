package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	cmd2 "github.com/minecraftwithtwink/Modpack-Updater/cmd"
	"github.com/minecraftwithtwink/Modpack-Updater/config"
	"github.com/minecraftwithtwink/Modpack-Updater/config/auditlog"
	"github.com/minecraftwithtwink/Modpack-Updater/deps"
	"github.com/minecraftwithtwink/Modpack-Updater/gitsync"
	"github.com/minecraftwithtwink/Modpack-Updater/internal/instance"
	sentrypkg "github.com/minecraftwithtwink/Modpack-Updater/internal/sentry"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/minecraftwithtwink/Modpack-Updater/ui"
	"github.com/minecraftwithtwink/Modpack-Updater/update"
	"github.com/spf13/cobra"
)

// newDepsChecker builds the checker the headless commands use. Tests replace it.
var newDepsChecker = func() *deps.Checker {
	return deps.NewChecker(cmd2.MakeExecutor())
}

// confirmInstall asks before installing missing tools. Tests replace it.
var confirmInstall = func(status deps.Status) (bool, error) {
	var ok bool
	form := ui.ConfirmForm(
		"Install missing dependencies?",
		fmt.Sprintf("%s Git and Git LFS are installed with your system package manager.", status),
		&ok,
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <path>",
		Short: "Bring an instance folder up to date without the TUI",
		Args:  cobra.ExactArgs(1),
		RunE:  runSync,
		// A failed sync is not a usage error.
		SilenceUsage: true,
	}
	cmd.Flags().StringP("branch", "b", "", "modpack branch to sync (defaults to the configured branch)")
	cmd.Flags().Bool("lfs", true, "resolve large-file pointers after the sync")
	cmd.Flags().String("upstream", gitsync.UpstreamURL, "modpack repository URL")
	_ = cmd.Flags().MarkHidden("upstream")
	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.LoadConfig()

	path, err := filepath.Abs(instance.ParseInput(args[0]))
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}
	if !instance.IsDir(path) {
		return fmt.Errorf("%s is not a directory", path)
	}
	if !instance.IsValid(path) {
		return fmt.Errorf("%s is not an instance folder (it needs mods and config folders)", path)
	}

	branch, _ := cmd.Flags().GetString("branch")
	if branch == "" {
		branch = cfg.Branch()
	}
	lfs := cfg.IsLFSEnabled()
	if cmd.Flags().Changed("lfs") {
		lfs, _ = cmd.Flags().GetBool("lfs")
	}
	upstream, _ := cmd.Flags().GetString("upstream")

	if status := newDepsChecker().Status(); status != deps.AllOk {
		return fmt.Errorf("%s Run `modpack-updater deps --install` first", status)
	}

	audit := openAudit(cfg)
	defer audit.Close()
	sentrypkg.SetContext(filepath.Base(path), branch)

	kind := job.KindSync.String()
	audit.Emit(auditlog.NewEvent(auditlog.EventJobStarted, kind, "headless sync",
		auditlog.WithInstance(path), auditlog.WithBranch(branch)))

	engine := gitsync.New(path, branch, gitsync.WithURL(upstream), gitsync.WithLFS(lfs))
	summary, err := runJob(ctx, cmd.ErrOrStderr(), job.KindSync, engine.Run)
	if err != nil {
		audit.Emit(auditlog.NewEvent(auditlog.EventJobFailed, kind, err.Error(),
			auditlog.WithInstance(path), auditlog.WithBranch(branch)))
		failureColor.Fprintf(cmd.ErrOrStderr(), "Sync failed: %v\n", err)
		return err
	}
	audit.Emit(auditlog.NewEvent(auditlog.EventJobSucceeded, kind, summary.Outcome.String(),
		auditlog.WithInstance(path), auditlog.WithBranch(branch)))

	if history, err := config.LoadHistory(); err == nil {
		history.Add(path)
		if err := history.Save(); err != nil {
			warnColor.Fprintf(cmd.ErrOrStderr(), "failed to save history: %v\n", err)
		}
	}

	out := cmd.OutOrStdout()
	successColor.Fprintf(out, "Synchronized %s\n", path)
	fmt.Fprintf(out, "  branch:      %s\n", branch)
	fmt.Fprintf(out, "  result:      %s\n", summary.Outcome)
	fmt.Fprintf(out, "  head:        %s\n", summary.Head)
	fmt.Fprintf(out, "  removed:     %d\n", summary.Removed)
	fmt.Fprintf(out, "  overlaid:    %d\n", summary.Overlaid)
	fmt.Fprintf(out, "  large files: %d\n", summary.LargeFiles)
	return nil
}

func newBranchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "branches",
		Short:        "List the modpack branches",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			branches, err := runJob(context.Background(), cmd.ErrOrStderr(), job.KindBranchList,
				func(ctx context.Context, r job.Reporter) ([]string, error) {
					r.Update("Fetching branches...", 0)
					return gitsync.ListRemoteBranches(ctx, gitsync.UpstreamURL)
				})
			if err != nil {
				return fmt.Errorf("failed to fetch branches: %w", err)
			}
			for _, b := range branches {
				fmt.Fprintln(cmd.OutOrStdout(), b)
			}
			return nil
		},
	}
}

func newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "deps",
		Short:        "Verify that Git and Git LFS are installed",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runDeps,
	}
	cmd.Flags().Bool("install", false, "install missing dependencies")
	cmd.Flags().BoolP("yes", "y", false, "install without asking")
	return cmd
}

func runDeps(cmd *cobra.Command, args []string) error {
	install, _ := cmd.Flags().GetBool("install")
	yes, _ := cmd.Flags().GetBool("yes")
	out := cmd.OutOrStdout()

	checker := newDepsChecker()
	status := checker.Status()
	if status == deps.AllOk {
		successColor.Fprintln(out, status)
		return nil
	}
	warnColor.Fprintln(out, status)
	if !install {
		return fmt.Errorf("%s is missing", status.Tool())
	}

	if !yes {
		ok, err := confirmInstall(status)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("installation cancelled")
		}
	}

	cfg := config.LoadConfig()
	audit := openAudit(cfg)
	defer audit.Close()

	status, err := runJob(context.Background(), cmd.ErrOrStderr(), job.KindInstall, checker.Install)
	if err == nil && status != deps.AllOk {
		err = fmt.Errorf("%s is still not available after installation", status.Tool())
	}
	if err != nil {
		audit.Emit(auditlog.NewEvent(auditlog.EventDependencyInstall, job.KindInstall.String(), err.Error(),
			auditlog.WithLevel("error")))
		return fmt.Errorf("dependency installation failed: %w", err)
	}
	audit.Emit(auditlog.NewEvent(auditlog.EventDependencyInstall, job.KindInstall.String(), status.String()))
	successColor.Fprintln(out, status)
	return nil
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "update",
		Short:        "Check for a newer release of the updater",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			apply, _ := cmd.Flags().GetBool("apply")
			ctx := context.Background()
			out := cmd.OutOrStdout()

			status, err := runJob(ctx, cmd.ErrOrStderr(), job.KindUpdateCheck, update.NewClient(version).Check)
			if err != nil {
				return err
			}
			switch status.State {
			case update.Failed:
				return fmt.Errorf("failed to check for updates: %w", status.Err)
			case update.UpToDate:
				successColor.Fprintf(out, "modpack-updater %s is up to date\n", version)
				return nil
			}

			fmt.Fprintf(out, "Version %s is available (you have %s)\n", status.Version, version)
			if !apply {
				dimColor.Fprintln(out, "Run `modpack-updater update --apply` to install it.")
				return nil
			}
			return selfUpdate(ctx, cmd, config.LoadConfig())
		},
	}
	cmd.Flags().Bool("apply", false, "install the update and restart")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the instance folders synchronized before",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := config.LoadHistory()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if history.Empty() {
				dimColor.Fprintln(out, "No instances synchronized yet.")
				return nil
			}
			for _, p := range history.Paths {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "runs",
		Short:        "Print recent job runs from the audit log",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			instancePath, _ := cmd.Flags().GetString("instance")

			dir, err := config.GetConfigDir()
			if err != nil {
				return err
			}
			audit, err := auditlog.Open(dir)
			if err != nil {
				return err
			}
			defer audit.Close()

			events, err := audit.Query(auditlog.QueryFilter{Instance: instancePath, Limit: limit})
			if err != nil {
				return fmt.Errorf("failed to read audit log: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				dimColor.Fprintln(out, "No runs recorded.")
				return nil
			}
			for _, e := range events {
				line := fmt.Sprintf("%s  %-18s %-16s %s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Kind, e.JobKind, e.Message)
				if e.Instance != "" {
					line += "  " + e.Instance
				}
				if e.Level == "error" {
					failureColor.Fprintln(out, line)
					continue
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "number of events to show")
	cmd.Flags().String("instance", "", "only show events for this instance folder")
	return cmd
}

func init() {
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newBranchesCmd())
	rootCmd.AddCommand(newDepsCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newRunsCmd())
}
