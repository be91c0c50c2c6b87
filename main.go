package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minecraftwithtwink/Modpack-Updater/app"
	cmd2 "github.com/minecraftwithtwink/Modpack-Updater/cmd"
	"github.com/minecraftwithtwink/Modpack-Updater/config"
	"github.com/minecraftwithtwink/Modpack-Updater/config/auditlog"
	sentrypkg "github.com/minecraftwithtwink/Modpack-Updater/internal/sentry"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
	"github.com/minecraftwithtwink/Modpack-Updater/update"
	"github.com/spf13/cobra"
)

var (
	version = "1.4.0"
	rootCmd = &cobra.Command{
		Use:   "modpack-updater",
		Short: "modpack-updater - Keep a Minecraft instance in sync with the Twinkcraft modpack.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg := config.LoadConfig()
			log.Initialize(cfg.IsTelemetryEnabled())
			defer log.Close()

			initTelemetry(cfg)
			defer sentrypkg.Flush()
			defer sentrypkg.RecoverPanic()

			outcome, err := app.Run(ctx, cfg, version)
			if err != nil {
				return err
			}

			if outcome.PerformUpdate {
				return selfUpdate(ctx, cmd, cfg)
			}
			if outcome.Path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Operation finished for: %s\n", outcome.Path)
			}
			return nil
		},
	}

	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "Print debug information like config paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			configJson, _ := json.MarshalIndent(cfg, "", "  ")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n%s\n", filepath.Join(configDir, config.ConfigFileName), configJson)
			fmt.Fprintf(out, "History: %s\n", filepath.Join(configDir, config.HistoryFileName))
			fmt.Fprintf(out, "Audit log: %s\n", filepath.Join(configDir, auditlog.DBFileName))
			fmt.Fprintf(out, "Log file: %s\n", log.Path())

			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of modpack-updater",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "modpack-updater version %s\n", version)
			fmt.Fprintf(out, "https://github.com/%s/%s/releases/tag/v%s\n", update.RepoOwner, update.RepoName, version)
		},
	}
)

// initSentry starts crash reporting. Tests replace it.
var initSentry = sentrypkg.Init

// initTelemetry starts crash reporting when it is enabled. A failure is
// logged and startup continues.
func initTelemetry(cfg *config.Config) {
	if err := initSentry(version, cfg.IsTelemetryEnabled()); err != nil {
		log.ErrorLog.Printf("failed to initialize sentry: %v", err)
	}
}

// selfUpdate installs the release the user accepted in the TUI, then runs the
// new executable in place of this one.
func selfUpdate(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Starting update...")

	audit := openAudit(cfg)
	defer audit.Close()

	installed, err := runJob(ctx, cmd.ErrOrStderr(), job.KindUpdateCheck, update.NewClient(version).Apply)
	if err != nil {
		audit.Emit(auditlog.NewEvent(auditlog.EventSelfUpdate, job.KindUpdateCheck.String(), err.Error(),
			auditlog.WithLevel("error")))
		return fmt.Errorf("failed to update: %w", err)
	}
	audit.Emit(auditlog.NewEvent(auditlog.EventSelfUpdate, job.KindUpdateCheck.String(),
		fmt.Sprintf("updated %s -> %s", version, installed)))
	successColor.Fprintf(out, "Updated to %s. Restarting...\n", installed)

	return update.Relaunch(cmd2.MakeExecutor())
}

// openAudit returns the audit log, or a no-op logger when it is disabled or
// cannot be opened.
func openAudit(cfg *config.Config) auditlog.Logger {
	if !cfg.IsAuditEnabled() {
		return auditlog.NopLogger()
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return auditlog.NopLogger()
	}
	l, err := auditlog.Open(dir)
	if err != nil {
		log.WarningLog.Printf("audit log disabled: %v", err)
		return auditlog.NopLogger()
	}
	return l
}

func init() {
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errUnhealthy) {
			os.Exit(1)
		}
		fmt.Println(err)
		os.Exit(1)
	}
}
