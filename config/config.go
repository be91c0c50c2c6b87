package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minecraftwithtwink/Modpack-Updater/log"
)

const (
	ConfigFileName = "config.json"
	appDirName     = "modpack-updater"

	defaultPollIntervalMs = 10
	defaultBranch         = "main"
)

// legacyDirNames are directory names earlier releases used under the user
// config dir, most recent first.
var legacyDirNames = []string{"modpackupdater", "ModpackUpdater"}

// GetConfigDir returns the path to the application's configuration directory,
// <user config dir>/modpack-updater. On first run it migrates a legacy
// directory left behind by older releases.
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	newDir := filepath.Join(base, appDirName)

	// Already exists
	if _, err := os.Stat(newDir); err == nil {
		return newDir, nil
	}

	for _, name := range legacyDirNames {
		oldDir := filepath.Join(base, name)
		if _, err := os.Stat(oldDir); err != nil {
			continue
		}
		if renameErr := os.Rename(oldDir, newDir); renameErr != nil {
			log.ErrorLog.Printf("failed to migrate %s to %s: %v", oldDir, newDir, renameErr)
			return oldDir, nil
		}
		log.InfoLog.Printf("migrated config from %s to %s", oldDir, newDir)
		return newDir, nil
	}

	return newDir, nil
}

// Config represents the application configuration
type Config struct {
	// TelemetryEnabled controls whether crash reporting via Sentry is active.
	// Defaults to true when not set.
	TelemetryEnabled *bool `json:"telemetry_enabled,omitempty"`
	// PollIntervalMs is how often (ms) the control loop drains job progress.
	PollIntervalMs int `json:"poll_interval_ms"`
	// LFSEnabled controls whether large-file pointers are resolved after a sync.
	// Defaults to true when not set.
	LFSEnabled *bool `json:"lfs_enabled,omitempty"`
	// AuditEnabled controls whether job runs are recorded in audit.db.
	// Defaults to true when not set.
	AuditEnabled *bool `json:"audit_enabled,omitempty"`
	// DefaultBranch is used by the headless sync command when --branch is omitted.
	DefaultBranch string `json:"default_branch,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	trueVal := true
	return &Config{
		TelemetryEnabled: &trueVal,
		PollIntervalMs:   defaultPollIntervalMs,
		LFSEnabled:       &trueVal,
		AuditEnabled:     &trueVal,
		DefaultBranch:    defaultBranch,
	}
}

// IsTelemetryEnabled returns whether Sentry telemetry is enabled.
func (c *Config) IsTelemetryEnabled() bool {
	return boolOr(c.TelemetryEnabled, true)
}

// IsLFSEnabled returns whether large-file pointers are resolved after a sync.
func (c *Config) IsLFSEnabled() bool {
	return boolOr(c.LFSEnabled, true)
}

// IsAuditEnabled returns whether the audit log is written.
func (c *Config) IsAuditEnabled() bool {
	return boolOr(c.AuditEnabled, true)
}

// PollInterval returns the control loop's polling period.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return defaultPollIntervalMs * time.Millisecond
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Branch returns the configured default branch.
func (c *Config) Branch() string {
	if c.DefaultBranch == "" {
		return defaultBranch
	}
	return c.DefaultBranch
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// LoadConfig reads config.json from the config directory, writing the
// defaults on first run, then applies config.toml on top.
func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultConfig()
	}
	return loadConfigFrom(configDir)
}

func loadConfigFrom(configDir string) *Config {
	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			defaultCfg := DefaultConfig()
			if saveErr := saveConfigTo(configDir, defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return applyTOMLOverlay(configDir, defaultCfg)
		}

		log.WarningLog.Printf("failed to get config file: %v", err)
		return DefaultConfig()
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		log.ErrorLog.Printf("failed to parse config file: %v", err)
		return DefaultConfig()
	}

	return applyTOMLOverlay(configDir, config)
}

// applyTOMLOverlay lets config.toml override any field it sets.
func applyTOMLOverlay(configDir string, config *Config) *Config {
	tomlResult, tomlErr := LoadTOMLConfigFrom(filepath.Join(configDir, TOMLConfigFileName))
	if tomlErr != nil {
		if !os.IsNotExist(tomlErr) {
			log.WarningLog.Printf("failed to load TOML config: %v", tomlErr)
		}
		return config
	}

	if tomlResult.TelemetryEnabled != nil {
		config.TelemetryEnabled = tomlResult.TelemetryEnabled
	}
	if tomlResult.LFSEnabled != nil {
		config.LFSEnabled = tomlResult.LFSEnabled
	}
	if tomlResult.AuditEnabled != nil {
		config.AuditEnabled = tomlResult.AuditEnabled
	}
	if tomlResult.PollIntervalMs > 0 {
		config.PollIntervalMs = tomlResult.PollIntervalMs
	}
	if tomlResult.DefaultBranch != "" {
		config.DefaultBranch = tomlResult.DefaultBranch
	}
	return config
}

func saveConfigTo(configDir string, config *Config) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveConfig writes config to the config directory.
func SaveConfig(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	return saveConfigTo(configDir, config)
}
