package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TOMLConfigFileName is the optional hand-edited overlay next to config.json.
const TOMLConfigFileName = "config.toml"

// TOMLConfig mirrors the fields of Config that may be set from config.toml.
type TOMLConfig struct {
	TelemetryEnabled *bool  `toml:"telemetry_enabled"`
	PollIntervalMs   int    `toml:"poll_interval_ms"`
	LFSEnabled       *bool  `toml:"lfs_enabled"`
	AuditEnabled     *bool  `toml:"audit_enabled"`
	DefaultBranch    string `toml:"default_branch"`
}

// LoadTOMLConfigFrom parses the TOML file at path. A missing file returns an
// error satisfying os.IsNotExist.
func LoadTOMLConfigFrom(path string) (*TOMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tc TOMLConfig
	md, err := toml.Decode(string(data), &tc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	return &tc, nil
}
