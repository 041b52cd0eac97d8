// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork can rename the tool without touching code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	UserAgent   string `yaml:"user_agent"`
	DumpPrefix  string `yaml:"dump_prefix"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:     "vsix-harvester",
			DisplayName: "VSIX Harvester",
			Description: "Download VS Code extensions for offline installation",
			HomeDir:     ".vsix-harvester",
			EnvPrefix:   "VSIX_HARVESTER",
			UserAgent:   "Offline VSIX",
			DumpPrefix:  "vsix_harvester",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "vsix-harvester").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".vsix-harvester").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "VSIX_HARVESTER").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// UserAgent returns the product token sent to the marketplace, without the
// version suffix.
func UserAgent() string { load(); return defaults.UserAgent }

// DumpPrefix returns the file name prefix used for raw response dumps.
func DumpPrefix() string { load(); return defaults.DumpPrefix }

// EnvVar returns a fully qualified env var name,
// e.g., EnvVar("output_dir") → "VSIX_HARVESTER_OUTPUT_DIR".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
