// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary; forks edit it to rename the
// command, its home directory and the environment variable prefix.
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
	CLIName         string `yaml:"cli_name"`
	DisplayName     string `yaml:"display_name"`
	Description     string `yaml:"description"`
	HomeDir         string `yaml:"home_dir"`
	EnvPrefix       string `yaml:"env_prefix"`
	GoModule        string `yaml:"go_module"`
	DefaultRegistry string `yaml:"default_registry"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:         "monokit",
			DisplayName:     "Monokit",
			Description:     "Monorepo scaffolding toolkit",
			HomeDir:         ".monokit",
			EnvPrefix:       "MONOKIT",
			GoModule:        "github.com/monokit-dev/monokit",
			DefaultRegistry: "https://registry.npmjs.org",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "monokit").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".monokit").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "MONOKIT").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// DefaultRegistry returns the npm registry used when none is configured.
func DefaultRegistry() string { load(); return defaults.DefaultRegistry }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("registry") → "MONOKIT_REGISTRY".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
