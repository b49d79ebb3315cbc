// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for procrun.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Exec configures default behavior of the execution engine
	// (lib/procexec). These are defaults a CLI flag can always override.
	Exec ExecConfig `yaml:"exec"`

	// Sandbox configures the execution sandbox.
	Sandbox SandboxConfig `yaml:"sandbox"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Exec    *ExecConfig    `yaml:"exec,omitempty"`
	Sandbox *SandboxConfig `yaml:"sandbox,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for procrun data.
	Root string `yaml:"root"`

	// Bin is where procrun binaries are installed.
	// This provides hermetic binary paths independent of user PATH.
	// Contains: procrun-sandbox, procrun, procrun-pipeline.
	Bin string `yaml:"bin"`

	// State is where runtime state is stored.
	State string `yaml:"state"`
}

// ExecConfig configures default behavior of the execution engine.
type ExecConfig struct {
	// MaxStdoutBytes is the default upper bound on captured stdout
	// bytes, applied when a caller does not pass an explicit cap.
	// Zero means unbounded.
	MaxStdoutBytes int64 `yaml:"max_stdout_bytes" env:"PROCRUN_MAX_STDOUT_BYTES"`

	// Debug forces noisy mirroring on for both stdout and stderr,
	// equivalent to the PROCRUN_DEBUG environment flag lib/procexec
	// itself consults directly.
	Debug bool `yaml:"debug" env:"PROCRUN_DEBUG"`

	// DiagnosticBudget is the configured number of rate-limited
	// diagnostic log messages per invocation. It is loaded and
	// overridable but not passed to lib/procexec, whose full executor
	// always uses a fixed budget of 5.
	DiagnosticBudget int `yaml:"diagnostic_budget" env:"PROCRUN_DIAGNOSTIC_BUDGET"`
}

// SandboxConfig configures the execution sandbox.
type SandboxConfig struct {
	// DefaultProfile names the default sandbox profile.
	// Default: developer. procrun-sandbox does not read it: its
	// --profile flag defaults to "developer" on its own.
	DefaultProfile string `yaml:"default_profile"`

	// ProfilesFile is the path to sandbox profiles configuration.
	// Default: embedded defaults
	ProfilesFile string `yaml:"profiles_file"`

	// Fallback configures behavior when sandbox capabilities are unavailable.
	Fallback FallbackConfig `yaml:"fallback"`
}

// FallbackConfig records how to degrade when capabilities are missing.
// Its values are loaded, overridden per environment, and validated; no
// package in this repository probes for user namespaces or bubblewrap
// or acts on these settings.
type FallbackConfig struct {
	// NoUserns specifies behavior when user namespaces are unavailable.
	// Values: "skip" (continue without), "warn" (warn and continue), "error" (fail)
	// Default: skip (development), error (production)
	NoUserns string `yaml:"no_userns"`

	// NoBwrap specifies behavior when bubblewrap is unavailable.
	// Values: "skip", "warn", "error"
	// Default: error (all environments)
	NoBwrap string `yaml:"no_bwrap"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "procrun")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:  defaultRoot,
			Bin:   filepath.Join(defaultRoot, "bin"),
			State: filepath.Join(defaultRoot, "state"),
		},
		Exec: ExecConfig{
			MaxStdoutBytes:   0,
			Debug:            false,
			DiagnosticBudget: 5,
		},
		Sandbox: SandboxConfig{
			DefaultProfile: "developer",
			ProfilesFile:   "",
			Fallback: FallbackConfig{
				NoUserns: "skip",
				NoBwrap:  "error",
			},
		},
	}
}

// Load loads configuration from the PROCRUN_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if PROCRUN_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("PROCRUN_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("PROCRUN_CONFIG environment variable not set; " +
			"set it to the path of your procrun.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the primary source of truth; environment variables
// only overlay the Exec section afterward (see ExecConfig's env tags).
// The only other expansion performed is ${PROCRUN_ROOT}/${HOME}-style
// path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${PROCRUN_ROOT} and similar variables in paths for portability.
	cfg.expandVariables()

	// Layer environment variable overrides onto the Exec section.
	if err := env.Parse(&cfg.Exec); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: stricter fallback behavior.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Sandbox: &SandboxConfig{
					DefaultProfile: "assistant",
					Fallback: FallbackConfig{
						NoUserns: "error",
					},
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Bin != "" {
			c.Paths.Bin = overrides.Paths.Bin
		}
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
	}

	if overrides.Exec != nil {
		if overrides.Exec.MaxStdoutBytes != 0 {
			c.Exec.MaxStdoutBytes = overrides.Exec.MaxStdoutBytes
		}
		// Debug is a bool, so we always apply it from overrides.
		c.Exec.Debug = overrides.Exec.Debug
		if overrides.Exec.DiagnosticBudget != 0 {
			c.Exec.DiagnosticBudget = overrides.Exec.DiagnosticBudget
		}
	}

	if overrides.Sandbox != nil {
		if overrides.Sandbox.DefaultProfile != "" {
			c.Sandbox.DefaultProfile = overrides.Sandbox.DefaultProfile
		}
		if overrides.Sandbox.ProfilesFile != "" {
			c.Sandbox.ProfilesFile = overrides.Sandbox.ProfilesFile
		}
		if overrides.Sandbox.Fallback.NoUserns != "" {
			c.Sandbox.Fallback.NoUserns = overrides.Sandbox.Fallback.NoUserns
		}
		if overrides.Sandbox.Fallback.NoBwrap != "" {
			c.Sandbox.Fallback.NoBwrap = overrides.Sandbox.Fallback.NoBwrap
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"PROCRUN_ROOT": c.Paths.Root,
		"HOME":         os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["PROCRUN_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Bin = expandVars(c.Paths.Bin, vars)
	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Sandbox.ProfilesFile = expandVars(c.Sandbox.ProfilesFile, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if c.Exec.MaxStdoutBytes < 0 {
		errs = append(errs, fmt.Errorf("exec.max_stdout_bytes must not be negative"))
	}

	if c.Sandbox.DefaultProfile == "" {
		errs = append(errs, fmt.Errorf("sandbox.default_profile is required"))
	}

	fallbackValues := []string{"skip", "warn", "error"}
	if !contains(fallbackValues, c.Sandbox.Fallback.NoUserns) {
		errs = append(errs, fmt.Errorf("sandbox.fallback.no_userns must be one of: %v", fallbackValues))
	}
	if !contains(fallbackValues, c.Sandbox.Fallback.NoBwrap) {
		errs = append(errs, fmt.Errorf("sandbox.fallback.no_bwrap must be one of: %v", fallbackValues))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Bin,
		c.Paths.State,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// BinaryPath returns the full path to a procrun binary.
// It looks in Paths.Bin first, then falls back to exec.LookPath.
// This provides hermetic binary resolution when Bin is configured.
func (c *Config) BinaryPath(name string) (string, error) {
	// If Bin is configured, look there first.
	if c.Paths.Bin != "" {
		binPath := filepath.Join(c.Paths.Bin, name)
		if _, err := os.Stat(binPath); err == nil {
			return binPath, nil
		}
	}

	// Fall back to PATH lookup.
	path, err := exec.LookPath(name)
	if err != nil {
		if c.Paths.Bin != "" {
			return "", fmt.Errorf("%s not found in %s or PATH", name, c.Paths.Bin)
		}
		return "", fmt.Errorf("%s not found in PATH", name)
	}
	return path, nil
}
