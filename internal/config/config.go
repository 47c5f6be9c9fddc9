// Package config provides unified configuration loading for sandpile.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/nvandessel/sandpile/internal/constants"
	"gopkg.in/yaml.v3"
)

// SandpileConfig contains all sandpile configuration settings.
type SandpileConfig struct {
	// Simulation contains the lattice and run parameters.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Render contains settings for the final grid output.
	Render RenderConfig `json:"render" yaml:"render"`

	// Logging contains settings for operational and avalanche logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig configures the lattice and the number of grains dropped.
type SimulationConfig struct {
	// Size is the side length of the square lattice. Must be positive.
	Size int `json:"size" yaml:"size"`

	// Steps is the number of grains dropped by a run.
	Steps int `json:"steps" yaml:"steps"`

	// Seed makes runs reproducible. Nil means seed from the clock.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// RenderConfig configures how the final grid is written.
type RenderConfig struct {
	// Format is one of "text" (default), "json", or "pgm".
	Format string `json:"format" yaml:"format"`

	// Output is the file to write; empty means stdout.
	// Supports ${VAR} syntax for env vars.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// LoggingConfig configures sandpile's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the avalanche trace in TraceDir.
	// "trace" additionally records drops that caused no topple.
	Level string `json:"level" yaml:"level"`

	// TraceDir is where avalanches.jsonl is written.
	// Supports ${VAR} syntax for env vars.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// sandpileEnv holds raw environment overrides. Nil pointers and empty
// strings mean the variable was not set.
type sandpileEnv struct {
	Size     *int   `env:"SANDPILE_SIZE"`
	Steps    *int   `env:"SANDPILE_STEPS"`
	Seed     *int64 `env:"SANDPILE_SEED"`
	Format   string `env:"SANDPILE_FORMAT"`
	Output   string `env:"SANDPILE_OUTPUT"`
	LogLevel string `env:"SANDPILE_LOG_LEVEL"`
	TraceDir string `env:"SANDPILE_TRACE_DIR"`
}

// Default returns a SandpileConfig with sensible defaults.
func Default() *SandpileConfig {
	return &SandpileConfig{
		Simulation: SimulationConfig{
			Size:  constants.DefaultLatticeSize,
			Steps: constants.DefaultSteps,
		},
		Render: RenderConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.sandpile/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.ConfigDirName, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.sandpile/config.yaml -> environment variables
func Load() (*SandpileConfig, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFrom loads configuration from path, then applies environment variables.
// An empty path behaves like Load.
func LoadFrom(path string) (*SandpileConfig, error) {
	if path == "" {
		return Load()
	}

	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
// Keys missing from the file keep their default values.
func LoadFromFile(path string) (*SandpileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Render.Output = expandEnvVars(config.Render.Output)
	config.Logging.TraceDir = expandEnvVars(config.Logging.TraceDir)

	return config, nil
}

// Marshal renders the configuration as YAML.
func (c *SandpileConfig) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Validate checks that the configuration is valid.
func (c *SandpileConfig) Validate() error {
	if c.Simulation.Size <= 0 {
		return fmt.Errorf("size must be positive, got %d", c.Simulation.Size)
	}

	if c.Simulation.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Simulation.Steps)
	}

	validFormats := map[string]bool{"": true, "text": true, "json": true, "pgm": true}
	if !validFormats[c.Render.Format] {
		return fmt.Errorf("invalid format: %s (valid: text, json, pgm)", c.Render.Format)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *SandpileConfig) error {
	var raw sandpileEnv
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if raw.Size != nil {
		config.Simulation.Size = *raw.Size
	}
	if raw.Steps != nil {
		config.Simulation.Steps = *raw.Steps
	}
	if raw.Seed != nil {
		seed := *raw.Seed
		config.Simulation.Seed = &seed
	}
	if raw.Format != "" {
		config.Render.Format = raw.Format
	}
	if raw.Output != "" {
		config.Render.Output = raw.Output
	}
	if raw.LogLevel != "" {
		config.Logging.Level = raw.LogLevel
	}
	if raw.TraceDir != "" {
		config.Logging.TraceDir = raw.TraceDir
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
