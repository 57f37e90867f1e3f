// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all autostart configuration.
type Config struct {
	// Platform forces an adapter ("darwin", "linux", "windows"). Empty means
	// the detected host OS.
	Platform       string         `yaml:"platform"`
	CommandTimeout Duration       `yaml:"command_timeout"`
	Logging        LoggingConfig  `yaml:"logging"`
	Launchd        LaunchdConfig  `yaml:"launchd"`
	Cron           CronConfig     `yaml:"cron"`
	Registry       RegistryConfig `yaml:"registry"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// LaunchdConfig holds the darwin adapter settings.
type LaunchdConfig struct {
	Launchctl string `yaml:"launchctl"`
	Shell     string `yaml:"shell"`
}

// CronConfig holds the linux adapter settings.
type CronConfig struct {
	Crontab      string `yaml:"crontab"`
	MarkerPrefix string `yaml:"marker_prefix"`
}

// RegistryConfig holds the windows adapter settings.
type RegistryConfig struct {
	RunKey string `yaml:"run_key"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CommandTimeout: Duration{30 * time.Second},
		Logging: LoggingConfig{
			Level: "info",
		},
		Launchd: LaunchdConfig{
			Launchctl: "launchctl",
			Shell:     "/bin/sh",
		},
		Cron: CronConfig{
			Crontab:      "crontab",
			MarkerPrefix: "autostart:",
		},
		Registry: RegistryConfig{
			RunKey: `Software\Microsoft\Windows\CurrentVersion\Run`,
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	Platform string
	LogLevel string
	Timeout  time.Duration
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where "config init" writes a fresh config file.
func DefaultPath() string {
	return configSearchPaths()[0]
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value → use that path ("" means no external file)
//
// An explicitly named file that does not exist is an error; an
// auto-discovered one is only read when present.
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	explicit := len(configPath) > 0
	if explicit {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case explicit || !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.Platform != "" {
		cfg.Platform = cli.Platform
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.Timeout > 0 {
		cfg.CommandTimeout = Duration{cli.Timeout}
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

func applyEnvOverrides(cfg *Config) error {
	if platform := os.Getenv("AUTOSTART_PLATFORM"); platform != "" {
		cfg.Platform = platform
	}
	if level := os.Getenv("AUTOSTART_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if timeout := os.Getenv("AUTOSTART_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("AUTOSTART_TIMEOUT: invalid duration %q: %w", timeout, err)
		}
		cfg.CommandTimeout = Duration{d}
	}
	return nil
}

// Validate checks that the configuration can drive an adapter.
func (c *Config) Validate() error {
	switch c.Platform {
	case "", "darwin", "linux", "windows":
	default:
		return fmt.Errorf("unknown platform %q (want darwin, linux or windows)", c.Platform)
	}
	if c.CommandTimeout.Duration <= 0 {
		return fmt.Errorf("command_timeout must be positive (got: %s)", c.CommandTimeout.Duration)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level must be debug, info, warn or error (got: %q)", c.Logging.Level)
	}
	if strings.TrimSpace(c.Launchd.Launchctl) == "" || strings.TrimSpace(c.Cron.Crontab) == "" {
		return fmt.Errorf("launchd.launchctl and cron.crontab must name a binary")
	}
	if strings.ContainsAny(c.Cron.MarkerPrefix, " \t#\n") {
		return fmt.Errorf("cron.marker_prefix must not contain blanks or '#' (got: %q)", c.Cron.MarkerPrefix)
	}
	return nil
}
