// Package config loads the YAML configuration of the lnqm command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-lnqm/container"
)

// Config represents the complete command configuration.
type Config struct {
	// Schema is the path of a YAML schema file. Empty means the fields are
	// inferred from each file.
	Schema string `yaml:"schema"`

	// Output configures how datasets are written.
	Output OutputConfig `yaml:"output"`

	// Stats configures the stats command.
	Stats StatsConfig `yaml:"stats"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// OutputConfig configures how datasets are written.
type OutputConfig struct {
	// Compression is one of none, deflate, lz4, zstd.
	Compression string `yaml:"compression"`

	// Level is the compression level; 0 selects the codec default.
	Level int `yaml:"level"`

	// Shuffle enables the byte-shuffle filter.
	Shuffle bool `yaml:"shuffle"`

	// Checksum appends a Fletcher-32 checksum to every blob.
	Checksum bool `yaml:"checksum"`

	// AllowNegative stores negative integers as their bit pattern.
	AllowNegative bool `yaml:"allow_negative"`
}

// StatsConfig configures the stats command.
type StatsConfig struct {
	// Accuracy is the relative accuracy of quantile estimates.
	Accuracy float64 `yaml:"accuracy"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Compression: string(container.CompressionNone),
		},
		Stats: StatsConfig{
			Accuracy: 0.01,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Output.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}
	if err := c.Stats.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("stats: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the output configuration.
func (c *OutputConfig) Validate() error {
	var errs []error

	if _, err := container.ParseCompression(c.Compression); err != nil {
		errs = append(errs, err)
	}
	if c.Level < 0 || c.Level > 22 {
		errs = append(errs, fmt.Errorf("level must be in [0, 22], got %d", c.Level))
	}

	return errors.Join(errs...)
}

// Validate checks the stats configuration.
func (c *StatsConfig) Validate() error {
	if c.Accuracy <= 0 || c.Accuracy >= 1 {
		return fmt.Errorf("accuracy must be in (0, 1), got %v", c.Accuracy)
	}
	return nil
}

// Validate checks the log configuration.
func (c *LogConfig) Validate() error {
	var errs []error

	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown level %q", c.Level))
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}

	return errors.Join(errs...)
}
