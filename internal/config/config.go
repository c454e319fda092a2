// Package config holds the application configuration and its loading logic.
// Settings come from a config file, environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
)

// Config represents the complete configuration for the mriset tool. It
// covers all commands (info, convert, slice) and supports loading from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Dataset construction settings
	Dataset DatasetConfig `mapstructure:"dataset" yaml:"dataset" json:"dataset"`

	// Output formatting settings
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Slice export settings
	Slice SliceConfig `mapstructure:"slice" yaml:"slice" json:"slice"`
}

// DatasetConfig contains dataset construction settings.
type DatasetConfig struct {
	// SpacePrefix and TimePrefix name the derived geometry attributes.
	// Empty disables the attribute group.
	SpacePrefix string `mapstructure:"space_prefix" yaml:"space_prefix" json:"space_prefix"`
	TimePrefix  string `mapstructure:"time_prefix" yaml:"time_prefix" json:"time_prefix"`

	// Mask is the path of a volume restricting features to nonzero voxels.
	Mask string `mapstructure:"mask" yaml:"mask" json:"mask"`

	// Targets labels every sample; Chunks assigns every sample to a group.
	Targets string `mapstructure:"targets" yaml:"targets" json:"targets"`
	Chunks  int    `mapstructure:"chunks" yaml:"chunks" json:"chunks"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format" json:"format"`
	File      string `mapstructure:"file" yaml:"file" json:"file"`
	Precision int    `mapstructure:"precision" yaml:"precision" json:"precision"`
}

// SliceConfig contains slice export settings.
type SliceConfig struct {
	Axis   string `mapstructure:"axis" yaml:"axis" json:"axis"`
	Index  int    `mapstructure:"index" yaml:"index" json:"index"`
	Volume int    `mapstructure:"volume" yaml:"volume" json:"volume"`
	Scale  int    `mapstructure:"scale" yaml:"scale" json:"scale"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Verbose:  false,
		Dataset: DatasetConfig{
			SpacePrefix: "voxel",
			TimePrefix:  "time",
		},
		Output: OutputConfig{
			Format:    "summary",
			Precision: 3,
		},
		Slice: SliceConfig{
			Axis:   "z",
			Index:  -1, // -1 selects the middle slice
			Volume: 0,
			Scale:  1,
		},
	}
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

var validOutputFormats = []string{"summary", "json", "yaml"}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level %q (valid: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !contains(validOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format %q (valid: %s)",
			c.Output.Format, strings.Join(validOutputFormats, ", "))
	}
	if c.Output.Precision < 0 || c.Output.Precision > 17 {
		return fmt.Errorf("invalid output precision %d (valid: 0-17)", c.Output.Precision)
	}
	switch c.Slice.Axis {
	case "x", "y", "z":
	default:
		return fmt.Errorf("invalid slice axis %q (valid: x, y, z)", c.Slice.Axis)
	}
	if c.Slice.Scale < 1 {
		return fmt.Errorf("invalid slice scale %d (must be >= 1)", c.Slice.Scale)
	}
	if c.Slice.Volume < 0 {
		return fmt.Errorf("invalid slice volume %d (must be >= 0)", c.Slice.Volume)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
