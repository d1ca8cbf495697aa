// Package config provides configuration loading for the magicmount daemon.
//
// Configuration is loaded from a single YAML file specified by:
//   - MAGICMOUNT_CONFIG environment variable, or
//   - --config flag passed to the command
//
// When neither is given the built-in defaults are used, since the daemon
// runs at boot before any user configuration can be expected.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "MAGICMOUNT_CONFIG"

// Config is the daemon configuration.
type Config struct {
	// ModuleStore is the directory holding installed modules.
	// Default: /data/adb/modules
	ModuleStore string `yaml:"module_store"`

	// RuntimeDir holds the mirror snapshot and the module staging area.
	// Default: /sbin
	RuntimeDir string `yaml:"runtime_dir"`

	// DefaultBinDir is where the framework binaries live when installed
	// normally. Binaries are injected into /system/bin whenever RuntimeDir
	// differs from it.
	// Default: /sbin
	DefaultBinDir string `yaml:"default_bin_dir"`

	// Partitions are split out of /system when they are real directories.
	// Default: [/vendor, /product, /system_ext]
	Partitions []string `yaml:"partitions"`

	// Modules lists module ids to mount, in order. When empty, every
	// enabled module in ModuleStore is mounted in name order.
	Modules []string `yaml:"modules"`

	// StatCache memoizes lstat calls on the real filesystem.
	// Default: true
	StatCache bool `yaml:"stat_cache"`

	// Log configures daemon logging.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text or json.
	// Default: text
	Format string `yaml:"format"`

	// File is an optional log file, rotated by size.
	File string `yaml:"file"`

	// MaxSize is the size in megabytes at which the log file is rotated.
	// Default: 128
	MaxSize int `yaml:"max_size"`

	// MaxBackups is the number of rotated files to keep.
	// Default: 5
	MaxBackups int `yaml:"max_backups"`

	// MaxAge is the number of days to keep rotated files.
	// Default: 16
	MaxAge int `yaml:"max_age"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ModuleStore:   "/data/adb/modules",
		RuntimeDir:    "/sbin",
		DefaultBinDir: "/sbin",
		Partitions:    []string{"/vendor", "/product", "/system_ext"},
		StatCache:     true,
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
		},
	}
}

// Load loads configuration from the file named by MAGICMOUNT_CONFIG, or
// returns the defaults when it is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path on top of the
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// InjectBinaries reports whether the framework runs from a non-default
// location and its binaries need to be injected into /system/bin.
func (c *Config) InjectBinaries() bool {
	return path.Clean(c.RuntimeDir) != path.Clean(c.DefaultBinDir)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.ModuleStore == "" {
		errs = append(errs, fmt.Errorf("module_store is required"))
	} else if !path.IsAbs(c.ModuleStore) {
		errs = append(errs, fmt.Errorf("module_store must be absolute: %s", c.ModuleStore))
	}

	if c.RuntimeDir == "" {
		errs = append(errs, fmt.Errorf("runtime_dir is required"))
	} else if !path.IsAbs(c.RuntimeDir) {
		errs = append(errs, fmt.Errorf("runtime_dir must be absolute: %s", c.RuntimeDir))
	}

	for _, part := range c.Partitions {
		clean := path.Clean(part)
		if !path.IsAbs(clean) || path.Dir(clean) != "/" {
			errs = append(errs, fmt.Errorf("partition must be a top-level directory: %s", part))
		}
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	formats := []string{"text", "json"}
	if !contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
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
