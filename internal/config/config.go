// Package config loads settings for the lelwel-check driver from a TOML
// file, following the same FillDefaults/Validate shape the teacher project
// uses for its own server configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LogLevel is the configured verbosity of the structured logger.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l LogLevel) String() string {
	return string(l)
}

// Cache holds settings for the analysis-result cache.
type Cache struct {
	// Enabled turns the on-disk cache on or off. If disabled, every
	// invocation re-runs the full semantic pass.
	Enabled bool `toml:"enabled"`

	// Path is the filesystem path to the sqlite database backing the cache.
	Path string `toml:"path"`
}

// Config is the configuration for a lelwel-check invocation. It contains
// every parameter that can be used to control a run of the semantic pass
// outside of the grammar source path itself.
type Config struct {
	// MaxErrors caps the number of diagnostics the sink will retain before
	// truncating. A value of 0 means "use the default".
	MaxErrors int `toml:"max_errors"`

	// LogLevel controls the verbosity of the structured logger.
	LogLevel LogLevel `toml:"log_level"`

	// Cache configures the analysis-result cache.
	Cache Cache `toml:"cache"`
}

// DefaultMaxErrors is the diagnostic sink capacity used when MaxErrors is
// unset.
const DefaultMaxErrors = 100

// Load reads and parses a TOML configuration file at path. A missing file is
// not an error; Load returns the zero Config (with defaults filled in) in
// that case, mirroring the driver's "config is optional" behavior.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		return cfg.FillDefaults(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg.FillDefaults(), nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	return cfg.FillDefaults(), nil
}

// FillDefaults returns a new Config identical to cfg but with unset values
// set to their defaults.
func (cfg Config) FillDefaults() Config {
	newCFG := cfg

	if newCFG.MaxErrors == 0 {
		newCFG.MaxErrors = DefaultMaxErrors
	}
	if newCFG.LogLevel == "" {
		newCFG.LogLevel = LogLevelInfo
	}
	if newCFG.Cache.Path == "" {
		newCFG.Cache.Path = "lelwel-cache.sqlite"
	}

	return newCFG
}

// Validate returns an error if the Config has invalid field values set.
// Call Validate on the return value of FillDefaults if defaults are
// intended to be used.
func (cfg Config) Validate() error {
	if cfg.MaxErrors < 1 {
		return fmt.Errorf("max_errors: must be at least 1, but is %d", cfg.MaxErrors)
	}
	switch cfg.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		// valid
	default:
		return fmt.Errorf("log_level: must be one of debug, info, warn, error, but is %q", cfg.LogLevel)
	}
	if cfg.Cache.Enabled && cfg.Cache.Path == "" {
		return fmt.Errorf("cache: path not set")
	}
	return nil
}
