// Package config handles pfq-lang configuration.
//
// Configuration is loaded with overlay semantics:
//
//  1. Start with built-in defaults (embedded via go:embed from default.toml)
//  2. Overlay with config file values (if file exists)
//  3. CLI flags and environment variables override at runtime (handled by CLI layer)
//
// The TOML decoder only sets fields present in the file, leaving
// unspecified fields at their default values. If the config file exists
// but is invalid, Load returns an error rather than silently falling
// back to defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/frobware/go-pfq/logging"
)

//go:embed default.toml
var defaultConfigTOML string

const (
	// DefaultConfigPath is the default path to the config file.
	DefaultConfigPath = "/etc/pfq/pfq-lang.toml"
)

// Config is the top-level configuration.
type Config struct {
	Logging     LoggingConfig     `toml:"logging"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Store       StoreConfig       `toml:"store"`
	Server      ServerConfig      `toml:"server"`
	Lang        LangConfig        `toml:"lang"`
}

// LoggingConfig controls logging behaviour.
type LoggingConfig struct {
	// Level is the log spec (e.g., "info" or "info,evaluator=debug").
	Level string `toml:"level"`
	// Format is the output format: "text" or "json".
	Format string `toml:"format"`
	// Components provides an alternative way to specify per-component levels.
	Components map[string]string `toml:"components"`
}

// ToSpec converts the LoggingConfig to a log spec string.
// If Level is set, it takes precedence. Otherwise, Components are used.
func (c *LoggingConfig) ToSpec() string {
	if c.Level != "" {
		return c.Level
	}

	if len(c.Components) == 0 {
		return ""
	}

	components := make([]string, 0, len(c.Components))
	for component := range c.Components {
		components = append(components, component)
	}
	slices.Sort(components)

	parts := make([]string, 0, len(components)+1)
	parts = append(parts, "info") // default base level
	for _, component := range components {
		parts = append(parts, component+"="+c.Components[component])
	}

	return strings.Join(parts, ",")
}

// DiagnosticsConfig controls suppression of repeated evaluator
// diagnostics.
type DiagnosticsConfig struct {
	Interval Duration `toml:"interval"`
	Burst    int      `toml:"burst"`
}

// RateLimit converts the section into the logging handler setting.
func (c DiagnosticsConfig) RateLimit() logging.RateLimit {
	return logging.RateLimit{Interval: c.Interval.Duration, Burst: c.Burst}
}

// StoreConfig locates the composition database.
type StoreConfig struct {
	// Path is the SQLite file. Empty selects the runtime default.
	Path string `toml:"path"`
}

// ServerConfig controls the daemon's listeners.
type ServerConfig struct {
	RuntimeDir string `toml:"runtime_dir"`
	TCPAddress string `toml:"tcp_address"`
}

// LangConfig holds binding defaults.
type LangConfig struct {
	// Width is the default pad width. Zero disables padding.
	Width int `toml:"width"`
}

// Duration is a time.Duration that decodes from a TOML string such as
// "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the default configuration from the embedded default.toml.
func DefaultConfig() Config {
	var cfg Config
	if _, err := toml.Decode(defaultConfigTOML, &cfg); err != nil {
		// default.toml is embedded at build time; fall back to a
		// minimal safe config rather than panic.
		return Config{
			Logging:     LoggingConfig{Level: "info", Format: "text"},
			Diagnostics: DiagnosticsConfig{Interval: Duration{logging.DefaultRateLimit.Interval}, Burst: logging.DefaultRateLimit.Burst},
			Server:      ServerConfig{RuntimeDir: DefaultRuntimeDir},
		}
	}
	return cfg
}

// Load reads configuration from a file path with overlay semantics.
//
// Behaviour:
//   - File missing: returns default configuration (no error)
//   - File exists and valid: overlays file values onto defaults
//   - File exists but invalid: returns error (fail fast)
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}
	if spec := c.Logging.ToSpec(); spec != "" {
		if _, err := logging.ParseSpec(spec); err != nil {
			errs = append(errs, fmt.Errorf("logging: %w", err))
		}
	}
	if c.Diagnostics.Interval.Duration < 0 {
		errs = append(errs, fmt.Errorf("diagnostics.interval must not be negative"))
	}
	if c.Diagnostics.Burst < 0 {
		errs = append(errs, fmt.Errorf("diagnostics.burst must not be negative"))
	}
	if c.Lang.Width < 0 {
		errs = append(errs, fmt.Errorf("lang.width must not be negative"))
	}
	return errors.Join(errs...)
}
