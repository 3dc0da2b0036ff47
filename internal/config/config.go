// Package config loads leaktrack configuration.
//
// Precedence, highest first:
//  1. Environment variables with the LEAKTRACK_ prefix (LEAKTRACK_MAX_FRAMES)
//  2. YAML file passed to Load
//  3. Defaults
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "LEAKTRACK_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// Output formats for leak reports.
const (
	OutputTable = "table"
	OutputPprof = "pprof"
)

// Defaults.
const (
	DefaultMaxFrames = 32
	DefaultWalkLimit = 10_000_000
	DefaultLogLevel  = "info"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config controls the tracker.
type Config struct {
	// Disabled turns recording into a no-op.
	Disabled bool `koanf:"disabled"`

	// MaxFrames is the backtrace capture depth.
	MaxFrames int `koanf:"max_frames"`

	// WalkLimit bounds the number of nodes visited when walking a host
	// list. A list that does not close within the limit is reported as
	// damaged instead of looping forever.
	WalkLimit int `koanf:"walk_limit"`

	// Output selects the leak report format: "table" or "pprof".
	Output string `koanf:"output"`

	// PprofPath is where the pprof report is written when Output is pprof.
	PprofPath string `koanf:"pprof_path"`

	// LogLevel is a zap level name.
	LogLevel string `koanf:"log_level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from path (skipped when empty) and the
// environment, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// LEAKTRACK_MAX_FRAMES -> max_frames
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *Config) {
	if cfg.MaxFrames == 0 {
		cfg.MaxFrames = DefaultMaxFrames
	}
	if cfg.WalkLimit == 0 {
		cfg.WalkLimit = DefaultWalkLimit
	}
	if cfg.Output == "" {
		cfg.Output = OutputTable
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Output == OutputPprof && cfg.PprofPath == "" {
		cfg.PprofPath = "leaks.pb.gz"
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.MaxFrames < 1 || c.MaxFrames > 256 {
		return fmt.Errorf("%w: max_frames must be between 1 and 256, got %d", ErrInvalidConfig, c.MaxFrames)
	}
	if c.WalkLimit < 0 {
		return fmt.Errorf("%w: walk_limit must not be negative, got %d", ErrInvalidConfig, c.WalkLimit)
	}
	switch c.Output {
	case OutputTable, OutputPprof:
	default:
		return fmt.Errorf("%w: output must be %q or %q, got %q", ErrInvalidConfig, OutputTable, OutputPprof, c.Output)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	return nil
}
