// Package config loads the cluster's runtime settings.
//
// Sources are layered: built-in defaults, then an optional YAML file, then QX32_*
// environment variables (a .env file in the working directory is loaded first when
// present). Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/qx32/pkg/oracle"
	"github.com/aretw0/qx32/pkg/sequencer"
	"github.com/aretw0/qx32/pkg/session"
	"github.com/aretw0/qx32/pkg/validator"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DotEnvFile is loaded into the environment when it exists.
const DotEnvFile = ".env"

// Config holds every tunable of the cluster.
// Environment variables only override the fields they name.
type Config struct {
	Duration     time.Duration `yaml:"duration" env:"QX32_DURATION"`
	TypingShare  float64       `yaml:"typing_share" env:"QX32_TYPING_SHARE"`
	RevealDelay  time.Duration `yaml:"reveal_delay" env:"QX32_REVEAL_DELAY"`
	ErrorTTL     time.Duration `yaml:"error_ttl" env:"QX32_ERROR_TTL"`
	FailureRate  float64       `yaml:"failure_rate" env:"QX32_FAILURE_RATE"`
	Glitch       bool          `yaml:"glitch" env:"QX32_GLITCH"`
	Mute         bool          `yaml:"mute" env:"QX32_MUTE"`
	Port         string        `yaml:"port" env:"QX32_PORT"`
	SessionTTL   time.Duration `yaml:"session_ttl" env:"QX32_SESSION_TTL"`
	LogLevel     string        `yaml:"log_level" env:"QX32_LOG_LEVEL"`
	MaxInputSize int           `yaml:"max_input_size" env:"QX32_MAX_INPUT_SIZE"`
	ScriptsFile  string        `yaml:"scripts_file" env:"QX32_SCRIPTS_FILE"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Duration:     sequencer.DefaultDuration,
		TypingShare:  sequencer.DefaultTypingShare,
		RevealDelay:  session.DefaultRevealDelay,
		ErrorTTL:     session.DefaultErrorTTL,
		FailureRate:  oracle.DefaultFailureRate,
		Glitch:       true,
		Port:         "8080",
		SessionTTL:   session.DefaultIdleTTL,
		LogLevel:     "info",
		MaxInputSize: validator.DefaultMaxInputSize,
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when
// empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the cluster cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must not be negative, got %s", c.Duration))
	}
	if c.TypingShare <= 0 || c.TypingShare > 1 {
		errs = append(errs, fmt.Errorf("typing_share must be in (0,1], got %v", c.TypingShare))
	}
	if c.RevealDelay < 0 {
		errs = append(errs, fmt.Errorf("reveal_delay must not be negative, got %s", c.RevealDelay))
	}
	if c.ErrorTTL <= 0 {
		errs = append(errs, fmt.Errorf("error_ttl must be positive, got %s", c.ErrorTTL))
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("failure_rate must be in [0,1], got %v", c.FailureRate))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("session_ttl must not be negative, got %s", c.SessionTTL))
	}
	if c.MaxInputSize <= 0 {
		errs = append(errs, fmt.Errorf("max_input_size must be positive, got %d", c.MaxInputSize))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug, info, warn and error (case-insensitive) to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
}

// GlitchConfig returns the sequencer glitch settings for this configuration.
func (c Config) GlitchConfig() sequencer.GlitchConfig {
	if !c.Glitch {
		return sequencer.GlitchConfig{}
	}
	return sequencer.DefaultGlitch()
}

// SessionOptions translates the configuration into session options.
func (c Config) SessionOptions() []session.Option {
	return []session.Option{
		session.WithSequencer(
			sequencer.WithDuration(c.Duration),
			sequencer.WithTypingShare(c.TypingShare),
			sequencer.WithGlitch(c.GlitchConfig()),
		),
		session.WithRevealDelay(c.RevealDelay),
		session.WithErrorTTL(c.ErrorTTL),
		session.WithFailureRate(c.FailureRate),
		session.WithIdleTTL(c.SessionTTL),
	}
}
