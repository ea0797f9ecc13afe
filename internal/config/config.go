// Package config provides configuration for loopcast.
// Configuration is loaded from environment variables with sensible defaults.
// An optional .env file in the working directory is read first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultAddr         = "127.0.0.1:8797"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultDataDir      = ".loopcast"
	DefaultSettleCycles = 2
	DefaultRefreshHz    = 60

	// Environment variable names
	EnvAddr         = "LOOPCAST_ADDR"
	EnvLogLevel     = "LOOPCAST_LOG_LEVEL"
	EnvLogFormat    = "LOOPCAST_LOG_FORMAT"
	EnvDataDir      = "LOOPCAST_DATA_DIR"
	EnvSettleCycles = "LOOPCAST_SETTLE_CYCLES"
	EnvRefreshHz    = "LOOPCAST_REFRESH_HZ"
	EnvFFmpeg       = "LOOPCAST_FFMPEG"

	// Database filename
	DBFilename = "loopcast.db"
)

// Config is loopcast's runtime configuration.
type Config struct {
	Addr         string
	LogLevel     string
	LogFormat    string // text or json
	DataDir      string
	SettleCycles int
	RefreshHz    int
	FFmpeg       string // binary path; empty = search PATH, "off" = Motion-JPEG only
}

// Load reads envFile (if it exists) into the environment and then builds the
// config. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return New()
}

// New creates a Config with defaults and environment variable overrides.
func New() (*Config, error) {
	cfg := &Config{
		Addr:         DefaultAddr,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		DataDir:      defaultDataDir(),
		SettleCycles: DefaultSettleCycles,
		RefreshHz:    DefaultRefreshHz,
	}

	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		if v != "text" && v != "json" {
			return nil, fmt.Errorf("invalid %s: %q is not text or json", EnvLogFormat, v)
		}
		cfg.LogFormat = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	cfg.FFmpeg = os.Getenv(EnvFFmpeg)

	var err error
	if cfg.SettleCycles, err = intEnv(EnvSettleCycles, cfg.SettleCycles, 1, 10); err != nil {
		return nil, err
	}
	if cfg.RefreshHz, err = intEnv(EnvRefreshHz, cfg.RefreshHz, 1, 240); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DBPath returns the full path to the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFilename)
}

func intEnv(name string, def, lo, hi int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be between %d and %d", name, lo, hi)
	}
	return n, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}
