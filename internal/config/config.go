// Package config loads user configuration from the YAML config file and
// environment variables. Command-line flags are layered on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvOverrides = "TRACKPOLISH_OVERRIDES"
	EnvJobs      = "TRACKPOLISH_JOBS"
	EnvGenre     = "TRACKPOLISH_GENRE"
)

// DefaultCeilingDB is the true-peak ceiling used when none is configured.
const DefaultCeilingDB = -1.0

// File is the on-disk shape of config.yaml.
type File struct {
	Paths    FilePaths    `yaml:"paths"`
	Defaults FileDefaults `yaml:"defaults"`
}

// FilePaths locates user content.
type FilePaths struct {
	Overrides   string `yaml:"overrides"`
	ContentRoot string `yaml:"content_root"`
}

// FileDefaults supplies fallbacks for common flags.
type FileDefaults struct {
	Genre     string   `yaml:"genre"`
	Jobs      int      `yaml:"jobs"`
	CeilingDB *float64 `yaml:"ceiling_db"`
}

// Config is the resolved configuration after file and environment layering.
type Config struct {
	OverridesDir string
	Genre        string
	Jobs         int
	CeilingDB    float64
}

// DefaultPath returns ~/.config/trackpolish/config.yaml, honouring
// XDG_CONFIG_HOME through os.UserConfigDir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "trackpolish", "config.yaml")
}

// Load reads path (DefaultPath when empty) and applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	var f File
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &f); err != nil {
				return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
			}
			logrus.WithField("path", path).Debug("loaded config file")
		case errors.Is(err, os.ErrNotExist) && !explicit:
			// No config file is the common case.
		default:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := fromFile(f)
	cfg.OverridesDir = envStr(EnvOverrides, cfg.OverridesDir)
	cfg.Genre = envStr(EnvGenre, cfg.Genre)
	cfg.Jobs = envInt(EnvJobs, cfg.Jobs)
	return cfg, nil
}

func fromFile(f File) Config {
	cfg := Config{
		OverridesDir: f.Paths.Overrides,
		Genre:        f.Defaults.Genre,
		Jobs:         f.Defaults.Jobs,
		CeilingDB:    DefaultCeilingDB,
	}
	if cfg.OverridesDir == "" && f.Paths.ContentRoot != "" {
		cfg.OverridesDir = filepath.Join(f.Paths.ContentRoot, "overrides")
	}
	if f.Defaults.CeilingDB != nil {
		cfg.CeilingDB = *f.Defaults.CeilingDB
	}
	return cfg
}

// Pick returns flag when set, otherwise fallback. Flags beat environment
// and file values.
func Pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logrus.WithField(key, v).Warn("ignoring non-integer environment value")
	}
	return fallback
}
