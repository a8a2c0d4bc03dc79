package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvOverrides, EnvJobs, EnvGenre} {
		t.Setenv(k, "")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
paths:
  overrides: /srv/presets
defaults:
  genre: rock
  jobs: 4
  ceiling_db: -0.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Config{OverridesDir: "/srv/presets", Genre: "rock", Jobs: 4, CeilingDB: -0.5}
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestContentRootImpliesOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "paths:\n  content_root: /music\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OverridesDir != filepath.Join("/music", "overrides") {
		t.Errorf("OverridesDir = %q", cfg.OverridesDir)
	}
	if cfg.CeilingDB != DefaultCeilingDB {
		t.Errorf("CeilingDB = %f, want default %f", cfg.CeilingDB, DefaultCeilingDB)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "paths:\n  overrides: /from/file\ndefaults:\n  genre: jazz\n  jobs: 2\n")
	t.Setenv(EnvOverrides, "/from/env")
	t.Setenv(EnvGenre, "metal")
	t.Setenv(EnvJobs, "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OverridesDir != "/from/env" || cfg.Genre != "metal" || cfg.Jobs != 8 {
		t.Errorf("Load() = %+v, want env values", cfg)
	}
	if got := Pick("/from/flag", cfg.OverridesDir); got != "/from/flag" {
		t.Errorf("Pick() = %q, want flag value", got)
	}
	if got := Pick("", cfg.OverridesDir); got != "/from/env" {
		t.Errorf("Pick() = %q, want env value", got)
	}
}

func TestBadEnvIntIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvJobs, "lots")
	cfg, err := Load(writeConfig(t, "defaults:\n  jobs: 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Jobs != 3 {
		t.Errorf("Jobs = %d, want file value 3", cfg.Jobs)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeConfig(t, "paths: [broken")); err == nil {
		t.Error("malformed config should error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing config should error")
	}
}

func TestLoadDefaultMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.CeilingDB != DefaultCeilingDB || cfg.Jobs != 0 {
		t.Errorf("Load(\"\") = %+v", cfg)
	}
}
