package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	appErrors "drive2photos/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_DRIVE_FOLDER_ID", "DRIVE2PHOTOS_OUTPUT_DIR", "DRIVE2PHOTOS_VERBOSE"} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists || resolved != path {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if !cfg.Upload.SkipDuplicates || cfg.Tracker.Backend != TrackerJSON || cfg.HTTP.TimeoutSeconds != 300 || cfg.Output.Dir != "output" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[google]
client_id = "file-id"
client_secret = "file-secret"

[scan]
paths = ["My Drive/Photos", " My Drive/Pictures "]

[upload]
album = "Imported"
skip_duplicates = false

[tracker]
backend = "sqlite"

[http]
timeout_seconds = 60

[output]
dir = "runs"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GOOGLE_CLIENT_ID", "env-id")
	t.Setenv("DRIVE2PHOTOS_VERBOSE", "yes")

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatalf("config file should exist")
	}
	if cfg.Google.ClientID != "env-id" || cfg.Google.ClientSecret != "file-secret" {
		t.Fatalf("environment should override file: %+v", cfg.Google)
	}
	if !cfg.Verbose || cfg.Upload.SkipDuplicates || cfg.Upload.Album != "Imported" || cfg.HTTP.TimeoutSeconds != 60 {
		t.Fatalf("unexpected merged config %+v", cfg)
	}

	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !reflect.DeepEqual(cfg.Scan.Paths, []string{"My Drive/Photos", "My Drive/Pictures"}) {
		t.Fatalf("unexpected paths %v", cfg.Scan.Paths)
	}
	if !filepath.IsAbs(cfg.Output.Dir) || filepath.Base(cfg.Output.Dir) != "runs" {
		t.Fatalf("output dir not expanded: %q", cfg.Output.Dir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[google\nclient_id = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := Load(path)
	if appErrors.KindOf(err) != appErrors.InvalidConfig {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Google.ClientID = "id"
		cfg.Google.ClientSecret = "secret"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"missing client id", func(c *Config) { c.Google.ClientID = "" }, false},
		{"missing secret", func(c *Config) { c.Google.ClientSecret = "" }, false},
		{"exclusive modes", func(c *Config) { c.ScanOnly, c.UploadOnly = true, true }, false},
		{"unknown backend", func(c *Config) { c.Tracker.Backend = "redis" }, false},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, false},
		{"sqlite backend", func(c *Config) { c.Tracker.Backend = TrackerSQLite }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("expected validation error")
				}
				if appErrors.KindOf(err) != appErrors.InvalidConfig {
					t.Fatalf("expected invalid config kind, got %s", appErrors.KindOf(err))
				}
			}
		})
	}
}

func TestParsePaths(t *testing.T) {
	got := ParsePaths(" My Drive/Photos , ,My Drive/Pictures/2024,")
	want := []string{"My Drive/Photos", "My Drive/Pictures/2024"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParsePaths = %v, want %v", got, want)
	}
	if ParsePaths("") != nil {
		t.Fatalf("empty input yields no paths")
	}
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandPath("~/tokens")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "tokens") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
