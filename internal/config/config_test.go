package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate runs the test in an empty directory with no config file set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(PathEnvVar, "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "custom.yaml")
	yaml := `
log:
  level: debug
storage:
  driver: sqlite
  sqlite_path: /tmp/index.db
pipeline:
  concurrency: 4
recommend:
  max_results: 20
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MOOD_INDEX_RECOMMEND__MAX_RESULTS", "5")
	t.Setenv("MOOD_INDEX_SPOTIFY__CLIENT_ID", "id")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default json", cfg.Log.Format)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.SQLitePath != "/tmp/index.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Pipeline.Concurrency != 4 {
		t.Errorf("Pipeline.Concurrency = %d, want 4", cfg.Pipeline.Concurrency)
	}
	if cfg.Recommend.MaxResults != 5 {
		t.Errorf("Recommend.MaxResults = %d, want 5 from env", cfg.Recommend.MaxResults)
	}
	if cfg.Spotify.ClientID != "id" {
		t.Errorf("Spotify.ClientID = %q, want id", cfg.Spotify.ClientID)
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	dir := isolate(t)

	if err := os.WriteFile(filepath.Join(dir, DefaultPath), []byte("output:\n  dir: build\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output.Dir != "build" {
		t.Errorf("Output.Dir = %q, want build", cfg.Output.Dir)
	}
}

func TestLoad_PathFromEnv(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "env.yaml")
	if err := os.WriteFile(path, []byte("input:\n  lenient: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(PathEnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Input.Lenient {
		t.Error("Input.Lenient = false, want true")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		path    string
		wantErr string
	}{
		{
			name:    "missing explicit file",
			path:    "does-not-exist.yaml",
			wantErr: "config file",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"MOOD_INDEX_STORAGE__DRIVER": "mongo"},
			wantErr: "Driver must be one of",
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"MOOD_INDEX_STORAGE__DRIVER": "postgres"},
			wantErr: "PostgresURL is required",
		},
		{
			name:    "negative concurrency",
			env:     map[string]string{"MOOD_INDEX_PIPELINE__CONCURRENCY": "-1"},
			wantErr: "Concurrency must be at least 0",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"MOOD_INDEX_LOG__LEVEL": "loud"},
			wantErr: "Level must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.path)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"MOOD_INDEX_LOG__LEVEL", "log.level"},
		{"MOOD_INDEX_SPOTIFY__CLIENT_SECRET", "spotify.client_secret"},
		{"MOOD_INDEX_STORAGE__POSTGRES_URL", "storage.postgres_url"},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRequireSpotify(t *testing.T) {
	cfg := Default()
	if err := cfg.RequireSpotify(); !errors.Is(err, ErrMissingSpotifyCredentials) {
		t.Errorf("RequireSpotify() = %v, want ErrMissingSpotifyCredentials", err)
	}
	cfg.Spotify.ClientID = "id"
	cfg.Spotify.ClientSecret = "secret"
	if err := cfg.RequireSpotify(); err != nil {
		t.Errorf("RequireSpotify() = %v, want nil", err)
	}
}
