// Package config loads layered settings: built-in defaults, an optional YAML
// file, then MOOD_INDEX_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/justestif/go-spotify-mood-index/internal/validation"
)

const (
	// EnvPrefix prefixes every environment override. A double underscore
	// separates sections, so MOOD_INDEX_STORAGE__DRIVER sets storage.driver.
	EnvPrefix = "MOOD_INDEX_"

	// PathEnvVar names an explicit config file.
	PathEnvVar = "MOOD_INDEX_CONFIG"

	// DefaultPath is read when present and no other file is given.
	DefaultPath = "mood-index.yaml"
)

// Storage drivers.
const (
	DriverJSON     = "json"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrMissingSpotifyCredentials is returned by RequireSpotify when the client
// id or secret is unset.
var ErrMissingSpotifyCredentials = errors.New("spotify.client_id and spotify.client_secret are required")

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Input     InputConfig     `koanf:"input"`
	Output    OutputConfig    `koanf:"output"`
	Storage   StorageConfig   `koanf:"storage"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Spotify   SpotifyConfig   `koanf:"spotify"`
	LastFM    LastFMConfig    `koanf:"lastfm"`
	Recommend RecommendConfig `koanf:"recommend"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type InputConfig struct {
	Path    string `koanf:"path"`
	Lenient bool   `koanf:"lenient"`
}

type OutputConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

type StorageConfig struct {
	Driver      string `koanf:"driver" validate:"oneof=json postgres sqlite"`
	PostgresURL string `koanf:"postgres_url" validate:"required_if=Driver postgres"`
	SQLitePath  string `koanf:"sqlite_path" validate:"required_if=Driver sqlite"`
}

type PipelineConfig struct {
	// Concurrency of the classification phase. 0 means one worker per CPU.
	Concurrency int `koanf:"concurrency" validate:"min=0"`
}

type MetricsConfig struct {
	// Textfile is a node_exporter textfile path. Empty disables the export.
	Textfile string `koanf:"textfile"`
}

type SpotifyConfig struct {
	ClientID          string  `koanf:"client_id"`
	ClientSecret      string  `koanf:"client_secret"`
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gt=0"`
	DefaultGenre      string  `koanf:"default_genre" validate:"required"`
}

// LastFMConfig enables Last.fm artist tags as a genre fallback during fetch.
type LastFMConfig struct {
	APIKey string `koanf:"api_key"`
}

type RecommendConfig struct {
	MaxResults int `koanf:"max_results" validate:"min=1"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Storage: StorageConfig{
			Driver:     DriverJSON,
			SQLitePath: "mood-index.db",
		},
		Spotify: SpotifyConfig{
			RequestsPerSecond: 5,
			DefaultGenre:      "unknown",
		},
		Recommend: RecommendConfig{
			MaxResults: 15,
		},
	}
}

// Load layers defaults, the config file and the environment, then validates
// the result. path overrides the file lookup; a path given explicitly, or
// through MOOD_INDEX_CONFIG, must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	path, err := configFile(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey maps MOOD_INDEX_SPOTIFY__CLIENT_ID to spotify.client_id.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func configFile(path string) (string, error) {
	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath, nil
	}
	return "", nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	return validation.Struct(c)
}

// RequireSpotify reports whether Spotify credentials are configured.
func (c *Config) RequireSpotify() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return ErrMissingSpotifyCredentials
	}
	return nil
}
