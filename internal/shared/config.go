package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Cache    CacheConfig    `toml:"cache"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Source   SourceConfig   `toml:"source"`
	Services ServicesConfig `toml:"services"`
}

// CacheConfig controls where resolution caches live and how matches are validated.
type CacheConfig struct {
	Dir         string  `toml:"dir"`
	Threshold   float64 `toml:"threshold"`
	Concurrency int     `toml:"concurrency"`
}

// PathFor returns the cache file for a service: one JSON file per destination.
func (c CacheConfig) PathFor(service string) string {
	return filepath.Join(c.Dir, service+".json")
}

// SourceConfig configures where track lists come from.
type SourceConfig struct {
	Reddit RedditConfig `toml:"reddit"`
}

// RedditConfig contains Reddit API credentials and listing options.
type RedditConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	UserAgent    string `toml:"user_agent"`
	Subreddit    string `toml:"subreddit"`
	Limit        int    `toml:"limit"`
	Pattern      string `toml:"pattern"`
}

// ServicesConfig contains per-destination settings.
type ServicesConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Tidal   TidalConfig   `toml:"tidal"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// TargetConfig is shared by every destination service.
type TargetConfig struct {
	Enabled           bool    `toml:"enabled"`
	PlaylistID        string  `toml:"playlist_id"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	TargetConfig
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	RefreshToken string `toml:"refresh_token"`
}

// TidalConfig contains Tidal API credentials.
type TidalConfig struct {
	TargetConfig
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	CountryCode  string `toml:"country_code"`
}

// YouTubeConfig points at the ytmusicapi proxy.
type YouTubeConfig struct {
	TargetConfig
	ProxyURL string `toml:"proxy_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Cache.Threshold <= 0 || c.Cache.Threshold > 1 {
		return fmt.Errorf("%w: cache.threshold must be in (0, 1], got %v", ErrInvalidConfig, c.Cache.Threshold)
	}
	if c.Cache.Concurrency < 0 {
		return fmt.Errorf("%w: cache.concurrency must not be negative", ErrInvalidConfig)
	}
	if c.Source.Reddit.Pattern != "" {
		if _, err := regexp.Compile(c.Source.Reddit.Pattern); err != nil {
			return fmt.Errorf("%w: source.reddit.pattern: %v", ErrInvalidConfig, err)
		}
	}
	for name, t := range map[string]TargetConfig{
		"spotify": c.Services.Spotify.TargetConfig,
		"tidal":   c.Services.Tidal.TargetConfig,
		"youtube": c.Services.YouTube.TargetConfig,
	} {
		if t.Enabled && t.PlaylistID == "" {
			return fmt.Errorf("%w: services.%s is enabled without a playlist_id", ErrInvalidConfig, name)
		}
		if t.RequestsPerSecond < 0 || t.Burst < 0 {
			return fmt.Errorf("%w: services.%s rate limit must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
