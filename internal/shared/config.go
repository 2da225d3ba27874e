package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Directory DirectoryConfig `toml:"directory"`
	Feeds     FeedsConfig     `toml:"feeds"`
	Batch     BatchConfig     `toml:"batch"`
	Store     StoreConfig     `toml:"store"`
	Scoring   ScoringConfig   `toml:"scoring"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
}

// LogConfig controls the default log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// DirectoryConfig contains the feed directory API endpoint and credentials.
type DirectoryConfig struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	APISecret      string  `toml:"api_secret"`
	UserAgent      string  `toml:"user_agent"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// FeedsConfig contains feed fetching, caching and parsing settings.
type FeedsConfig struct {
	CacheTTLSeconds     int               `toml:"cache_ttl_seconds"`
	FetchTimeoutSeconds int               `toml:"fetch_timeout_seconds"`
	Extractor           string            `toml:"extractor"`
	Seed                map[string]string `toml:"seed"`
}

// BatchConfig contains batch coordinator settings.
type BatchConfig struct {
	Workers      int `toml:"workers"`
	WaveSize     int `toml:"wave_size"`
	WaveDelayMS  int `toml:"wave_delay_ms"`
	Retries      int `toml:"retries"`
	RetryDelayMS int `toml:"retry_delay_ms"`
}

// StoreConfig points at the persisted JSON track store.
type StoreConfig struct {
	Path   string `toml:"path"`
	Source string `toml:"source"`
}

// ScoringConfig holds completeness score weights used by the reconciler.
type ScoringConfig struct {
	Title       int `toml:"title"`
	Artist      int `toml:"artist"`
	Album       int `toml:"album"`
	AudioURL    int `toml:"audio_url"`
	Image       int `toml:"image"`
	Duration    int `toml:"duration"`
	PublishDate int `toml:"publish_date"`
	FeedTitle   int `toml:"feed_title"`
	Resolved    int `toml:"resolved"`
}

// DatabaseConfig contains resolution ledger settings. An empty path disables the ledger.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads a TOML configuration file and overlays it onto [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Credential environment variables consulted when the config file leaves them empty.
const (
	EnvAPIKey    = "PODCASTINDEX_API_KEY"
	EnvAPISecret = "PODCASTINDEX_API_SECRET"
)

// ApplyEnv fills empty directory credentials from the environment.
func (c *Config) ApplyEnv() {
	if strings.TrimSpace(c.Directory.APIKey) == "" {
		if value, ok := os.LookupEnv(EnvAPIKey); ok {
			c.Directory.APIKey = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Directory.APISecret) == "" {
		if value, ok := os.LookupEnv(EnvAPISecret); ok {
			c.Directory.APISecret = strings.TrimSpace(value)
		}
	}
}

// Validate reports configuration that makes a resolution run impossible.
//
// Directory credentials are required even when every reference is seeded.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Directory.APIKey) == "" || strings.TrimSpace(c.Directory.APISecret) == "" {
		return fmt.Errorf("%w: directory api_key and api_secret are required", ErrMissingCredentials)
	}
	if strings.TrimSpace(c.Directory.BaseURL) == "" {
		return fmt.Errorf("%w: directory base_url is empty", ErrInvalidConfig)
	}
	switch c.Feeds.Extractor {
	case "", "regex", "structured":
	default:
		return fmt.Errorf("%w: unknown extractor %q", ErrInvalidConfig, c.Feeds.Extractor)
	}
	return nil
}

// CacheTTL returns the feed cache TTL.
func (f FeedsConfig) CacheTTL() time.Duration {
	return time.Duration(f.CacheTTLSeconds) * time.Second
}

// FetchTimeout returns the per-fetch timeout.
func (f FeedsConfig) FetchTimeout() time.Duration {
	return time.Duration(f.FetchTimeoutSeconds) * time.Second
}

// WaveDelay returns the courtesy delay between waves.
func (b BatchConfig) WaveDelay() time.Duration {
	return time.Duration(b.WaveDelayMS) * time.Millisecond
}

// RetryDelay returns the delay between feed-level retries.
func (b BatchConfig) RetryDelay() time.Duration {
	return time.Duration(b.RetryDelayMS) * time.Millisecond
}

// Addr returns host:port for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
