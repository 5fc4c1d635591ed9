// Package config loads settings from the environment, the station/feed YAML
// file and, for credentials, an optional credentials.json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Credentials
	WAQIToken       string
	BlueskyHandle   string
	BlueskyPassword string
	CredentialsPath string

	// Run mode
	Live  bool // publish instead of printing
	Debug bool

	// Logging
	LogFormat string // "text" or "json"

	// Stations and feeds
	FilePath      string
	Stations      []string
	PrimaryFeed   string
	SecondaryFeed string
	WAQIBaseURL   string
	BlueskyHost   string

	// History
	HistoryBackend string // "file", "postgres" or "sqlite"
	HistoryFile    string
	HistoryLimit   int
	DatabaseURL    string
	SQLitePath     string

	// Selection
	FeedAttempts int
	RandomSeed   uint64

	// Network
	StationInterval time.Duration
	RequestTimeout  time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration

	// Monitoring
	MonitoringEnabled bool
	MonitoringPort    string
}

// FileConfig is the YAML file structure
//
//	stations:
//	  - cache
//	feeds:
//	  primary: https://...
//	  secondary: https://...
type FileConfig struct {
	Stations []string `yaml:"stations"`
	Feeds    struct {
		Primary   string `yaml:"primary"`
		Secondary string `yaml:"secondary"`
	} `yaml:"feeds"`
}

// Credentials mirrors credentials.json.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	APIToken string `json:"api_token"`
}

// DefaultStations are the WAQI Utah feeds reported on.
var DefaultStations = []string{"cache", "weber", "davis", "salt-lake-city", "utah/lindon", "washington"}

const (
	defaultPrimaryFeed   = "https://news.google.com/rss/search?q=utah+air+quality&hl=en-US&gl=US&ceid=US:en"
	defaultSecondaryFeed = "https://news.google.com/rss/search?q=utah+inversion+pollution&hl=en-US&gl=US&ceid=US:en"
)

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		FilePath:        "configs/aqibot.yaml",
		Stations:        DefaultStations,
		PrimaryFeed:     defaultPrimaryFeed,
		SecondaryFeed:   defaultSecondaryFeed,
		WAQIBaseURL:     "https://api.waqi.info",
		BlueskyHost:     "https://bsky.social",
		HistoryBackend:  "file",
		HistoryFile:     "link_history.json",
		HistoryLimit:    20,
		SQLitePath:      "aqibot.db",
		FeedAttempts:    3,
		StationInterval: 100 * time.Millisecond,
		RequestTimeout:  30 * time.Second,
		RetryAttempts:   3,
		RetryDelay:      2 * time.Second,
		LogFormat:       "text",
		MonitoringPort:  "8080",
	}

	cfg.FilePath = getEnvOrDefault("AQIBOT_CONFIG", cfg.FilePath)
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}

	cfg.CredentialsPath = getEnvOrDefault("CREDENTIALS_FILE", "credentials.json")
	if err := cfg.loadCredentials(); err != nil {
		return nil, err
	}

	// Environment wins over files
	if v := os.Getenv("WAQI_TOKEN"); v != "" {
		cfg.WAQIToken = v
	}
	if v := os.Getenv("BLUESKY_HANDLE"); v != "" {
		cfg.BlueskyHandle = v
	}
	if v := os.Getenv("BLUESKY_PASSWORD"); v != "" {
		cfg.BlueskyPassword = v
	}
	cfg.WAQIBaseURL = getEnvOrDefault("WAQI_BASE_URL", cfg.WAQIBaseURL)
	cfg.BlueskyHost = getEnvOrDefault("BLUESKY_HOST", cfg.BlueskyHost)

	cfg.Live = os.Getenv("LIVE") == "true"
	cfg.Debug = os.Getenv("DEBUG") == "true"
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)

	cfg.HistoryBackend = getEnvOrDefault("HISTORY_BACKEND", cfg.HistoryBackend)
	cfg.HistoryFile = getEnvOrDefault("HISTORY_FILE", cfg.HistoryFile)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SQLitePath = getEnvOrDefault("SQLITE_PATH", cfg.SQLitePath)

	var err error
	if cfg.HistoryLimit, err = getEnvIntOrDefault("HISTORY_LIMIT", cfg.HistoryLimit); err != nil {
		return nil, err
	}
	if cfg.FeedAttempts, err = getEnvIntOrDefault("FEED_ATTEMPTS", cfg.FeedAttempts); err != nil {
		return nil, err
	}
	if cfg.RetryAttempts, err = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts); err != nil {
		return nil, err
	}

	if v := os.Getenv("RANDOM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RANDOM_SEED: %w", err)
		}
		cfg.RandomSeed = seed
	}

	if cfg.StationInterval, err = getEnvDurationOrDefault("STATION_INTERVAL", cfg.StationInterval); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay); err != nil {
		return nil, err
	}

	cfg.MonitoringEnabled = os.Getenv("ENABLE_HTTP_MONITORING") == "true"
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	return cfg, cfg.Validate()
}

// loadFile applies the YAML file if it exists.
func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", c.FilePath, err)
	}

	if len(fc.Stations) > 0 {
		c.Stations = fc.Stations
	}
	if fc.Feeds.Primary != "" {
		c.PrimaryFeed = fc.Feeds.Primary
	}
	if fc.Feeds.Secondary != "" {
		c.SecondaryFeed = fc.Feeds.Secondary
	}
	return nil
}

// loadCredentials applies credentials.json if it exists.
func (c *Config) loadCredentials() error {
	data, err := os.ReadFile(c.CredentialsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("failed to parse credentials %s: %w", c.CredentialsPath, err)
	}
	c.BlueskyHandle = creds.Username
	c.BlueskyPassword = creds.Password
	c.WAQIToken = creds.APIToken
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return intValue, nil
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return d, nil
}

func (c *Config) Validate() error {
	if c.WAQIToken == "" {
		return errors.New("WAQI_TOKEN is required")
	}
	if c.Live && (c.BlueskyHandle == "" || c.BlueskyPassword == "") {
		return errors.New("BLUESKY_HANDLE and BLUESKY_PASSWORD are required when LIVE=true")
	}
	if c.PrimaryFeed == "" || c.SecondaryFeed == "" {
		return errors.New("both primary and secondary feeds are required")
	}
	if c.HistoryLimit <= 0 {
		return errors.New("HISTORY_LIMIT must be positive")
	}
	if c.FeedAttempts <= 0 {
		return errors.New("FEED_ATTEMPTS must be positive")
	}
	if c.RetryAttempts <= 0 {
		return errors.New("RETRY_ATTEMPTS must be positive")
	}
	switch c.HistoryBackend {
	case "file":
		if c.HistoryFile == "" {
			return errors.New("HISTORY_FILE is required for the file backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be 'file', 'postgres' or 'sqlite', got %q", c.HistoryBackend)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.New("LOG_FORMAT must be 'text' or 'json'")
	}
	return nil
}
