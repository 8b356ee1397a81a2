// Package config loads the dashboard configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"stock-glance/loader"
)

// DefaultSymbols is the watchlist used when neither the config nor a watchlist file sets one.
var DefaultSymbols = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "META", "TSLA", "NVDA", "DIS", "NFLX", "PEP", "JPM",
}

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Storage   StorageConfig   `yaml:"storage"`
}

type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	StaticDir  string        `yaml:"static_dir"`
	Timeout    time.Duration `yaml:"timeout"`
	GinRelease bool          `yaml:"gin_release"`
}

type ProviderConfig struct {
	Name     string        `yaml:"name"` // finnhub or yahoo
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	EnvFile  string        `yaml:"env_file"`
	Timeout  time.Duration `yaml:"timeout"`
	Cooldown time.Duration `yaml:"cooldown"` // circuit breaker reset after a rate limit
}

type WatchlistConfig struct {
	Symbols []string `yaml:"symbols"`
	File    string   `yaml:"file"` // CSV with a Symbol column, overrides Symbols
}

type StorageConfig struct {
	Backend string      `yaml:"backend"` // bolt, redis or memory
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			StaticDir: "./static",
			Timeout:   30 * time.Second,
		},
		Provider: ProviderConfig{
			Name:     "finnhub",
			BaseURL:  "https://finnhub.io/api/v1",
			EnvFile:  ".env",
			Timeout:  10 * time.Second,
			Cooldown: time.Minute,
		},
		Watchlist: WatchlistConfig{
			Symbols: append([]string(nil), DefaultSymbols...),
		},
		Storage: StorageConfig{
			Backend: "bolt",
			Path:    "bookmarks.db",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
	}
}

// Load reads and parses the configuration file on top of the defaults.
// A missing file is not an error: the defaults are returned.
func Load(configPath string) (*Config, error) {
	config := Default()

	file, err := os.Open(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	expandEnvVars(config)
	config.Watchlist.Symbols = loader.NormalizeSymbols(config.Watchlist.Symbols)

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// expandEnvVars expands environment variables in secret fields
func expandEnvVars(config *Config) {
	config.Provider.APIKey = os.ExpandEnv(config.Provider.APIKey)
	config.Storage.Redis.Password = os.ExpandEnv(config.Storage.Redis.Password)
	config.Storage.Path = os.ExpandEnv(config.Storage.Path)
}

// validate ensures the configuration is valid
func validate(config *Config) error {
	switch config.Provider.Name {
	case "finnhub", "yahoo":
	default:
		return fmt.Errorf("unknown provider %q", config.Provider.Name)
	}

	switch config.Storage.Backend {
	case "bolt":
		if config.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the bolt backend")
		}
	case "redis":
		if config.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}

	if len(config.Watchlist.Symbols) == 0 && config.Watchlist.File == "" {
		return fmt.Errorf("the watchlist is empty")
	}
	if config.Provider.Timeout < 0 {
		return fmt.Errorf("invalid provider timeout: %v", config.Provider.Timeout)
	}
	return nil
}
