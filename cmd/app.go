// Package cmd implements the stockglance command line.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"

	"stock-glance/bookmarks"
	"stock-glance/config"
	"stock-glance/credentials"
	"stock-glance/dashboard"
	"stock-glance/loader"
	"stock-glance/provider"
	"stock-glance/quotes"
	"stock-glance/search"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&serveCmd{}, "")

	c.Register(&quotesCmd{}, "watchlist")
	c.Register(&chartCmd{}, "watchlist")
	c.Register(&bookmarksCmd{}, "watchlist")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configPath = flag.String("config", "", "Path to the YAML configuration file (defaults to $STOCKGLANCE_CONFIG or config.yaml)")

// APIKeyNames are the environment names the Finnhub key is looked up under, in order.
var APIKeyNames = []string{"FINNHUB_API_KEY", "VITE_FINNHUB_API_KEY"}

// LoadConfig loads the configuration selected by -config or STOCKGLANCE_CONFIG.
func LoadConfig() (*config.Config, error) {
	path := *configPath
	if path == "" {
		path = os.Getenv("STOCKGLANCE_CONFIG")
	}
	if path == "" {
		path = "config.yaml"
	}
	return config.Load(path)
}

// app is everything a subcommand needs, built from the configuration.
type app struct {
	cfg       *config.Config
	dashboard *dashboard.Dashboard
	breaker   *quotes.Breaker
	storage   bookmarks.Storage
	index     *search.BleveEngine
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	p, err := newProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	symbols := cfg.Watchlist.Symbols
	if cfg.Watchlist.File != "" {
		if symbols, err = loader.LoadSymbols(cfg.Watchlist.File); err != nil {
			return nil, fmt.Errorf("failed to load watchlist: %w", err)
		}
	}
	aggregator := quotes.NewAggregator(p, symbols, cfg.Provider.Cooldown)

	storage, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, breaker: aggregator.Breaker(), storage: storage}
	var index search.SearchEngine
	if a.index, err = search.NewBleveEngine(nil); err != nil {
		log.Printf("Warning: Failed to create search index, using substring search: %v", err)
		index = search.NewInMemoryEngine(nil)
	} else {
		index = a.index
	}

	a.dashboard = dashboard.New(aggregator, bookmarks.NewStore(storage), index)
	return a, nil
}

func (a *app) Close() {
	if a.index != nil {
		a.index.Close()
	}
	if err := a.storage.Close(); err != nil {
		log.Printf("Failed to close bookmark storage: %v", err)
	}
}

func newProvider(cfg config.ProviderConfig) (provider.Provider, error) {
	switch cfg.Name {
	case "yahoo":
		return provider.NewYahoo(cfg.Timeout), nil
	case "finnhub":
		key := cfg.APIKey
		if key == "" {
			dotenv, err := credentials.NewDotenvProvider(cfg.EnvFile)
			if err != nil {
				return nil, err
			}
			chain := credentials.Chain{credentials.NewEnvProvider(), dotenv}
			if key, err = credentials.Lookup(chain, APIKeyNames...); err != nil {
				return nil, fmt.Errorf("finnhub API key: %w", err)
			}
		}
		return provider.NewFinnhub(cfg.BaseURL, key, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Name)
}

func newStorage(ctx context.Context, cfg config.StorageConfig) (bookmarks.Storage, error) {
	switch cfg.Backend {
	case "bolt":
		return bookmarks.OpenBolt(cfg.Path)
	case "redis":
		storage := bookmarks.NewRedisStorage(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := storage.Ping(pingCtx); err != nil {
			storage.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
		}
		return storage, nil
	case "memory":
		return bookmarks.NewMemoryStorage(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// openApp loads the configuration and builds the app, reporting failures on stderr.
func openApp(ctx context.Context) (*app, subcommands.ExitStatus) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return a, subcommands.ExitSuccess
}

// refresh loads the bookmarks and fetches the watchlist, printing the banner on failure.
func (a *app) refresh(ctx context.Context) error {
	err := a.dashboard.Start(ctx)
	if err != nil {
		status := a.dashboard.Status()
		fmt.Fprintf(os.Stderr, "Error loading stock data (%s): %s\n", status.Error, status.Message)
	}
	return err
}
