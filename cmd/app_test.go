package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stock-glance/bookmarks"
	"stock-glance/config"
	"stock-glance/credentials"
	"stock-glance/provider"
)

func TestNewProviderAPIKey(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "")
	t.Setenv("VITE_FINNHUB_API_KEY", "vite-key")

	cfg := config.Default().Provider
	cfg.EnvFile = filepath.Join(t.TempDir(), "missing.env")
	p, err := newProvider(cfg)
	if err != nil {
		t.Fatalf("newProvider failed: %v", err)
	}
	if _, ok := p.(*provider.Finnhub); !ok {
		t.Errorf("Expected a Finnhub provider, got %T", p)
	}
}

func TestNewProviderDotenv(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "")
	t.Setenv("VITE_FINNHUB_API_KEY", "")

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("FINNHUB_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default().Provider
	cfg.EnvFile = envFile
	if _, err := newProvider(cfg); err != nil {
		t.Fatalf("Expected the key from the .env file, got %v", err)
	}
}

func TestNewProviderMissingKey(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "")
	t.Setenv("VITE_FINNHUB_API_KEY", "")

	cfg := config.Default().Provider
	cfg.EnvFile = filepath.Join(t.TempDir(), "missing.env")
	_, err := newProvider(cfg)
	if !errors.Is(err, credentials.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestNewProviderYahoo(t *testing.T) {
	cfg := config.Default().Provider
	cfg.Name = "yahoo"
	p, err := newProvider(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*provider.Yahoo); !ok {
		t.Errorf("Expected a Yahoo provider, got %T", p)
	}
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	memory, err := newStorage(ctx, config.StorageConfig{Backend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := memory.(*bookmarks.MemoryStorage); !ok {
		t.Errorf("Expected memory storage, got %T", memory)
	}

	bolt, err := newStorage(ctx, config.StorageConfig{Backend: "bolt", Path: filepath.Join(t.TempDir(), "b.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer bolt.Close()
	if _, ok := bolt.(*bookmarks.BoltStorage); !ok {
		t.Errorf("Expected bolt storage, got %T", bolt)
	}

	if _, err := newStorage(ctx, config.StorageConfig{Backend: "tape"}); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}

func TestNewAppWatchlistFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "watchlist.csv")
	if err := os.WriteFile(file, []byte("Symbol\nPEP\nJPM\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Provider.APIKey = "test"
	cfg.Storage.Backend = "memory"
	cfg.Watchlist.File = file

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer a.Close()
	if a.dashboard == nil || a.breaker == nil || a.index == nil {
		t.Errorf("Expected a fully wired app, got %+v", a)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOCKGLANCE_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Expected :9999, got %s", cfg.Server.Addr)
	}
}
