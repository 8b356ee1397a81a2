package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"

	"stock-glance/api"
)

type serveCmd struct {
	addr    string
	refresh time.Duration
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the dashboard API and UI" }
func (*serveCmd) Usage() string {
	return `stockglance serve [-addr <addr>] [-refresh <interval>]

  Fetches the watchlist once and serves the JSON API and the static UI.
  With -refresh, the watchlist is fetched again at that interval.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address (overrides server.addr)")
	f.DurationVar(&c.refresh, "refresh", 0, "refetch interval, 0 to fetch only on request")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, status := openApp(ctx)
	if a == nil {
		return status
	}
	defer a.Close()

	cfg := a.cfg.Server
	if c.addr != "" {
		cfg.Addr = c.addr
	}
	if cfg.GinRelease {
		gin.SetMode(gin.ReleaseMode)
	}

	// the first load failing is shown as a banner, it does not stop the server
	a.refresh(ctx)
	if c.refresh > 0 {
		go c.refreshLoop(ctx, a)
	}

	handler := api.NewHandler(a.dashboard, a.breaker)
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler, cfg.StaticDir),
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}

	go func() {
		log.Printf("Server starting on %s...", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		return subcommands.ExitFailure
	}
	log.Println("Server exited")
	return subcommands.ExitSuccess
}

func (c *serveCmd) refreshLoop(ctx context.Context, a *app) {
	ticker := time.NewTicker(c.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// failures are logged and kept in the dashboard status
			a.dashboard.Refresh(ctx)
		}
	}
}
