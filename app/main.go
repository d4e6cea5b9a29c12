package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/naijahub/newshub/app/api"
	"github.com/naijahub/newshub/app/cfg"
	"github.com/naijahub/newshub/app/database"
	"github.com/naijahub/newshub/app/feed"
	"github.com/naijahub/newshub/app/images"
	"github.com/naijahub/newshub/app/ingest"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting NewsHub", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	sources, err := feed.LoadSources(appCfg.FeedsFile)
	if err != nil {
		log.Fatalf("Failed to load feed sources: %v", err)
	}
	slog.Info("Feed sources loaded", "count", len(sources))

	httpClient := &http.Client{}

	articleRepo := database.NewArticleRepository(db)
	fetcher := feed.NewFetcher(httpClient, appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second)
	acquirer := images.NewAcquirer(httpClient, appCfg.ImagesDir)
	fallback := images.NewFallbackResolver(appCfg.ImagesDir)

	ingestor := ingest.NewIngestor(fetcher, acquirer, fallback, articleRepo, sources, appCfg.WorkerCount)
	defer ingestor.Stop()

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	go refreshLoop(refreshCtx, ingestor, time.Duration(appCfg.RefreshInterval)*time.Second)

	handler := api.NewHandler(articleRepo, ingestor)
	server := api.NewServer(handler, appCfg.ImagesDir)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// refreshLoop triggers an ingestion cycle on startup and then on a fixed
// interval. The single-flight guard inside the ingestor makes this safe
// alongside manual /refresh triggers.
func refreshLoop(ctx context.Context, ingestor *ingest.Ingestor, interval time.Duration) {
	if !ingestor.TryStart() {
		slog.Debug("Startup ingestion cycle skipped, already running")
	}

	if interval <= 0 {
		slog.Info("Automatic refresh disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !ingestor.TryStart() {
				slog.Debug("Scheduled ingestion cycle skipped, already running")
			}
		}
	}
}
