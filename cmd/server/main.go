package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mpetrenko/campusnav/internal/config"
	"github.com/mpetrenko/campusnav/internal/dock"
	"github.com/mpetrenko/campusnav/internal/logging"
	"github.com/mpetrenko/campusnav/internal/search"
	"github.com/mpetrenko/campusnav/internal/server"
	"github.com/mpetrenko/campusnav/internal/service"
	"github.com/mpetrenko/campusnav/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	recordStore, err := buildStore(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open record store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := recordStore.Close(context.Background()); err != nil {
			logger.Warn("closing record store failed", "error", err)
		}
	}()

	photoDock, err := buildDock(ctx, logger, cfg.Dock)
	if err != nil {
		logger.Error("failed to set up photo storage", "error", err)
		os.Exit(1)
	}

	library, err := buildLibrary(logger, cfg.Search)
	if err != nil {
		logger.Error("failed to load document library", "error", err)
		os.Exit(1)
	}

	navService := service.NewNavigationService(recordStore, logger)
	apiHandlers := server.NewAPIHandlers(logger, navService, photoDock, library)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Store: recordStore},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "":
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	case "neo4j":
		return store.OpenNeo4j(ctx, store.Neo4jOptions{
			URI:            cfg.URI,
			Database:       cfg.Database,
			Username:       cfg.Username,
			Password:       cfg.Password,
			MaxConnections: cfg.MaxConnections,
		})
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// buildDock returns nil when no endpoint is configured; the photo API then
// answers 503.
func buildDock(ctx context.Context, logger *slog.Logger, cfg config.DockConfig) (dock.Dock, error) {
	if cfg.Endpoint == "" {
		logger.Info("photo storage disabled: no MINIO_ENDPOINT configured")
		return nil, nil
	}

	d, err := dock.NewMinioDock(dock.Options{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		URLExpiry: cfg.URLExpiry,
	})
	if err != nil {
		return nil, err
	}
	if err := d.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("photo storage ready", "bucket", cfg.Bucket)
	return d, nil
}

// buildLibrary returns nil when no library dir is configured; the search API
// then answers 503.
func buildLibrary(logger *slog.Logger, cfg config.SearchConfig) (*search.Engine, error) {
	if cfg.LibraryDir == "" {
		logger.Info("document search disabled: no SEARCH_LIBRARY_DIR configured")
		return nil, nil
	}

	engine, err := search.NewEngine(cfg.LibraryDir)
	if err != nil {
		return nil, err
	}

	logger.Info("document library loaded", "dir", cfg.LibraryDir, "documents", len(engine.ListDocuments()))
	return engine, nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
