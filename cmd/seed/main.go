// Command seed loads building graph JSON files into the record store. Each
// file carries one building: {"university": ..., "address": ..., "graph":
// {...}}. Files whose address already exists are skipped with a warning.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mpetrenko/campusnav/internal/config"
	"github.com/mpetrenko/campusnav/internal/domain"
	"github.com/mpetrenko/campusnav/internal/logging"
	"github.com/mpetrenko/campusnav/internal/service"
	"github.com/mpetrenko/campusnav/internal/store"
)

type buildingFile struct {
	University string       `json:"university"`
	Address    string       `json:"address"`
	Graph      domain.Graph `json:"graph"`
}

func main() {
	var (
		dataDir = flag.String("data-dir", "./seed-data", "Directory containing building JSON files")
		file    = flag.String("file", "", "Path to a single building JSON file (overrides data-dir)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "seed")

	paths, err := resolvePaths(*dataDir, *file)
	if err != nil {
		logger.Error("resolving seed files failed", "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		logger.Error("no building JSON files found", "dir", *dataDir)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	navService := service.NewNavigationService(recordStore, logger)

	created := 0
	for _, path := range paths {
		building, err := loadBuilding(path)
		if err != nil {
			logger.Error("failed to load building file", "path", path, "error", err)
			os.Exit(1)
		}

		_, err = navService.CreateGraph(ctx, service.CreateGraphInput{
			University: building.University,
			Address:    building.Address,
			Graph:      building.Graph,
		})
		switch {
		case errors.Is(err, store.ErrConflict):
			logger.Warn("address already seeded, skipping", "address", building.Address, "path", path)
		case err != nil:
			logger.Error("failed to create graph record", "address", building.Address, "error", err)
			os.Exit(1)
		default:
			created++
			logger.Info("building seeded", "address", building.Address,
				"nodes", len(building.Graph.Nodes), "edges", len(building.Graph.Edges))
		}
	}

	logger.Info("seeding complete", "files", len(paths), "created", created)
}

func resolvePaths(dir, single string) ([]string, error) {
	if single != "" {
		if _, err := os.Stat(single); err != nil {
			return nil, err
		}
		return []string{single}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func loadBuilding(path string) (buildingFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return buildingFile{}, err
	}

	var building buildingFile
	if err := json.Unmarshal(raw, &building); err != nil {
		return buildingFile{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if building.Address == "" {
		return buildingFile{}, fmt.Errorf("%s: address is required", path)
	}
	return building, nil
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
