// Command docrag answers questions from per-user document summaries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := file.LoadDotEnv(".env"); err != nil {
		logger.Warn("%v", err)
	}

	store, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.SetConfigStore(store)
	cli.SetBootstrap(func(dataDir string) (*cli.Services, func(), error) {
		return bootstrap(store, dataDir)
	})

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bootstrap builds every service from settings. The returned function
// releases the AI clients and the database.
func bootstrap(configStore driven.ConfigStore, dataDir string) (*cli.Services, func(), error) {
	settings, err := file.LoadSettings(configStore, nil)
	if err != nil {
		return nil, nil, err
	}
	if dataDir != "" {
		if settings.Index.Dir == filepath.Join(settings.DataDir, "indexes") {
			settings.Index.Dir = filepath.Join(dataDir, "indexes")
		}
		settings.DataDir = dataDir
	}

	store, err := sqlite.NewStore(filepath.Join(settings.DataDir, "data"))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	var index driven.IndexStore = store.IndexStore()
	if settings.Index.Backend == domain.IndexBackendFilesystem {
		fsIndex, err := filesystem.NewIndexStore(settings.Index.Dir)
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("open index directory: %w", err)
		}
		index = fsIndex
	}

	aiServices, err := ai.NewServices(settings)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(settings.DataDir, "prompts"))
	if err != nil {
		_ = aiServices.Close()
		store.Close()
		return nil, nil, err
	}

	docs := store.EmbeddingStore()
	indexer := services.NewIndexService(docs, index, aiServices.Embedding, settings.Rebuild)

	query := services.NewQueryService(docs, index, aiServices.Embedding, aiServices.LLM, prompts, settings.Index.TopK)

	if settings.Index.Cache {
		cache := services.NewSessionCache(index)
		query.SetCache(cache)
		indexer.SetCache(cache)
	}

	schedulerConfig := domain.SchedulerConfigFromSettings(settings)

	svc := &cli.Services{
		Document:        services.NewDocumentService(docs),
		Index:           indexer,
		Query:           query,
		Health:          services.NewHealthService(docs, index, aiServices.Embedding, aiServices.LLM),
		Scheduler:       services.NewScheduler(schedulerConfig, store.SchedulerStore(), indexer),
		SchedulerConfig: schedulerConfig,
		QueryTimeout:    settings.QueryTimeout,
		Warnings:        aiServices.Warnings,
	}

	cleanup := func() {
		if err := aiServices.Close(); err != nil {
			logger.Debug("close ai services: %v", err)
		}
		if err := store.Close(); err != nil {
			logger.Debug("close store: %v", err)
		}
	}
	return svc, cleanup, nil
}
