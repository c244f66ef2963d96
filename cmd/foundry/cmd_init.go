package main

import (
	"github.com/aethelred/foundry/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var initReset bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema and seed crawl targets from config",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initReset, "reset", false, "drop existing tables before creating them")
}

func runInit(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if initReset {
		logger.Warn("resetting schema, all data will be lost")
		if err := store.Reset(ctx, pool, cfg.Ollama.EmbeddingDim); err != nil {
			return err
		}
	} else if err := store.Migrate(ctx, pool, cfg.Ollama.EmbeddingDim); err != nil {
		return err
	}
	logger.Info("schema ready", zap.Int("embedding_dim", cfg.Ollama.EmbeddingDim))

	if len(cfg.Ingestor.CrawlTargets) > 0 {
		tasks := store.NewTaskStore(pool)
		added, err := tasks.SeedTargets(ctx, cfg.Ingestor.CrawlTargets)
		if err != nil {
			return err
		}
		logger.Info("seeded crawl targets",
			zap.Int("configured", len(cfg.Ingestor.CrawlTargets)),
			zap.Int("added", added))
	}

	return nil
}
