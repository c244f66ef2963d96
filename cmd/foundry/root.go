// foundry is a self-updating knowledge base: autonomous agents crawl
// configured sources, distill them into an annealed vector index, and a
// query API answers questions over what was learned.
//
// Usage:
//
//	foundry init [--reset]
//	foundry add-target <url>
//	foundry run-ingestor
//	foundry run-processor
//	foundry run-api
//	foundry launch
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aethelred/foundry/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "foundry",
	Short: "Self-updating knowledge base with autonomous ingestion agents",
	Long: "Foundry runs a pipeline of autonomous agents: an ingestor that crawls\n" +
		"configured URLs, a processor that distills pages into an annealed vector\n" +
		"index, and an API that answers questions over the accumulated knowledge.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the config file")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addTargetCmd)
	rootCmd.AddCommand(runIngestorCmd)
	rootCmd.AddCommand(runProcessorCmd)
	rootCmd.AddCommand(runAPICmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	return logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is required (config database.url or DATABASE_URL)")
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")
	return pool, nil
}
