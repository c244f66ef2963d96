package main

import (
	"os/signal"
	"syscall"

	"github.com/aethelred/foundry/internal/fetch"
	"github.com/aethelred/foundry/internal/service"
	"github.com/aethelred/foundry/internal/store"
	"github.com/spf13/cobra"
)

var runIngestorCmd = &cobra.Command{
	Use:   "run-ingestor",
	Short: "Run the ingestion agent: fetch queued targets into raw content",
	RunE:  runIngestor,
}

func runIngestor(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	tasks := store.NewTaskStore(pool)
	fetcher := fetch.New(cfg.Ingestor.FetchTimeout())

	svc := service.NewIngestorService(tasks, fetcher, cfg.Ingestor.PollInterval(), logger)
	return svc.Run(ctx)
}
