package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/aethelred/foundry/internal/embedding"
	"github.com/aethelred/foundry/internal/llm"
	"github.com/aethelred/foundry/internal/service"
	"github.com/aethelred/foundry/internal/store"
	"github.com/spf13/cobra"
)

var runProcessorCmd = &cobra.Command{
	Use:   "run-processor",
	Short: "Run the processing agent: distill raw content into the knowledge index",
	RunE:  runProcessor,
}

func runProcessor(cmd *cobra.Command, _ []string) error {
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

	llmClient, err := llm.NewClient(cfg.Providers.LLM, cfg.Ollama.Host, cfg.Ollama.GenerationModel)
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}
	embeddingClient, err := embedding.NewClient(cfg.Providers.Embedding, cfg.Ollama.Host, cfg.Ollama.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("embedding client: %w", err)
	}

	svc := service.NewProcessorService(
		store.NewTaskStore(pool),
		store.NewKnowledgeStore(pool),
		llmClient,
		embeddingClient,
		cfg.Processor.PollInterval(),
		cfg.Processor.AnnealingThreshold,
		cfg.Processor.MaxRawTextChars,
		logger,
	)
	return svc.Run(ctx)
}
