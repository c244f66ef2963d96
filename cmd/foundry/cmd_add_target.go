package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/aethelred/foundry/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var addTargetCmd = &cobra.Command{
	Use:   "add-target <url>",
	Short: "Queue a URL for ingestion",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddTarget,
}

func runAddTarget(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	target := args[0]
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid url: %s", target)
	}

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

	tasks := store.NewTaskStore(pool)
	id, err := tasks.EnqueueTarget(ctx, target)
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("target already queued: %s", target)
	}
	if err != nil {
		return err
	}

	logger.Info("target queued", zap.Int64("id", id), zap.String("url", target))
	return nil
}
