package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aethelred/foundry/internal/supervisor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Run all agents under the supervisor",
	Long: "Launch spawns the ingestor, processor and API as child processes of this\n" +
		"binary, restarts any that crash, and shuts them all down on SIGINT/SIGTERM.",
	RunE: runLaunch,
}

func runLaunch(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve own binary: %w", err)
	}

	units := []supervisor.Unit{
		supervisor.NewProcessUnit("ingestor", binary, "--config", configPath, "run-ingestor"),
		supervisor.NewProcessUnit("processor", binary, "--config", configPath, "run-processor"),
		supervisor.NewProcessUnit("api", binary, "--config", configPath, "run-api"),
	}

	sup := supervisor.New(units,
		cfg.Supervisor.MonitorInterval(),
		cfg.Supervisor.GracePeriod(),
		cfg.Supervisor.MaxRestarts,
		logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("launching foundry",
		zap.Int("units", len(units)),
		zap.Int("max_restarts", cfg.Supervisor.MaxRestarts))

	if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
