package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Processor.AnnealingThreshold != 0.95 {
		t.Errorf("annealing threshold default = %v, want 0.95", cfg.Processor.AnnealingThreshold)
	}
	if cfg.API.DefaultK != 5 {
		t.Errorf("default k = %d, want 5", cfg.API.DefaultK)
	}
	if cfg.Supervisor.MaxRestarts != 10 {
		t.Errorf("max restarts default = %d, want 10", cfg.Supervisor.MaxRestarts)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
processor:
  annealing_threshold: 0.9
ingestor:
  poll_interval_seconds: 60
  crawl_targets:
    - https://example.com/docs
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Processor.AnnealingThreshold != 0.9 {
		t.Errorf("annealing threshold = %v, want 0.9", cfg.Processor.AnnealingThreshold)
	}
	if cfg.Ingestor.PollIntervalSeconds != 60 {
		t.Errorf("poll interval = %d, want 60", cfg.Ingestor.PollIntervalSeconds)
	}
	if len(cfg.Ingestor.CrawlTargets) != 1 {
		t.Fatalf("crawl targets = %v", cfg.Ingestor.CrawlTargets)
	}
	// Untouched sections fall back to defaults.
	if cfg.Ollama.EmbeddingDim != 1024 {
		t.Errorf("embedding dim = %d, want default 1024", cfg.Ollama.EmbeddingDim)
	}
	if cfg.Processor.PollIntervalSeconds != 600 {
		t.Errorf("processor poll interval = %d, want default 600", cfg.Processor.PollIntervalSeconds)
	}
}

func TestDatabaseURLOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://override/foundry")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://override/foundry" {
		t.Errorf("database url = %q, want env override", cfg.Database.URL)
	}
}
