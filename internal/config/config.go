package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OllamaConfig points at the local model server used for both generation and
// embeddings.
type OllamaConfig struct {
	Host            string `yaml:"host"`
	GenerationModel string `yaml:"generation_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	// EmbeddingDim must match the embedding model's output; the pgvector
	// column is declared with it at init time.
	EmbeddingDim int `yaml:"embedding_dim"`
}

type DatabaseConfig struct {
	// URL is the Postgres connection string. The DATABASE_URL environment
	// variable (or .env entry) overrides it.
	URL string `yaml:"url"`
}

type IngestorConfig struct {
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	FetchTimeoutSeconds int      `yaml:"fetch_timeout_seconds"`
	CrawlTargets        []string `yaml:"crawl_targets"`
}

type ProcessorConfig struct {
	PollIntervalSeconds int     `yaml:"poll_interval_seconds"`
	AnnealingThreshold  float32 `yaml:"annealing_threshold"`
	// MaxRawTextChars caps how much page text is handed to the LLM.
	MaxRawTextChars int `yaml:"max_raw_text_chars"`
}

type APIConfig struct {
	Host           string  `yaml:"host"`
	Port           int     `yaml:"port"`
	DefaultK       int     `yaml:"default_k"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type SupervisorConfig struct {
	MonitorIntervalSeconds int `yaml:"monitor_interval_seconds"`
	GracePeriodSeconds     int `yaml:"grace_period_seconds"`
	// MaxRestarts bounds automatic restarts per unit for one supervisor run.
	// 0 means unlimited.
	MaxRestarts int `yaml:"max_restarts"`
}

type ProvidersConfig struct {
	LLM       string `yaml:"llm"`
	Embedding string `yaml:"embedding"`
}

// Config is the root configuration, read once at startup. No hot reload.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Ollama     OllamaConfig     `yaml:"ollama"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Ingestor   IngestorConfig   `yaml:"ingestor"`
	Processor  ProcessorConfig  `yaml:"processor"`
	API        APIConfig        `yaml:"api"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
}

// Load reads the optional .env file, then the yaml config at path (defaults
// apply when the file is absent), then environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(cfg)

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.Ollama.Host = host
	}

	return cfg, nil
}

func (c *IngestorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *IngestorConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *ProcessorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *SupervisorConfig) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalSeconds) * time.Second
}

func (c *SupervisorConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodSeconds) * time.Second
}

func defaultConfig() *Config {
	return &Config{
		Ollama: OllamaConfig{
			Host:            "http://localhost:11434",
			GenerationModel: "llama3:8b",
			EmbeddingModel:  "mxbai-embed-large",
			EmbeddingDim:    1024,
		},
		Providers: ProvidersConfig{
			LLM:       "ollama",
			Embedding: "ollama",
		},
		Ingestor: IngestorConfig{
			PollIntervalSeconds: 3600,
			FetchTimeoutSeconds: 30,
		},
		Processor: ProcessorConfig{
			PollIntervalSeconds: 600,
			AnnealingThreshold:  0.95,
			MaxRawTextChars:     24000,
		},
		API: APIConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			DefaultK:       5,
			RateLimitRPS:   100,
			RateLimitBurst: 20,
		},
		Supervisor: SupervisorConfig{
			MonitorIntervalSeconds: 5,
			GracePeriodSeconds:     10,
			MaxRestarts:            10,
		},
	}
}

// applyDefaults fills fields a partial yaml file left zero.
func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Ollama.Host == "" {
		cfg.Ollama.Host = def.Ollama.Host
	}
	if cfg.Ollama.GenerationModel == "" {
		cfg.Ollama.GenerationModel = def.Ollama.GenerationModel
	}
	if cfg.Ollama.EmbeddingModel == "" {
		cfg.Ollama.EmbeddingModel = def.Ollama.EmbeddingModel
	}
	if cfg.Ollama.EmbeddingDim <= 0 {
		cfg.Ollama.EmbeddingDim = def.Ollama.EmbeddingDim
	}
	if cfg.Providers.LLM == "" {
		cfg.Providers.LLM = def.Providers.LLM
	}
	if cfg.Providers.Embedding == "" {
		cfg.Providers.Embedding = def.Providers.Embedding
	}
	if cfg.Ingestor.PollIntervalSeconds <= 0 {
		cfg.Ingestor.PollIntervalSeconds = def.Ingestor.PollIntervalSeconds
	}
	if cfg.Ingestor.FetchTimeoutSeconds <= 0 {
		cfg.Ingestor.FetchTimeoutSeconds = def.Ingestor.FetchTimeoutSeconds
	}
	if cfg.Processor.PollIntervalSeconds <= 0 {
		cfg.Processor.PollIntervalSeconds = def.Processor.PollIntervalSeconds
	}
	if cfg.Processor.AnnealingThreshold <= 0 {
		cfg.Processor.AnnealingThreshold = def.Processor.AnnealingThreshold
	}
	if cfg.Processor.MaxRawTextChars <= 0 {
		cfg.Processor.MaxRawTextChars = def.Processor.MaxRawTextChars
	}
	if cfg.API.Host == "" {
		cfg.API.Host = def.API.Host
	}
	if cfg.API.Port <= 0 {
		cfg.API.Port = def.API.Port
	}
	if cfg.API.DefaultK <= 0 {
		cfg.API.DefaultK = def.API.DefaultK
	}
	if cfg.API.RateLimitRPS <= 0 {
		cfg.API.RateLimitRPS = def.API.RateLimitRPS
	}
	if cfg.API.RateLimitBurst <= 0 {
		cfg.API.RateLimitBurst = def.API.RateLimitBurst
	}
	if cfg.Supervisor.MonitorIntervalSeconds <= 0 {
		cfg.Supervisor.MonitorIntervalSeconds = def.Supervisor.MonitorIntervalSeconds
	}
	if cfg.Supervisor.GracePeriodSeconds <= 0 {
		cfg.Supervisor.GracePeriodSeconds = def.Supervisor.GracePeriodSeconds
	}
	if cfg.Supervisor.MaxRestarts < 0 {
		cfg.Supervisor.MaxRestarts = def.Supervisor.MaxRestarts
	}
}
