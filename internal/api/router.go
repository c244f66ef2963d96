package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/aethelred/foundry/internal/api/handlers"
	mw "github.com/aethelred/foundry/internal/api/middleware"
	"github.com/aethelred/foundry/internal/config"
	"github.com/aethelred/foundry/internal/domain"
	"github.com/aethelred/foundry/internal/embedding"
	"github.com/aethelred/foundry/internal/llm"
	"github.com/aethelred/foundry/internal/service"
	"github.com/aethelred/foundry/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and request metrics for the query service.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) (*App, error) {
	knowledgeStore := store.NewKnowledgeStore(db)

	llmClient, err := llm.NewClient(cfg.Providers.LLM, cfg.Ollama.Host, cfg.Ollama.GenerationModel)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	embeddingClient, err := embedding.NewClient(cfg.Providers.Embedding, cfg.Ollama.Host, cfg.Ollama.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}
	logger.Info("model clients initialized",
		zap.String("llm_provider", cfg.Providers.LLM),
		zap.String("embedding_provider", cfg.Providers.Embedding))

	querySvc := service.NewQueryService(knowledgeStore, embeddingClient, llmClient, cfg.API.DefaultK, logger)
	queryHandler := handlers.NewQueryHandler(querySvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)                                                   // Generate/extract request ID first
	r.Use(middleware.RealIP)                                              // Extract real IP
	r.Use(metricsCollector.Middleware)                                    // Collect metrics
	r.Use(mw.Logging(logger))                                             // Log all requests
	r.Use(middleware.Recoverer)                                           // Recover from panics
	r.Use(mw.RateLimit(cfg.API.RateLimitRPS, cfg.API.RateLimitBurst))     // Rate limiting

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())
	r.Post("/query", queryHandler.Query)

	return app, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.TaskStore       = (*store.TaskStore)(nil)
	_ domain.TaskStore       = (*store.MemoryTaskStore)(nil)
	_ domain.KnowledgeStore  = (*store.KnowledgeStore)(nil)
	_ domain.KnowledgeStore  = (*store.MemoryKnowledgeStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OllamaClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.LLMClient       = (*llm.OllamaClient)(nil)
	_ domain.LLMClient       = (*llm.MockClient)(nil)
)
