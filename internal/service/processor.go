package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aethelred/foundry/internal/domain"
	"github.com/aethelred/foundry/internal/store"
	"go.uber.org/zap"
)

// ProcessorService drains pending raw content: claim, distill with the LLM,
// embed the summary, run the annealing gate, insert if novel. Both admission
// outcomes finalize the chunk as processed; a rejection means dedup worked,
// not that processing failed. Only capability failures mark a chunk failed,
// and only store failures terminate the run.
type ProcessorService struct {
	tasks     domain.TaskStore
	knowledge domain.KnowledgeStore
	llm       domain.LLMClient
	embedder  domain.EmbeddingClient
	logger    *zap.Logger

	interval  time.Duration
	threshold float32
	maxChars  int
}

func NewProcessorService(
	tasks domain.TaskStore,
	knowledge domain.KnowledgeStore,
	llm domain.LLMClient,
	embedder domain.EmbeddingClient,
	interval time.Duration,
	threshold float32,
	maxChars int,
	logger *zap.Logger,
) *ProcessorService {
	return &ProcessorService{
		tasks:     tasks,
		knowledge: knowledge,
		llm:       llm,
		embedder:  embedder,
		interval:  interval,
		threshold: threshold,
		maxChars:  maxChars,
		logger:    logger,
	}
}

// Run polls until ctx is canceled, observing cancellation only between
// chunks.
func (s *ProcessorService) Run(ctx context.Context) error {
	s.logger.Info("processor started",
		zap.Duration("poll_interval", s.interval),
		zap.Float32("annealing_threshold", s.threshold))

	for {
		if err := s.Sweep(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			s.logger.Info("processor stopped")
			return nil
		case <-time.After(s.interval):
		}
	}
}

// Sweep claims and processes pending content until the queue is empty or a
// stop is requested. The returned error is always a store failure.
func (s *ProcessorService) Sweep(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), itemTimeout)
		content, err := s.tasks.ClaimNextContent(workCtx)
		if errors.Is(err, store.ErrNotFound) {
			cancel()
			return nil
		}
		if err != nil {
			cancel()
			return fmt.Errorf("claim next content: %w", err)
		}

		err = s.process(workCtx, content)
		cancel()
		if err != nil {
			return err
		}
	}
}

func (s *ProcessorService) process(ctx context.Context, content *domain.RawContent) error {
	s.logger.Info("processing chunk",
		zap.Int64("content_id", content.ID),
		zap.String("url", content.URL))

	text := content.RawText
	if s.maxChars > 0 && len(text) > s.maxChars {
		text = text[:s.maxChars]
	}

	extraction, err := s.llm.ExtractKnowledge(ctx, text, content.URL)
	if err != nil {
		return s.failChunk(ctx, content.ID, "knowledge extraction failed", err)
	}

	vector, err := s.embedder.Embed(ctx, extraction.Summary)
	if err != nil {
		return s.failChunk(ctx, content.ID, "embedding failed", err)
	}

	chunk := &domain.KnowledgeChunk{
		Embedding: vector,
		Summary:   extraction.Summary,
		URL:       content.URL,
		Title:     extraction.Title,
		Entities:  extraction.Entities,
	}
	admission, err := s.knowledge.AnnealAndInsert(ctx, chunk, s.threshold)
	if err != nil {
		return fmt.Errorf("anneal and insert for content %d: %w", content.ID, err)
	}

	if admission.Admitted {
		s.logger.Info("knowledge admitted",
			zap.Int64("content_id", content.ID),
			zap.Int64("chunk_id", chunk.ID),
			zap.String("title", chunk.Title))
	} else {
		s.logger.Info("knowledge rejected as near-duplicate",
			zap.Int64("content_id", content.ID),
			zap.Float32("similarity", admission.Nearest.Similarity),
			zap.String("nearest_title", admission.Nearest.Title),
			zap.String("nearest_url", admission.Nearest.URL))
	}

	if err := s.tasks.FinalizeContent(ctx, content.ID, domain.ContentProcessed); err != nil {
		return fmt.Errorf("finalize processed content %d: %w", content.ID, err)
	}
	return nil
}

// failChunk records a per-chunk capability failure. Only a store error while
// recording it propagates.
func (s *ProcessorService) failChunk(ctx context.Context, id int64, msg string, cause error) error {
	s.logger.Warn(msg, zap.Int64("content_id", id), zap.Error(cause))
	if err := s.tasks.FinalizeContent(ctx, id, domain.ContentFailed); err != nil {
		return fmt.Errorf("finalize failed content %d: %w", id, err)
	}
	return nil
}
