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

const itemTimeout = 2 * time.Minute

// IngestorService drains pending crawl targets: claim, fetch, extract,
// enqueue the raw text for the processor. Fetch failures mark the target
// failed and never halt the loop; store failures terminate the run so the
// supervisor restarts the process.
type IngestorService struct {
	tasks   domain.TaskStore
	fetcher domain.Fetcher
	logger  *zap.Logger

	interval time.Duration
}

func NewIngestorService(tasks domain.TaskStore, fetcher domain.Fetcher, interval time.Duration, logger *zap.Logger) *IngestorService {
	return &IngestorService{
		tasks:    tasks,
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until ctx is canceled. Cancellation is observed only between
// targets, so the target being worked on is always carried to a terminal
// status before the loop exits.
func (s *IngestorService) Run(ctx context.Context) error {
	s.logger.Info("ingestor started", zap.Duration("poll_interval", s.interval))

	for {
		if err := s.Sweep(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			s.logger.Info("ingestor stopped")
			return nil
		case <-time.After(s.interval):
		}
	}
}

// Sweep claims and ingests pending targets until the queue is empty or a
// stop is requested. The returned error is always a store failure.
func (s *IngestorService) Sweep(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// The claimed target is finished even if shutdown arrives mid-fetch.
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), itemTimeout)
		target, err := s.tasks.ClaimNextTarget(workCtx)
		if errors.Is(err, store.ErrNotFound) {
			cancel()
			return nil
		}
		if err != nil {
			cancel()
			return fmt.Errorf("claim next target: %w", err)
		}

		err = s.ingest(workCtx, target)
		cancel()
		if err != nil {
			return err
		}
	}
}

func (s *IngestorService) ingest(ctx context.Context, target *domain.CrawlTarget) error {
	s.logger.Info("fetching target",
		zap.Int64("target_id", target.ID),
		zap.String("url", target.URL))

	text, err := s.fetcher.FetchAndExtract(ctx, target.URL)
	if err != nil {
		s.logger.Warn("fetch failed",
			zap.Int64("target_id", target.ID),
			zap.String("url", target.URL),
			zap.Error(err))
		if ferr := s.tasks.FinalizeTarget(ctx, target.ID, domain.TargetFailed); ferr != nil {
			return fmt.Errorf("finalize failed target %d: %w", target.ID, ferr)
		}
		return nil
	}

	// Raw content must be durable before the target completes; the processor
	// only ever sees committed rows.
	contentID, err := s.tasks.EnqueueRawContent(ctx, &target.ID, target.URL, text)
	if err != nil {
		return fmt.Errorf("enqueue raw content for target %d: %w", target.ID, err)
	}
	if err := s.tasks.FinalizeTarget(ctx, target.ID, domain.TargetCompleted); err != nil {
		return fmt.Errorf("finalize completed target %d: %w", target.ID, err)
	}

	s.logger.Info("target ingested",
		zap.Int64("target_id", target.ID),
		zap.Int64("content_id", contentID),
		zap.Int("bytes", len(text)))
	return nil
}
