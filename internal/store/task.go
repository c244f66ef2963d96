package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aethelred/foundry/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskStore is the Postgres-backed queue for crawl targets and raw content.
// Claims and finalizes are single guarded statements, so they stay atomic
// even when a crashed agent's replacement briefly overlaps with it.
type TaskStore struct {
	db *pgxpool.Pool
}

func NewTaskStore(db *pgxpool.Pool) *TaskStore {
	return &TaskStore{db: db}
}

// EnqueueTarget adds a URL to the crawl list. A URL that already exists in a
// non-failed status is a duplicate; a failed URL is requeued as pending so a
// transient fetch failure can be retried by re-adding the target.
func (s *TaskStore) EnqueueTarget(ctx context.Context, url string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO crawl_targets (url) VALUES ($1)
		 ON CONFLICT (url) DO UPDATE
		 SET status = 'pending', last_attempt_at = NULL
		 WHERE crawl_targets.status = 'failed'
		 RETURNING id`,
		url,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("enqueue target: %w", err)
	}
	return id, nil
}

func (s *TaskStore) EnqueueRawContent(ctx context.Context, targetID *int64, url, rawText string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO raw_content (target_id, url, raw_text) VALUES ($1, $2, $3)
		 RETURNING id`,
		targetID, url, rawText,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("enqueue raw content: %w", err)
	}
	return id, nil
}

// ClaimNextTarget atomically transitions the oldest pending target to
// in_progress and returns it. FOR UPDATE SKIP LOCKED keeps concurrent
// claimants from ever receiving the same row.
func (s *TaskStore) ClaimNextTarget(ctx context.Context) (*domain.CrawlTarget, error) {
	t := &domain.CrawlTarget{}
	err := s.db.QueryRow(ctx,
		`UPDATE crawl_targets
		 SET status = 'in_progress', last_attempt_at = now()
		 WHERE id = (
			SELECT id FROM crawl_targets
			WHERE status = 'pending'
			ORDER BY id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, url, status, last_attempt_at`,
	).Scan(&t.ID, &t.URL, &t.Status, &t.LastAttemptAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("claim target: %w", err)
	}
	return t, nil
}

// ClaimNextContent atomically transitions the oldest pending raw content
// chunk to in_progress and returns it.
func (s *TaskStore) ClaimNextContent(ctx context.Context) (*domain.RawContent, error) {
	c := &domain.RawContent{}
	err := s.db.QueryRow(ctx,
		`UPDATE raw_content
		 SET status = 'in_progress'
		 WHERE id = (
			SELECT id FROM raw_content
			WHERE status = 'pending'
			ORDER BY id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, target_id, url, raw_text, status, created_at`,
	).Scan(&c.ID, &c.TargetID, &c.URL, &c.RawText, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("claim content: %w", err)
	}
	return c, nil
}

// FinalizeTarget sets a terminal status on a claimed target. Finalizing an
// already-terminal target is a no-op; finalizing a target that was never
// claimed is an invalid transition.
func (s *TaskStore) FinalizeTarget(ctx context.Context, id int64, status domain.TargetStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("finalize target %d with non-terminal status %q: %w", id, status, ErrInvalidTransition)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE crawl_targets
		 SET status = $2, last_attempt_at = now()
		 WHERE id = $1 AND status = 'in_progress'`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("finalize target: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current domain.TargetStatus
	err = s.db.QueryRow(ctx, `SELECT status FROM crawl_targets WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("finalize target: %w", err)
	}
	if current.Terminal() {
		return nil
	}
	return fmt.Errorf("finalize target %d in status %q: %w", id, current, ErrInvalidTransition)
}

// FinalizeContent sets a terminal status on a claimed content chunk, with the
// same idempotency contract as FinalizeTarget.
func (s *TaskStore) FinalizeContent(ctx context.Context, id int64, status domain.ContentStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("finalize content %d with non-terminal status %q: %w", id, status, ErrInvalidTransition)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE raw_content
		 SET status = $2
		 WHERE id = $1 AND status = 'in_progress'`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("finalize content: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current domain.ContentStatus
	err = s.db.QueryRow(ctx, `SELECT status FROM raw_content WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("finalize content: %w", err)
	}
	if current.Terminal() {
		return nil
	}
	return fmt.Errorf("finalize content %d in status %q: %w", id, current, ErrInvalidTransition)
}

// SeedTargets enqueues the configured crawl targets, ignoring duplicates.
func (s *TaskStore) SeedTargets(ctx context.Context, urls []string) (int, error) {
	added := 0
	for _, url := range urls {
		_, err := s.EnqueueTarget(ctx, url)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
