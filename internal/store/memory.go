package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aethelred/foundry/internal/domain"
)

// MemoryTaskStore is an in-memory TaskStore with the same contract as the
// Postgres implementation: FIFO claims, exclusive handout under concurrency,
// idempotent finalize. Used in tests and for running the pipeline without a
// database.
type MemoryTaskStore struct {
	mu       sync.Mutex
	targets  []*domain.CrawlTarget
	contents []*domain.RawContent
	nextID   int64
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{nextID: 1}
}

func (s *MemoryTaskStore) EnqueueTarget(ctx context.Context, url string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.targets {
		if t.URL != url {
			continue
		}
		if t.Status == domain.TargetFailed {
			t.Status = domain.TargetPending
			t.LastAttemptAt = nil
			return t.ID, nil
		}
		return 0, ErrDuplicate
	}

	t := &domain.CrawlTarget{ID: s.nextID, URL: url, Status: domain.TargetPending}
	s.nextID++
	s.targets = append(s.targets, t)
	return t.ID, nil
}

func (s *MemoryTaskStore) EnqueueRawContent(ctx context.Context, targetID *int64, url, rawText string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &domain.RawContent{
		ID:        s.nextID,
		TargetID:  targetID,
		URL:       url,
		RawText:   rawText,
		Status:    domain.ContentPending,
		CreatedAt: time.Now(),
	}
	s.nextID++
	s.contents = append(s.contents, c)
	return c.ID, nil
}

func (s *MemoryTaskStore) ClaimNextTarget(ctx context.Context) (*domain.CrawlTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.targets {
		if t.Status == domain.TargetPending {
			now := time.Now()
			t.Status = domain.TargetInProgress
			t.LastAttemptAt = &now
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryTaskStore) ClaimNextContent(ctx context.Context) (*domain.RawContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.contents {
		if c.Status == domain.ContentPending {
			c.Status = domain.ContentInProgress
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryTaskStore) FinalizeTarget(ctx context.Context, id int64, status domain.TargetStatus) error {
	if !status.Terminal() {
		return ErrInvalidTransition
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.targets {
		if t.ID != id {
			continue
		}
		if t.Status.Terminal() {
			return nil
		}
		if !t.Status.CanTransitionTo(status) {
			return ErrInvalidTransition
		}
		now := time.Now()
		t.Status = status
		t.LastAttemptAt = &now
		return nil
	}
	return ErrNotFound
}

func (s *MemoryTaskStore) FinalizeContent(ctx context.Context, id int64, status domain.ContentStatus) error {
	if !status.Terminal() {
		return ErrInvalidTransition
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.contents {
		if c.ID != id {
			continue
		}
		if c.Status.Terminal() {
			return nil
		}
		if !c.Status.CanTransitionTo(status) {
			return ErrInvalidTransition
		}
		c.Status = status
		return nil
	}
	return ErrNotFound
}

// Target returns a snapshot of a target for assertions.
func (s *MemoryTaskStore) Target(id int64) (*domain.CrawlTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.targets {
		if t.ID == id {
			cp := *t
			return &cp, true
		}
	}
	return nil, false
}

// Content returns a snapshot of a raw content chunk for assertions.
func (s *MemoryTaskStore) Content(id int64) (*domain.RawContent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.contents {
		if c.ID == id {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

// Contents returns snapshots of all raw content chunks, oldest first.
func (s *MemoryTaskStore) Contents() []domain.RawContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RawContent, len(s.contents))
	for i, c := range s.contents {
		out[i] = *c
	}
	return out
}

// MemoryKnowledgeStore is an in-memory KnowledgeStore using brute-force
// cosine similarity. The mutex makes AnnealAndInsert serializable, matching
// the advisory-lock transaction of the Postgres implementation.
type MemoryKnowledgeStore struct {
	mu     sync.RWMutex
	chunks []domain.KnowledgeChunk
	nextID int64
}

func NewMemoryKnowledgeStore() *MemoryKnowledgeStore {
	return &MemoryKnowledgeStore{nextID: 1}
}

func (s *MemoryKnowledgeStore) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]domain.ScoredChunk, len(s.chunks))
	for i, c := range s.chunks {
		scored[i] = domain.ScoredChunk{
			KnowledgeChunk: c,
			Similarity:     domain.CosineSimilarity(embedding, c.Embedding),
		}
	}
	// Descending similarity; equal scores keep insertion order (lower id
	// first) so results are stable.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *MemoryKnowledgeStore) AnnealAndInsert(ctx context.Context, chunk *domain.KnowledgeChunk, threshold float32) (*domain.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var nearest *domain.ScoredChunk
	for i := range s.chunks {
		sim := domain.CosineSimilarity(chunk.Embedding, s.chunks[i].Embedding)
		if nearest == nil || sim > nearest.Similarity {
			nearest = &domain.ScoredChunk{KnowledgeChunk: s.chunks[i], Similarity: sim}
		}
	}

	admission := domain.Admit(nearest, threshold)
	if !admission.Admitted {
		return &admission, nil
	}

	chunk.ID = s.nextID
	s.nextID++
	chunk.CreatedAt = time.Now()
	if chunk.Entities == nil {
		chunk.Entities = []string{}
	}
	s.chunks = append(s.chunks, *chunk)
	return &admission, nil
}

func (s *MemoryKnowledgeStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.chunks)), nil
}
