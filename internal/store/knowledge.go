package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aethelred/foundry/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// annealLockKey serializes admission transactions. A single advisory lock is
// enough at this scale; admissions are rare relative to searches.
const annealLockKey = 0x616e6e65 // "anne"

// KnowledgeStore is the pgvector-backed nearest-neighbor index.
type KnowledgeStore struct {
	db *pgxpool.Pool
}

func NewKnowledgeStore(db *pgxpool.Pool) *KnowledgeStore {
	return &KnowledgeStore{db: db}
}

// Search returns up to k chunks ordered by descending cosine similarity to
// the query vector. Ties break by insertion order, earliest first, so results
// are stable across calls. An empty index yields an empty slice.
func (s *KnowledgeStore) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}
	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT id, summary, url, title, entities, created_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM knowledge_chunks
		 ORDER BY embedding <=> $1 ASC, id ASC
		 LIMIT $2`,
		vec, k,
	)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	results := []domain.ScoredChunk{}
	for rows.Next() {
		var sc domain.ScoredChunk
		if err := rows.Scan(&sc.ID, &sc.Summary, &sc.URL, &sc.Title, &sc.Entities, &sc.CreatedAt, &sc.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}
	return results, nil
}

// AnnealAndInsert runs the admission gate and, if the candidate is novel,
// inserts it — all inside one transaction. The advisory lock makes the
// check-then-insert serializable: two candidates racing against the same
// near-duplicate can never both be admitted.
func (s *KnowledgeStore) AnnealAndInsert(ctx context.Context, chunk *domain.KnowledgeChunk, threshold float32) (*domain.Admission, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin admission tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, annealLockKey); err != nil {
		return nil, fmt.Errorf("acquire admission lock: %w", err)
	}

	vec := pgvector.NewVector(chunk.Embedding)

	var nearest *domain.ScoredChunk
	var sc domain.ScoredChunk
	err = tx.QueryRow(ctx,
		`SELECT id, summary, url, title, entities, created_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM knowledge_chunks
		 ORDER BY embedding <=> $1 ASC, id ASC
		 LIMIT 1`,
		vec,
	).Scan(&sc.ID, &sc.Summary, &sc.URL, &sc.Title, &sc.Entities, &sc.CreatedAt, &sc.Similarity)
	switch {
	case err == nil:
		nearest = &sc
	case errors.Is(err, pgx.ErrNoRows):
		// Empty index: nothing to compare against.
	default:
		return nil, fmt.Errorf("nearest query: %w", err)
	}

	admission := domain.Admit(nearest, threshold)
	if !admission.Admitted {
		return &admission, tx.Commit(ctx)
	}

	// A nil slice would encode as SQL NULL and violate the NOT NULL
	// entities column.
	entities := chunk.Entities
	if entities == nil {
		entities = []string{}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO knowledge_chunks (embedding, summary, url, title, entities)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		vec, chunk.Summary, chunk.URL, chunk.Title, entities,
	).Scan(&chunk.ID, &chunk.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert chunk: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit admission tx: %w", err)
	}
	return &admission, nil
}

func (s *KnowledgeStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM knowledge_chunks`).Scan(&count)
	return count, err
}
