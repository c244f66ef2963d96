package domain

import (
	"context"
)

// TaskStore is the durable, status-tagged queue shared by the agents.
// ClaimNext* and Finalize* must be atomic with respect to concurrent
// callers: claim selects the oldest pending record and transitions it in
// one step, finalize only moves a record forward along its status graph
// and is a no-op on already-terminal records.
type TaskStore interface {
	EnqueueTarget(ctx context.Context, url string) (int64, error)
	EnqueueRawContent(ctx context.Context, targetID *int64, url, rawText string) (int64, error)

	ClaimNextTarget(ctx context.Context) (*CrawlTarget, error)
	ClaimNextContent(ctx context.Context) (*RawContent, error)

	FinalizeTarget(ctx context.Context, id int64, status TargetStatus) error
	FinalizeContent(ctx context.Context, id int64, status ContentStatus) error
}

// KnowledgeStore is the vector index plus its admission gate.
// AnnealAndInsert runs the check-then-insert as one transaction so two
// candidates racing against the same near-duplicate cannot both land.
type KnowledgeStore interface {
	Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error)
	AnnealAndInsert(ctx context.Context, chunk *KnowledgeChunk, threshold float32) (*Admission, error)
	Count(ctx context.Context) (int64, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type LLMClient interface {
	ExtractKnowledge(ctx context.Context, rawText, url string) (*Extraction, error)
	Answer(ctx context.Context, query string, contexts []string) (string, error)
}

// Fetcher retrieves a page and reduces it to plain text.
type Fetcher interface {
	FetchAndExtract(ctx context.Context, url string) (string, error)
}
