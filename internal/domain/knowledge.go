package domain

import (
	"time"
)

// KnowledgeChunk is a distilled unit of knowledge admitted into the vector
// index. Chunks are immutable after insertion; corrections arrive as new
// chunks that pass the annealing gate.
type KnowledgeChunk struct {
	ID        int64     `json:"id"`
	Embedding []float32 `json:"-"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Entities  []string  `json:"entities"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredChunk pairs a chunk with its cosine similarity to a query vector.
type ScoredChunk struct {
	KnowledgeChunk
	Similarity float32 `json:"similarity"`
}

// Extraction is the structured knowledge the LLM distills from raw text.
type Extraction struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Entities []string `json:"entities"`
}
