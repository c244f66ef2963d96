package domain

import (
	"fmt"
)

// FetchError marks a per-target fetch failure (network, HTTP status, parse).
// It maps the target to failed and never halts the ingestor loop.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// LLMError marks a generation/extraction capability failure (unreachable
// endpoint, malformed response). Per-chunk, non-fatal to the processor loop.
type LLMError struct {
	Op  string
	Err error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// EmbeddingError marks an embedding capability failure. Per-chunk,
// non-fatal to the processor loop.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
