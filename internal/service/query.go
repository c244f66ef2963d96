package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aethelred/foundry/internal/domain"
	"go.uber.org/zap"
)

var ErrQueryEmpty = errors.New("query is required")

// NoKnowledgeAnswer is returned when the index has nothing relevant; an
// empty knowledge base degrades, it does not error.
const NoKnowledgeAnswer = "I found no relevant information in the knowledge base to answer that query."

type Source struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Summary  string   `json:"summary"`
	Entities []string `json:"entities"`
}

type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// QueryService answers questions over the knowledge index: embed the query,
// retrieve the top-k chunks, synthesize an answer from their summaries.
// Stateless per request; concurrent queries are independent.
type QueryService struct {
	knowledge domain.KnowledgeStore
	embedder  domain.EmbeddingClient
	llm       domain.LLMClient
	logger    *zap.Logger

	defaultK int
}

func NewQueryService(knowledge domain.KnowledgeStore, embedder domain.EmbeddingClient, llm domain.LLMClient, defaultK int, logger *zap.Logger) *QueryService {
	if defaultK <= 0 {
		defaultK = 5
	}
	return &QueryService{
		knowledge: knowledge,
		embedder:  embedder,
		llm:       llm,
		defaultK:  defaultK,
		logger:    logger,
	}
}

func (s *QueryService) Query(ctx context.Context, query string, k int) (*QueryResult, error) {
	if query == "" {
		return nil, ErrQueryEmpty
	}
	if k <= 0 {
		k = s.defaultK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.knowledge.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}

	if len(chunks) == 0 {
		s.logger.Info("query found no knowledge", zap.String("query", query))
		return &QueryResult{Answer: NoKnowledgeAnswer, Sources: []Source{}}, nil
	}

	contexts := make([]string, len(chunks))
	sources := make([]Source, len(chunks))
	for i, c := range chunks {
		contexts[i] = c.Summary
		sources[i] = Source{
			Title:    c.Title,
			URL:      c.URL,
			Summary:  c.Summary,
			Entities: c.Entities,
		}
	}

	answer, err := s.llm.Answer(ctx, query, contexts)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	s.logger.Info("query answered",
		zap.String("query", query),
		zap.Int("sources", len(sources)))
	return &QueryResult{Answer: answer, Sources: sources}, nil
}
