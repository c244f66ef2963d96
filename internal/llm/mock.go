package llm

import (
	"context"

	"github.com/aethelred/foundry/internal/domain"
)

// MockClient is a configurable LLM client for testing.
// Set the response fields to control what each method returns.
type MockClient struct {
	ExtractResponse *domain.Extraction
	ExtractError    error
	AnswerResponse  string
	AnswerError     error

	// Call tracking for assertions
	ExtractCalls []string
	AnswerCalls  []struct {
		Query    string
		Contexts []string
	}
}

func NewMockClient() *MockClient {
	return &MockClient{
		ExtractResponse: &domain.Extraction{
			Title:    "Mock Title",
			Summary:  "Mock summary of the chunk.",
			Entities: []string{"mock", "test"},
		},
		AnswerResponse: "Mock answer.",
	}
}

func (c *MockClient) ExtractKnowledge(ctx context.Context, rawText, url string) (*domain.Extraction, error) {
	c.ExtractCalls = append(c.ExtractCalls, rawText)
	if c.ExtractError != nil {
		return nil, c.ExtractError
	}
	return c.ExtractResponse, nil
}

func (c *MockClient) Answer(ctx context.Context, query string, contexts []string) (string, error) {
	c.AnswerCalls = append(c.AnswerCalls, struct {
		Query    string
		Contexts []string
	}{query, contexts})
	if c.AnswerError != nil {
		return "", c.AnswerError
	}
	return c.AnswerResponse, nil
}
