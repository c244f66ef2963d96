package embedding

import (
	"context"
)

// MockClient is a configurable embedding client for testing.
// Set EmbedResponse or EmbedError to control the result.
type MockClient struct {
	EmbedResponse []float32
	EmbedError    error

	// Call tracking for assertions
	EmbedCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		EmbedResponse: []float32{0.1, 0.2, 0.3},
	}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.EmbedCalls = append(c.EmbedCalls, text)
	if c.EmbedError != nil {
		return nil, c.EmbedError
	}
	return c.EmbedResponse, nil
}
