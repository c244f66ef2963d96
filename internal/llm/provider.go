package llm

import (
	"fmt"

	"github.com/aethelred/foundry/internal/domain"
)

// Provider constants
const (
	ProviderOllama = "ollama"
	ProviderMock   = "mock"
)

// NewClient creates an LLM client based on the provider name.
func NewClient(provider, host, model string) (domain.LLMClient, error) {
	switch provider {
	case ProviderOllama:
		if host == "" {
			return nil, fmt.Errorf("ollama host is required for the ollama LLM provider")
		}
		return NewOllamaClient(host, model), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: ollama, mock)", provider)
	}
}
