package embedding

import (
	"fmt"

	"github.com/aethelred/foundry/internal/domain"
)

// Provider constants
const (
	ProviderOllama = "ollama"
	ProviderMock   = "mock"
)

// NewClient creates an embedding client based on the provider name.
func NewClient(provider, host, model string) (domain.EmbeddingClient, error) {
	switch provider {
	case ProviderOllama:
		if host == "" {
			return nil, fmt.Errorf("ollama host is required for the ollama embedding provider")
		}
		return NewOllamaClient(host, model), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (valid options: ollama, mock)", provider)
	}
}
