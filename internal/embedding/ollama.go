package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aethelred/foundry/internal/domain"
)

const defaultModel = "mxbai-embed-large"

// OllamaClient calls a local Ollama instance's /api/embeddings endpoint.
type OllamaClient struct {
	url        string
	model      string
	httpClient *http.Client
}

func NewOllamaClient(host, model string) *OllamaClient {
	if model == "" {
		model = defaultModel
	}
	return &OllamaClient{
		url:        strings.TrimRight(host, "/") + "/api/embeddings",
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{
		Model:  c.model,
		Prompt: text,
	})
	if err != nil {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("marshal embedding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("create embedding request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("embedding request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("read embedding response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(respBody))}
	}

	var result embeddingResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("unmarshal embedding response: %w", err)}
	}

	if result.Error != "" {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("embedding API error: %s", result.Error)}
	}

	if len(result.Embedding) == 0 {
		return nil, &domain.EmbeddingError{Err: fmt.Errorf("embedding API returned no data")}
	}

	return result.Embedding, nil
}
