package llm

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

const defaultModel = "llama3:8b"

// OllamaClient calls a local Ollama instance's /api/chat endpoint.
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
		url:        strings.TrimRight(host, "/") + "/api/chat",
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

// complete sends one system+user exchange. format is "json" to force JSON
// output, empty for free text.
func (c *OllamaClient) complete(ctx context.Context, userPrompt, format string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
		Format: format,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal chat response: %w", err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("chat API error: %s", result.Error)
	}

	return strings.TrimSpace(result.Message.Content), nil
}

// ExtractKnowledge distills raw page text into a title, summary, and entity
// list using the model's JSON mode.
func (c *OllamaClient) ExtractKnowledge(ctx context.Context, rawText, url string) (*domain.Extraction, error) {
	response, err := c.complete(ctx, fmt.Sprintf(extractPrompt, url, rawText), "json")
	if err != nil {
		return nil, &domain.LLMError{Op: "extract", Err: err}
	}

	var extraction domain.Extraction
	if err := json.Unmarshal([]byte(response), &extraction); err != nil {
		return nil, &domain.LLMError{Op: "extract", Err: fmt.Errorf("parse extraction JSON: %w", err)}
	}
	if extraction.Summary == "" {
		return nil, &domain.LLMError{Op: "extract", Err: fmt.Errorf("extraction missing summary")}
	}
	// The model may omit optional keys; downstream consumers (and the
	// NOT NULL entities column) expect a slice, never nil.
	if extraction.Entities == nil {
		extraction.Entities = []string{}
	}
	return &extraction, nil
}

// Answer synthesizes a response to the query from the retrieved context
// chunks.
func (c *OllamaClient) Answer(ctx context.Context, query string, contexts []string) (string, error) {
	contextStr := strings.Join(contexts, "\n\n---\n\n")
	response, err := c.complete(ctx, fmt.Sprintf(answerPrompt, query, contextStr), "")
	if err != nil {
		return "", &domain.LLMError{Op: "answer", Err: err}
	}
	return response, nil
}
