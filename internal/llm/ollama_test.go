package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aethelred/foundry/internal/domain"
)

func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": content},
		})
	}))
}

func TestExtractKnowledgeWithoutEntities(t *testing.T) {
	// Models in JSON mode sometimes omit optional keys entirely.
	srv := newChatServer(t, `{"title":"Go Memory Model","summary":"Rules for reads and writes."}`)
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "test-model")
	extraction, err := client.ExtractKnowledge(context.Background(), "raw text", "https://go.dev/ref/mem")
	if err != nil {
		t.Fatalf("ExtractKnowledge: %v", err)
	}
	if extraction.Entities == nil {
		t.Error("Entities is nil, want empty slice")
	}
	if len(extraction.Entities) != 0 {
		t.Errorf("Entities = %v, want empty", extraction.Entities)
	}
	if extraction.Summary != "Rules for reads and writes." {
		t.Errorf("Summary = %q", extraction.Summary)
	}
}

func TestExtractKnowledgeMissingSummary(t *testing.T) {
	srv := newChatServer(t, `{"title":"T","entities":["a"]}`)
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "test-model")
	_, err := client.ExtractKnowledge(context.Background(), "raw text", "https://example.com")
	var llmErr *domain.LLMError
	if !errors.As(err, &llmErr) {
		t.Fatalf("err = %v, want LLMError", err)
	}
}

func TestExtractKnowledgeMalformedJSON(t *testing.T) {
	srv := newChatServer(t, `not json`)
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "test-model")
	_, err := client.ExtractKnowledge(context.Background(), "raw text", "https://example.com")
	var llmErr *domain.LLMError
	if !errors.As(err, &llmErr) {
		t.Fatalf("err = %v, want LLMError", err)
	}
}
