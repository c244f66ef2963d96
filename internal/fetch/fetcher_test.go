package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aethelred/foundry/internal/domain"
)

func TestExtractText(t *testing.T) {
	page := `<html><head>
<title>Test Page</title>
<style>body { color: red; }</style>
<script>console.log("noise");</script>
</head><body>
<h1>Heading</h1>
<p>First paragraph.</p>
<div><span>Nested</span> text</div>
</body></html>`

	text, err := ExtractText(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}

	for _, want := range []string{"Test Page", "Heading", "First paragraph.", "Nested"} {
		if !strings.Contains(text, want) {
			t.Errorf("extracted text missing %q:\n%s", want, text)
		}
	}
	for _, banned := range []string{"color: red", "console.log"} {
		if strings.Contains(text, banned) {
			t.Errorf("extracted text contains non-visible content %q:\n%s", banned, text)
		}
	}
}

func TestFetchAndExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html><body><p>hello world</p></body></html>"))
	}))
	defer srv.Close()

	f := New(5 * time.Second)

	text, err := f.FetchAndExtract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchAndExtract() error = %v", err)
	}
	if !strings.Contains(text, "hello world") {
		t.Errorf("unexpected text: %q", text)
	}

	_, err = f.FetchAndExtract(context.Background(), srv.URL+"/missing")
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError for 404, got %v", err)
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	f := New(500 * time.Millisecond)
	_, err := f.FetchAndExtract(context.Background(), "http://127.0.0.1:1/nope")
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError for unreachable host, got %v", err)
	}
}
