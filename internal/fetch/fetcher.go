package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/aethelred/foundry/internal/domain"
	"golang.org/x/net/html"
)

const userAgent = "Foundry-Knowledge-Ingestor/1.0"

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Fetcher retrieves a URL over HTTP and reduces its HTML to plain text.
// Every failure mode (network, non-2xx status, unparseable body) is wrapped
// in a domain.FetchError so the ingestor can record it without halting.
type Fetcher struct {
	httpClient *http.Client
}

func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) FetchAndExtract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.FetchError{URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	text, err := ExtractText(resp.Body)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	if text == "" {
		return "", &domain.FetchError{URL: url, Err: fmt.Errorf("no text content")}
	}
	return text, nil
}

// ExtractText tokenizes HTML and returns the visible text, dropping script
// and style contents and collapsing runs of blank lines.
func ExtractText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)

	var sb strings.Builder
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if errors.Is(tokenizer.Err(), io.EOF) {
				text := strings.TrimSpace(sb.String())
				return excessNewlines.ReplaceAllString(text, "\n\n"), nil
			}
			return "", tokenizer.Err()

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
	}
}

func skippedTag(name string) bool {
	switch name {
	case "script", "style", "noscript":
		return true
	}
	return false
}
