// Package youtube resolves video metadata through the public oEmbed endpoint.
// Transcript download needs authenticated APIs, so the indexable text is the
// video title, author and the user-supplied description.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

const defaultOEmbedURL = "https://www.youtube.com/oembed"

type Extractor struct {
	httpClient *http.Client
	oembedURL  string
}

func NewExtractor() *Extractor {
	return &Extractor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		oembedURL:  defaultOEmbedURL,
	}
}

// NewExtractorWithEndpoint is for tests pointing at a stub oEmbed server.
func NewExtractorWithEndpoint(endpoint string) *Extractor {
	e := NewExtractor()
	e.oembedURL = endpoint
	return e
}

func (e *Extractor) Extract(ctx context.Context, src *domain.Source) ([]domain.ExtractedSegment, error) {
	endpoint := fmt.Sprintf("%s?url=%s&format=json", e.oembedURL, url.QueryEscape(src.URL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create oembed request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch oembed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch oembed status: %s", resp.Status)
	}

	var meta struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode oembed response: %w", err)
	}

	var parts []string
	if meta.Title != "" {
		parts = append(parts, meta.Title)
	}
	if meta.AuthorName != "" {
		parts = append(parts, "by "+meta.AuthorName)
	}
	if desc := strings.TrimSpace(src.Description); desc != "" {
		parts = append(parts, desc)
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return []domain.ExtractedSegment{{
		Text:  strings.Join(parts, ". "),
		Title: meta.Title,
	}}, nil
}
