// Package website fetches a web page and extracts its visible text and title.
package website

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

type Extractor struct {
	httpClient *http.Client
	userAgent  string
}

func NewExtractor() *Extractor {
	return &Extractor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "notebook-assistant/1.0",
	}
}

func (e *Extractor) Extract(ctx context.Context, src *domain.Source) ([]domain.ExtractedSegment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create page request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch page status: %s", resp.Status)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title, text := flatten(root)
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return []domain.ExtractedSegment{{Text: text, Title: title}}, nil
}

// flatten walks the document collecting visible text, skipping script, style
// and metadata subtrees.
func flatten(root *html.Node) (title, text string) {
	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				if n.Data == "head" {
					for c := n.FirstChild; c != nil; c = c.NextSibling {
						if c.Type == html.ElementNode && c.Data == "title" && c.FirstChild != nil {
							title = strings.TrimSpace(c.FirstChild.Data)
						}
					}
				}
				return
			}
		case html.TextNode:
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(trimmed)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return title, b.String()
}
