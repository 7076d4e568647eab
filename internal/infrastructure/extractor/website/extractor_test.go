package website

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

func TestExtractStripsMarkupAndScripts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>
<head><title>Release Notes</title><style>body{color:red}</style></head>
<body>
<script>var tracking = true;</script>
<h1>Version 2.0</h1>
<p>Adds incremental sync and offline mode.</p>
</body></html>`))
	}))
	defer server.Close()

	extractor := NewExtractor()
	segments, err := extractor.Extract(context.Background(), &domain.Source{URL: server.URL})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(segments))
	}
	if segments[0].Title != "Release Notes" {
		t.Fatalf("title = %q", segments[0].Title)
	}
	if !strings.Contains(segments[0].Text, "incremental sync") {
		t.Fatalf("body text missing: %q", segments[0].Text)
	}
	if strings.Contains(segments[0].Text, "tracking") || strings.Contains(segments[0].Text, "color:red") {
		t.Fatalf("script/style leaked into text: %q", segments[0].Text)
	}
}

func TestExtractNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	extractor := NewExtractor()
	if _, err := extractor.Extract(context.Background(), &domain.Source{URL: server.URL}); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}
