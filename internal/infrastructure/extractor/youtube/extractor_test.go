package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

func TestExtractBuildsSegmentFromOEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "" {
			http.Error(w, "missing url", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"title":"Intro to Raft","author_name":"Dist Systems Channel"}`))
	}))
	defer server.Close()

	extractor := NewExtractorWithEndpoint(server.URL)
	src := &domain.Source{
		URL:         "https://youtube.com/watch?v=abc",
		Description: "consensus walkthrough",
	}
	segments, err := extractor.Extract(context.Background(), src)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(segments))
	}
	if segments[0].Title != "Intro to Raft" {
		t.Fatalf("title = %q", segments[0].Title)
	}
	for _, want := range []string{"Intro to Raft", "Dist Systems Channel", "consensus walkthrough"} {
		if !strings.Contains(segments[0].Text, want) {
			t.Fatalf("segment text missing %q: %q", want, segments[0].Text)
		}
	}
}

func TestExtractOEmbedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	extractor := NewExtractorWithEndpoint(server.URL)
	if _, err := extractor.Extract(context.Background(), &domain.Source{URL: "https://youtube.com/watch?v=x"}); err == nil {
		t.Fatalf("expected error")
	}
}
