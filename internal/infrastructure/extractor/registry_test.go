package extractor

import (
	"context"
	"testing"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

type namedExtractor struct{ name string }

func (n *namedExtractor) Extract(context.Context, *domain.Source) ([]domain.ExtractedSegment, error) {
	return []domain.ExtractedSegment{{Text: n.name}}, nil
}

func newTestRegistry() *Registry {
	return NewRegistry(
		&namedExtractor{name: "plaintext"},
		&namedExtractor{name: "pdf"},
		&namedExtractor{name: "spreadsheet"},
		&namedExtractor{name: "website"},
		&namedExtractor{name: "youtube"},
	)
}

func TestRegistryRouting(t *testing.T) {
	tests := []struct {
		name string
		src  *domain.Source
		want string
	}{
		{name: "pdf file", src: &domain.Source{Kind: domain.SourceFile, Filename: "report.PDF"}, want: "pdf"},
		{name: "xlsx file", src: &domain.Source{Kind: domain.SourceFile, Filename: "budget.xlsx"}, want: "spreadsheet"},
		{name: "text file", src: &domain.Source{Kind: domain.SourceFile, Filename: "notes.txt"}, want: "plaintext"},
		{name: "unknown extension", src: &domain.Source{Kind: domain.SourceFile, Filename: "data.log"}, want: "plaintext"},
		{name: "website", src: &domain.Source{Kind: domain.SourceWebsite, URL: "https://example.com"}, want: "website"},
		{name: "youtube", src: &domain.Source{Kind: domain.SourceYouTube, URL: "https://youtube.com/watch?v=a"}, want: "youtube"},
		{name: "pasted text", src: &domain.Source{Kind: domain.SourceText}, want: "plaintext"},
	}

	registry := newTestRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := registry.Extract(context.Background(), tt.src)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if segments[0].Text != tt.want {
				t.Fatalf("routed to %q, want %q", segments[0].Text, tt.want)
			}
		})
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	registry := newTestRegistry()
	if _, err := registry.Extract(context.Background(), &domain.Source{Kind: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
