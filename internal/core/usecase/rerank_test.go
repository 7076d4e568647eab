package usecase

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

func floatPtr(v float64) *float64 { return &v }

func TestRankCandidatesPrefersExactMatch(t *testing.T) {
	candidates := []domain.CandidateResult{
		{
			Chunk: domain.Chunk{
				Content:  "exact match keyword foo",
				Metadata: domain.ChunkMetadata{Filename: "a.pdf", FileType: "pdf"},
			},
			Distance:     floatPtr(0.1),
			OriginalRank: 1,
		},
		{
			Chunk:        domain.Chunk{Content: "unrelated text"},
			Distance:     floatPtr(0.5),
			OriginalRank: 2,
		},
	}

	ranked := rankCandidates("foo", candidates, 1, time.Now(), DefaultRerankWeights())
	if len(ranked) != 1 {
		t.Fatalf("expected 1 result, got %d", len(ranked))
	}
	if ranked[0].Metadata.Filename != "a.pdf" {
		t.Fatalf("expected a.pdf first, got %q", ranked[0].Metadata.Filename)
	}
	if ranked[0].RelevanceScore <= 0 {
		t.Fatalf("expected positive score, got %f", ranked[0].RelevanceScore)
	}
}

func TestRankCandidatesEmptyInput(t *testing.T) {
	if out := rankCandidates("q", nil, 5, time.Now(), DefaultRerankWeights()); len(out) != 0 {
		t.Fatalf("expected empty output, got %d", len(out))
	}
}

func TestRankCandidatesScoresNeverNegative(t *testing.T) {
	candidates := []domain.CandidateResult{
		{Chunk: domain.Chunk{Content: "tiny"}, OriginalRank: 1},
		{Chunk: domain.Chunk{Content: ""}, OriginalRank: 2},
	}
	for _, r := range rankCandidates("query", candidates, 10, time.Now(), DefaultRerankWeights()) {
		if r.RelevanceScore < 0 {
			t.Fatalf("score went negative: %f", r.RelevanceScore)
		}
	}
}

func TestRankCandidatesTieBreakKeepsOriginalOrder(t *testing.T) {
	// Identical candidates score identically; the earlier search rank wins.
	candidates := []domain.CandidateResult{
		{Chunk: domain.Chunk{Content: "same content same length padding padding padding padding"}, Distance: floatPtr(0.3), OriginalRank: 1},
		{Chunk: domain.Chunk{Content: "same content same length padding padding padding padding"}, Distance: floatPtr(0.3), OriginalRank: 2},
	}

	ranked := rankCandidates("nomatch", candidates, 2, time.Now(), DefaultRerankWeights())
	if ranked[0].OriginalRank != 1 || ranked[1].OriginalRank != 2 {
		t.Fatalf("tie-break reordered candidates: %d then %d", ranked[0].OriginalRank, ranked[1].OriginalRank)
	}
}

func TestRankCandidatesBonusesAndPenalties(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	longContent := make([]byte, 2101)
	for i := range longContent {
		longContent[i] = 'x'
	}

	tests := []struct {
		name      string
		candidate domain.CandidateResult
		want      float64
	}{
		{
			name: "base from distance only",
			candidate: domain.CandidateResult{
				Chunk:    domain.Chunk{Content: stringOfLength(100)},
				Distance: floatPtr(0.2),
			},
			want: 80,
		},
		{
			name: "no distance scores zero base",
			candidate: domain.CandidateResult{
				Chunk: domain.Chunk{Content: stringOfLength(100)},
			},
			want: 0,
		},
		{
			name: "title match bonus",
			candidate: domain.CandidateResult{
				Chunk: domain.Chunk{
					Content:  stringOfLength(100),
					Metadata: domain.ChunkMetadata{Title: "all about foo things"},
				},
				Distance: floatPtr(0.5),
			},
			want: 50 + 15,
		},
		{
			name: "pdf and recency bonuses",
			candidate: domain.CandidateResult{
				Chunk: domain.Chunk{
					Content: stringOfLength(100),
					Metadata: domain.ChunkMetadata{
						FileType:    "pdf",
						ProcessedAt: now.Add(-24 * time.Hour),
					},
				},
				Distance: floatPtr(0.5),
			},
			want: 50 + 5 + 3,
		},
		{
			name: "stale pdf misses recency",
			candidate: domain.CandidateResult{
				Chunk: domain.Chunk{
					Content: stringOfLength(100),
					Metadata: domain.ChunkMetadata{
						FileType:    "pdf",
						ProcessedAt: now.Add(-8 * 24 * time.Hour),
					},
				},
				Distance: floatPtr(0.5),
			},
			want: 50 + 5,
		},
		{
			name: "short content penalty",
			candidate: domain.CandidateResult{
				Chunk:    domain.Chunk{Content: "short"},
				Distance: floatPtr(0.5),
			},
			want: 50 - 10,
		},
		{
			name: "long content penalty",
			candidate: domain.CandidateResult{
				Chunk:    domain.Chunk{Content: string(longContent)},
				Distance: floatPtr(0.5),
			},
			want: 50 - 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := rankCandidates("foo", []domain.CandidateResult{tt.candidate}, 1, now, DefaultRerankWeights())
			got := ranked[0].RelevanceScore
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("score = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRankCandidatesDeterministic(t *testing.T) {
	now := time.Now()
	candidates := make([]domain.CandidateResult, 0, 8)
	for i := 0; i < 8; i++ {
		candidates = append(candidates, domain.CandidateResult{
			Chunk:        domain.Chunk{Content: fmt.Sprintf("candidate %d talks about databases %s", i, stringOfLength(60))},
			Distance:     floatPtr(float64(i) / 10),
			OriginalRank: i + 1,
		})
	}

	first := rankCandidates("databases", candidates, 5, now, DefaultRerankWeights())
	second := rankCandidates("databases", candidates, 5, now, DefaultRerankWeights())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input produced different rankings")
	}
	if len(first) != 5 {
		t.Fatalf("expected truncation to 5, got %d", len(first))
	}
}

func stringOfLength(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
