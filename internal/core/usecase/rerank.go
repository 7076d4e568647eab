package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

// RerankWeights are the heuristic bonuses and penalties applied on top of the
// raw vector similarity. The defaults define observable ranking behavior and
// are not meant to be tuned per deployment.
type RerankWeights struct {
	ExactMatchBonus       float64
	TitleMatchBonus       float64
	StructuredSourceBonus float64
	RecencyBonus          float64
	RecencyWindow         time.Duration
	ShortContentPenalty   float64
	ShortContentChars     int
	LongContentPenalty    float64
	LongContentChars      int
}

func DefaultRerankWeights() RerankWeights {
	return RerankWeights{
		ExactMatchBonus:       20,
		TitleMatchBonus:       15,
		StructuredSourceBonus: 5,
		RecencyBonus:          3,
		RecencyWindow:         7 * 24 * time.Hour,
		ShortContentPenalty:   10,
		ShortContentChars:     50,
		LongContentPenalty:    5,
		LongContentChars:      2000,
	}
}

// rankCandidates reorders raw similarity-search candidates by a composite
// relevance score and cuts the list to limit. Pure: identical inputs and the
// same clock value always produce identical output. A malformed candidate
// (missing content or distance) scores with what it has instead of failing
// the whole query.
func rankCandidates(
	query string,
	candidates []domain.CandidateResult,
	limit int,
	now time.Time,
	weights RerankWeights,
) []domain.RankedResult {
	if len(candidates) == 0 {
		return nil
	}

	queryLower := strings.ToLower(query)

	ranked := make([]domain.RankedResult, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, domain.RankedResult{
			CandidateResult: candidate,
			RelevanceScore:  scoreCandidate(queryLower, candidate, now, weights),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RelevanceScore != ranked[j].RelevanceScore {
			return ranked[i].RelevanceScore > ranked[j].RelevanceScore
		}
		return ranked[i].OriginalRank < ranked[j].OriginalRank
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func scoreCandidate(queryLower string, candidate domain.CandidateResult, now time.Time, w RerankWeights) float64 {
	score := 0.0

	if candidate.Distance != nil {
		score += (1 - *candidate.Distance) * 100
	}

	contentLower := strings.ToLower(candidate.Content)
	if queryLower != "" && strings.Contains(contentLower, queryLower) {
		score += w.ExactMatchBonus
	}

	if title := strings.ToLower(candidate.Metadata.Title); title != "" && queryLower != "" && strings.Contains(title, queryLower) {
		score += w.TitleMatchBonus
	}

	// PDFs tend to carry denser, structured content than scraped pages.
	if strings.EqualFold(candidate.Metadata.FileType, "pdf") {
		score += w.StructuredSourceBonus
	}

	if processedAt := candidate.Metadata.ProcessedAt; !processedAt.IsZero() && now.Sub(processedAt) < w.RecencyWindow {
		score += w.RecencyBonus
	}

	switch length := len(candidate.Content); {
	case length < w.ShortContentChars:
		score -= w.ShortContentPenalty
	case length > w.LongContentChars:
		score -= w.LongContentPenalty
	}

	if score < 0 {
		return 0
	}
	return score
}
