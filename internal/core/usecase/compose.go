package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
	"github.com/sachinkm/notebook-assistant/internal/core/ports"
)

// noKnowledgeMessage is returned whenever retrieval produced nothing. Fixed
// wording so clients can rely on it.
const noKnowledgeMessage = "I don't have information about that in your knowledge base. " +
	"Please try rephrasing your question or check if you have uploaded relevant documents."

type ComposeConfig struct {
	// MaxAdditional caps the context snippets appended after the main answer.
	MaxAdditional int
	// OverlapThreshold is the word-overlap similarity above which an
	// additional result is considered a duplicate of the main answer.
	OverlapThreshold float64
	// SnippetChars is the truncation length for additional snippets.
	SnippetChars int
	// GenerateTimeout bounds a single external generation attempt.
	GenerateTimeout time.Duration
}

func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		MaxAdditional:    2,
		OverlapThreshold: 0.7,
		SnippetChars:     200,
		GenerateTimeout:  30 * time.Second,
	}
}

// Composer turns ranked retrieval results into the final response text. When
// the generator fails or returns nothing, it degrades to a deterministic
// extract-and-cite rendering instead of surfacing the failure to the caller.
type Composer struct {
	generator ports.AnswerGenerator
	cfg       ComposeConfig
	logger    *slog.Logger
}

func NewComposer(generator ports.AnswerGenerator, cfg ComposeConfig, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAdditional <= 0 {
		cfg.MaxAdditional = 2
	}
	if cfg.OverlapThreshold <= 0 {
		cfg.OverlapThreshold = 0.7
	}
	if cfg.SnippetChars <= 0 {
		cfg.SnippetChars = 200
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 30 * time.Second
	}
	return &Composer{generator: generator, cfg: cfg, logger: logger}
}

// Compose never returns an error: the worst outcome is the fixed
// no-knowledge message or the deterministic fallback rendering.
func (c *Composer) Compose(ctx context.Context, query string, results []domain.RankedResult, history []domain.TurnContext) string {
	if len(results) == 0 {
		return noKnowledgeMessage
	}

	if c.generator != nil {
		genCtx, cancel := context.WithTimeout(ctx, c.cfg.GenerateTimeout)
		text, err := c.generator.Generate(genCtx, buildAnswerPrompt(query, results, history))
		cancel()
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil {
			c.logger.Warn("answer generation failed, using extractive fallback", "error", err)
		}
	}

	return c.composeExtractive(results)
}

// composeExtractive renders results without any model: the top chunk verbatim
// plus up to MaxAdditional sufficiently distinct snippets, each cited.
func (c *Composer) composeExtractive(results []domain.RankedResult) string {
	main := results[0]

	if len(results) == 1 {
		return main.Content + "\n\n" + formatCitation(main.Chunk)
	}

	var b strings.Builder
	b.WriteString("Based on your query, here's the most relevant information:\n\n")
	b.WriteString("Main Answer: ")
	b.WriteString(main.Content)
	b.WriteString("\n")
	b.WriteString(formatCitation(main.Chunk))
	b.WriteString("\n")

	included := 0
	wroteHeader := false
	for _, result := range results[1:] {
		if included >= c.cfg.MaxAdditional {
			break
		}
		if wordOverlapSimilarity(main.Content, result.Content) >= c.cfg.OverlapThreshold {
			continue
		}
		if !wroteHeader {
			b.WriteString("\nAdditional Context:\n")
			wroteHeader = true
		}
		included++
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", included, snippet(result.Content, c.cfg.SnippetChars), formatCitation(result.Chunk))
	}

	return strings.TrimRight(b.String(), "\n")
}

// snippet truncates on rune boundaries so multibyte text never ends up as
// broken UTF-8 in the answer.
func snippet(content string, max int) string {
	if len(content) <= max {
		return content
	}
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}

func formatCitation(chunk domain.Chunk) string {
	label := chunk.Citation()
	if label == "" {
		label = "unknown"
	}
	citation := "Source: " + label
	if chunk.Metadata.PageNumber > 0 {
		citation += fmt.Sprintf(" (Page %d)", chunk.Metadata.PageNumber)
	}
	return citation
}

// wordOverlapSimilarity is the share of a's words (duplicates counted) found
// anywhere in b, divided by the size of the combined distinct vocabulary.
// Asymmetric on purpose: a near-subset of the main answer is a duplicate even
// if the main answer says more.
func wordOverlapSimilarity(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1
	}

	inB := make(map[string]struct{}, len(wordsB))
	for _, word := range wordsB {
		inB[word] = struct{}{}
	}

	common := 0
	vocabulary := make(map[string]struct{}, len(wordsA)+len(wordsB))
	for _, word := range wordsA {
		if _, ok := inB[word]; ok {
			common++
		}
		vocabulary[word] = struct{}{}
	}
	for _, word := range wordsB {
		vocabulary[word] = struct{}{}
	}

	if len(vocabulary) == 0 {
		return 0
	}
	return float64(common) / float64(len(vocabulary))
}

// buildAnswerPrompt lays out numbered source excerpts and the recent
// conversation for the generator, with instructions that keep answers grounded
// in the excerpts.
func buildAnswerPrompt(query string, results []domain.RankedResult, history []domain.TurnContext) string {
	var sources strings.Builder
	for i, result := range results {
		label := result.Citation()
		if label == "" {
			label = "unknown"
		}
		pageInfo := ""
		if result.Metadata.PageNumber > 0 {
			pageInfo = fmt.Sprintf(" (Page %d)", result.Metadata.PageNumber)
		}
		fmt.Fprintf(&sources, "Source %d: %s%s\nContent: %s\n\n", i+1, label, pageInfo, result.Content)
	}

	conversation := "No previous conversation context."
	if len(history) > 0 {
		var turns []string
		for _, turn := range history {
			turns = append(turns, fmt.Sprintf("Previous Q: %s\nPrevious A: %s", turn.Query, turn.Response))
		}
		conversation = strings.Join(turns, "\n\n")
	}

	return fmt.Sprintf(`You are an AI assistant for a personal knowledge base. Answer the user's question using ONLY the information provided in the sources below.

Conversation context:
%s

Sources:
%s
Question: %s

Instructions:
- Answer based solely on the provided sources
- Cite sources by their filename or URL when you use them
- If the sources don't contain enough information, say so plainly
- Keep the answer between 200 and 500 words
- Do not invent facts that are not in the sources

Answer:`, conversation, sources.String(), query)
}
