package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
	"github.com/sachinkm/notebook-assistant/internal/core/ports"
)

type ChatConfig struct {
	// DefaultLimit is the result count used when the caller passes none.
	DefaultLimit int
	// ContextTurns is how many recent turns are fed back into composition.
	ContextTurns int
	// CandidateFactor over-fetches candidates relative to the requested
	// limit so reranking has room to reorder.
	CandidateFactor int
	// CandidateCap bounds the over-fetch regardless of limit.
	CandidateCap int
}

func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		DefaultLimit:    5,
		ContextTurns:    2,
		CandidateFactor: 3,
		CandidateCap:    20,
	}
}

// ChatUseCase answers a question against the indexed sources: embed the
// query, over-fetch candidates, rerank, compose, then record the exchange in
// conversation memory. Retrieval failures abort the request; memory failures
// only lose continuity and are logged, never surfaced.
type ChatUseCase struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	memory   ports.ConversationMemory
	composer *Composer
	weights  RerankWeights
	cfg      ChatConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewChatUseCase(
	embedder ports.Embedder,
	index ports.VectorIndex,
	memory ports.ConversationMemory,
	composer *Composer,
	cfg ChatConfig,
	logger *slog.Logger,
) *ChatUseCase {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if cfg.ContextTurns <= 0 {
		cfg.ContextTurns = 2
	}
	if cfg.CandidateFactor <= 0 {
		cfg.CandidateFactor = 3
	}
	if cfg.CandidateCap <= 0 {
		cfg.CandidateCap = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		embedder: embedder,
		index:    index,
		memory:   memory,
		composer: composer,
		weights:  DefaultRerankWeights(),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (uc *ChatUseCase) Chat(ctx context.Context, sessionID, message string, limit int) (*domain.ChatAnswer, error) {
	if message == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", errors.New("message is required"))
	}
	if limit <= 0 {
		limit = uc.cfg.DefaultLimit
	}

	history := uc.memory.RecentContext(sessionID, uc.cfg.ContextTurns)

	queryVector, err := uc.embedder.EmbedQuery(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	k := limit * uc.cfg.CandidateFactor
	if k > uc.cfg.CandidateCap {
		k = uc.cfg.CandidateCap
	}
	candidates, err := uc.index.Search(ctx, queryVector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := rankCandidates(message, candidates, limit, uc.now(), uc.weights)
	response := uc.composer.Compose(ctx, message, results, history)

	answer := &domain.ChatAnswer{
		SessionID: sessionID,
		Response:  response,
		Sources:   collectCitations(results),
	}

	summary, err := uc.memory.AppendTurn(sessionID, message, response, len(results))
	if err != nil {
		uc.logger.Warn("failed to record conversation turn", "session_id", sessionID, "error", err)
	} else {
		answer.SessionID = summary.SessionID
	}

	return answer, nil
}

func collectCitations(results []domain.RankedResult) []string {
	seen := make(map[string]struct{}, len(results))
	citations := make([]string, 0, len(results))
	for _, result := range results {
		label := result.Citation()
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		citations = append(citations, label)
	}
	return citations
}
