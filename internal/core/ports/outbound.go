package ports

import (
	"context"
	"io"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

// SourceRepository persists and reads source metadata.
type SourceRepository interface {
	Create(ctx context.Context, src *domain.Source) error
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	UpdateStatus(ctx context.Context, id string, status domain.SourceStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, chunkCount int) error
}

// ObjectStorage stores raw uploaded files until the worker extracts them.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes source ingestion events.
type MessageQueue interface {
	PublishSourceIngested(ctx context.Context, sourceID string) error
	SubscribeSourceIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored source into plain-text segments. Formats with
// page structure return one segment per page.
type TextExtractor interface {
	Extract(ctx context.Context, src *domain.Source) ([]domain.ExtractedSegment, error)
}

// Chunker splits segment text into indexable chunks.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex indexes chunks and performs similarity search. Search returns
// candidates ordered by increasing distance and may return fewer than k.
type VectorIndex interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.CandidateResult, error)
}

// AnswerGenerator is the optional external generation capability. A null
// implementation that always fails stands in when none is configured, so the
// composer's deterministic fallback is exercised identically either way.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ConversationMemory is the bounded multi-session turn store. RecentContext
// never fails: unknown sessions yield an empty slice. Reads do not refresh a
// session's eviction position; only writes do.
type ConversationMemory interface {
	AppendTurn(sessionID, query, response string, resultCount int) (domain.SessionSummary, error)
	RecentContext(sessionID string, limit int) []domain.TurnContext
}
