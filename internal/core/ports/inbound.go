package ports

import (
	"context"
	"io"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

// SourceIngestor is the inbound contract for source registration. Every entry
// point runs the admission filter before anything is stored or queued.
type SourceIngestor interface {
	UploadFile(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Source, error)
	RegisterWebsite(ctx context.Context, url, description string) (*domain.Source, error)
	RegisterYouTube(ctx context.Context, url, description string) (*domain.Source, error)
	RegisterText(ctx context.Context, content, title string) (*domain.Source, error)
}

// SourceProcessor is the inbound contract for asynchronous source processing.
type SourceProcessor interface {
	ProcessByID(ctx context.Context, sourceID string) error
}

// ChatService answers a question against the indexed sources within a session.
type ChatService interface {
	Chat(ctx context.Context, sessionID, message string, limit int) (*domain.ChatAnswer, error)
}

// SourceReader is the inbound read model for source metadata.
type SourceReader interface {
	GetByID(ctx context.Context, id string) (*domain.Source, error)
}
