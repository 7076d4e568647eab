package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/sachinkm/notebook-assistant/internal/core/admission"
	"github.com/sachinkm/notebook-assistant/internal/core/domain"
	"github.com/sachinkm/notebook-assistant/internal/core/ports"
)

// ProcessSourceUseCase runs the asynchronous pipeline for one registered
// source: extract text, re-screen it, chunk, embed and index. Extraction can
// reveal text the ingest-time screening never saw (PDF pages, scraped HTML),
// so admission runs again here and a hit parks the source as blocked.
type ProcessSourceUseCase struct {
	repo      ports.SourceRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.VectorIndex
	filter    *admission.Filter
	logger    *slog.Logger
	now       func() time.Time
}

func NewProcessSourceUseCase(
	repo ports.SourceRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	filter *admission.Filter,
	logger *slog.Logger,
) *ProcessSourceUseCase {
	if filter == nil {
		filter = admission.NewFilter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessSourceUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		filter:    filter,
		logger:    logger,
		now:       time.Now,
	}
}

func (uc *ProcessSourceUseCase) ProcessByID(ctx context.Context, sourceID string) error {
	src, err := uc.repo.GetByID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load source %s: %w", sourceID, err)
	}

	if err := uc.repo.UpdateStatus(ctx, src.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark source processing: %w", err)
	}

	segments, err := uc.extractor.Extract(ctx, src)
	if err != nil {
		return uc.fail(ctx, src.ID, fmt.Errorf("extract text: %w", err))
	}

	segments = nonEmptySegments(segments)
	if len(segments) == 0 {
		return uc.fail(ctx, src.ID, domain.WrapError(domain.ErrInvalidInput, "process source",
			errors.New("no text content extracted")))
	}

	if verdict := uc.screen(segments); verdict.Blocked {
		reason := fmt.Sprintf("%s (confidence: %s)", verdict.Reason, verdict.Confidence)
		if err := uc.repo.UpdateStatus(ctx, src.ID, domain.StatusBlocked, reason); err != nil {
			return fmt.Errorf("mark source blocked: %w", err)
		}
		uc.logger.Warn("source blocked after extraction", "source_id", src.ID, "reason", verdict.Reason)
		return domain.WrapError(domain.ErrContentBlocked, "process source", errors.New(reason))
	}

	chunks := uc.buildChunks(src, segments)
	if len(chunks) == 0 {
		return uc.fail(ctx, src.ID, domain.WrapError(domain.ErrInvalidInput, "process source",
			errors.New("chunking produced no content")))
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return uc.fail(ctx, src.ID, fmt.Errorf("embed chunks: %w", err))
	}
	if len(vectors) != len(chunks) {
		return uc.fail(ctx, src.ID, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	if err := uc.index.IndexChunks(ctx, chunks, vectors); err != nil {
		return uc.fail(ctx, src.ID, fmt.Errorf("index chunks: %w", err))
	}

	if err := uc.repo.SetChunkCount(ctx, src.ID, len(chunks)); err != nil {
		return uc.fail(ctx, src.ID, fmt.Errorf("record chunk count: %w", err))
	}
	if err := uc.repo.UpdateStatus(ctx, src.ID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("mark source ready: %w", err)
	}

	uc.logger.Info("source processed", "source_id", src.ID, "kind", src.Kind, "chunks", len(chunks))
	return nil
}

// screen concatenates the extracted text and runs it through the admission
// filter a second time.
func (uc *ProcessSourceUseCase) screen(segments []domain.ExtractedSegment) admission.Verdict {
	var b strings.Builder
	for i, segment := range segments {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(segment.Text)
	}
	return uc.filter.CheckText(b.String())
}

func (uc *ProcessSourceUseCase) buildChunks(src *domain.Source, segments []domain.ExtractedSegment) []domain.Chunk {
	processedAt := uc.now()
	fileType := fileTypeOf(src)

	var chunks []domain.Chunk
	for _, segment := range segments {
		title := segment.Title
		if title == "" {
			title = src.Title
		}
		for _, piece := range uc.chunker.Split(segment.Text) {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				Content: piece,
				Metadata: domain.ChunkMetadata{
					SourceID:    src.ID,
					SourceType:  src.Kind,
					FileType:    fileType,
					Filename:    src.Filename,
					URL:         src.URL,
					Title:       title,
					PageNumber:  segment.PageNumber,
					ProcessedAt: processedAt,
				},
			})
		}
	}
	return chunks
}

func (uc *ProcessSourceUseCase) fail(ctx context.Context, sourceID string, cause error) error {
	if err := uc.repo.UpdateStatus(ctx, sourceID, domain.StatusFailed, cause.Error()); err != nil {
		uc.logger.Error("failed to mark source failed", "source_id", sourceID, "error", err)
	}
	return cause
}

func nonEmptySegments(segments []domain.ExtractedSegment) []domain.ExtractedSegment {
	kept := segments[:0]
	for _, segment := range segments {
		if strings.TrimSpace(segment.Text) != "" {
			kept = append(kept, segment)
		}
	}
	return kept
}

func fileTypeOf(src *domain.Source) string {
	switch src.Kind {
	case domain.SourceWebsite:
		return "website"
	case domain.SourceYouTube:
		return "youtube"
	case domain.SourceText:
		return "text"
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(src.Filename)), ".")
	if ext == "" {
		return "file"
	}
	return ext
}
