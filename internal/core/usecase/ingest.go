package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sachinkm/notebook-assistant/internal/core/admission"
	"github.com/sachinkm/notebook-assistant/internal/core/domain"
	"github.com/sachinkm/notebook-assistant/internal/core/ports"
)

// IngestSourceUseCase registers new knowledge sources. Every entry point runs
// the admission filter before anything is persisted; a blocked source never
// reaches storage or the queue.
type IngestSourceUseCase struct {
	repo    ports.SourceRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	filter  *admission.Filter
	logger  *slog.Logger
	now     func() time.Time
}

func NewIngestSourceUseCase(
	repo ports.SourceRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	filter *admission.Filter,
	logger *slog.Logger,
) *IngestSourceUseCase {
	if filter == nil {
		filter = admission.NewFilter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestSourceUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		filter:  filter,
		logger:  logger,
		now:     time.Now,
	}
}

func (uc *IngestSourceUseCase) UploadFile(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Source, error) {
	if filename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload file", errors.New("filename is required"))
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload file", errors.New("file is empty"))
	}

	// Plain-text formats can be screened before extraction; binary formats
	// are re-checked by the worker once their text is out.
	if isTextual(filename, mimeType) {
		if verdict := uc.filter.CheckText(string(data)); verdict.Blocked {
			return nil, blockedError("upload file", verdict)
		}
	}

	src := &domain.Source{
		ID:        uuid.NewString(),
		Kind:      domain.SourceFile,
		Filename:  filename,
		MimeType:  mimeType,
		Status:    domain.StatusUploaded,
		CreatedAt: uc.now(),
		UpdatedAt: uc.now(),
	}
	src.StoragePath = src.ID + filepath.Ext(filename)

	if err := uc.storage.Save(ctx, src.StoragePath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	return uc.register(ctx, src)
}

func (uc *IngestSourceUseCase) RegisterWebsite(ctx context.Context, url, description string) (*domain.Source, error) {
	return uc.registerURL(ctx, domain.SourceWebsite, "register website", url, description)
}

func (uc *IngestSourceUseCase) RegisterYouTube(ctx context.Context, url, description string) (*domain.Source, error) {
	return uc.registerURL(ctx, domain.SourceYouTube, "register youtube", url, description)
}

func (uc *IngestSourceUseCase) registerURL(ctx context.Context, kind domain.SourceKind, operation, url, description string) (*domain.Source, error) {
	if strings.TrimSpace(url) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, errors.New("url is required"))
	}
	if verdict := uc.filter.CheckURL(url); verdict.Blocked {
		return nil, blockedError(operation, verdict)
	}
	if description != "" {
		if verdict := uc.filter.CheckText(description); verdict.Blocked {
			return nil, blockedError(operation, verdict)
		}
	}

	src := &domain.Source{
		ID:          uuid.NewString(),
		Kind:        kind,
		URL:         url,
		Description: description,
		Status:      domain.StatusUploaded,
		CreatedAt:   uc.now(),
		UpdatedAt:   uc.now(),
	}
	return uc.register(ctx, src)
}

func (uc *IngestSourceUseCase) RegisterText(ctx context.Context, content, title string) (*domain.Source, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register text", errors.New("content is required"))
	}
	if verdict := uc.filter.CheckText(content); verdict.Blocked {
		return nil, blockedError("register text", verdict)
	}
	if title != "" {
		if verdict := uc.filter.CheckText(title); verdict.Blocked {
			return nil, blockedError("register text", verdict)
		}
	}

	src := &domain.Source{
		ID:        uuid.NewString(),
		Kind:      domain.SourceText,
		Title:     title,
		MimeType:  "text/plain",
		Status:    domain.StatusUploaded,
		CreatedAt: uc.now(),
		UpdatedAt: uc.now(),
	}
	src.StoragePath = src.ID + ".txt"

	if err := uc.storage.Save(ctx, src.StoragePath, strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("store text: %w", err)
	}
	return uc.register(ctx, src)
}

func (uc *IngestSourceUseCase) register(ctx context.Context, src *domain.Source) (*domain.Source, error) {
	if err := uc.repo.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("persist source: %w", err)
	}
	if err := uc.queue.PublishSourceIngested(ctx, src.ID); err != nil {
		// Source row stays in uploaded state; a requeue sweep can pick it
		// up, so the client still gets its source back.
		uc.logger.Error("failed to enqueue source for processing", "source_id", src.ID, "error", err)
	}
	uc.logger.Info("source registered", "source_id", src.ID, "kind", src.Kind)
	return src, nil
}

func isTextual(filename, mimeType string) bool {
	if strings.Contains(mimeType, "text") {
		return true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".csv":
		return true
	}
	return false
}

func blockedError(operation string, verdict admission.Verdict) error {
	return domain.WrapError(domain.ErrContentBlocked, operation,
		fmt.Errorf("%s (confidence: %s)", verdict.Reason, verdict.Confidence))
}
