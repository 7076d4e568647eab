// Package bootstrap wires configuration, infrastructure, and use cases into
// a runnable application graph shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sachinkm/notebook-assistant/internal/config"
	"github.com/sachinkm/notebook-assistant/internal/core/admission"
	"github.com/sachinkm/notebook-assistant/internal/core/ports"
	"github.com/sachinkm/notebook-assistant/internal/core/usecase"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/chunking"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/extractor"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/extractor/pdfdoc"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/extractor/spreadsheet"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/extractor/website"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/extractor/youtube"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/llm/noop"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/llm/openai"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/memory/inmem"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/queue/nats"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/repository/postgres"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/resilience"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/storage/localfs"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue  ports.MessageQueue
	Repo   ports.SourceReader
	Memory *inmem.Store

	IngestUC  ports.SourceIngestor
	ProcessUC ports.SourceProcessor
	ChatUC    ports.ChatService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewSourceRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	openaiClient := openai.New(openai.Config{
		BaseURL:           cfg.OpenAIBaseURL,
		APIKey:            cfg.OpenAIAPIKey,
		ChatModel:         cfg.OpenAIChatModel,
		EmbedModel:        cfg.OpenAIEmbedModel,
		RequestsPerSecond: cfg.OpenAIRPS,
		RateBurst:         cfg.OpenAIRateBurst,
	})
	embedder := openai.NewResilientEmbedder(openai.NewEmbedder(openaiClient), executor)

	var generator ports.AnswerGenerator
	if openaiClient.Configured() {
		generator = openai.NewResilientGenerator(openai.NewGenerator(openaiClient), executor)
	} else {
		logger.Warn("no OpenAI API key configured, answers fall back to extractive mode")
		generator = noop.NewGenerator()
	}

	vectorIndex := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	memory := inmem.NewStore(inmem.Config{
		MaxTurns:    cfg.MemoryMaxTurns,
		MaxSessions: cfg.MemoryMaxSessions,
	}, logger)

	filter := admission.NewFilter()

	extractors := extractor.NewRegistry(
		plaintext.NewExtractor(storage),
		pdfdoc.NewExtractor(storage),
		spreadsheet.NewExtractor(storage),
		website.NewExtractor(),
		youtube.NewExtractor(),
	)

	composer := usecase.NewComposer(generator, usecase.ComposeConfig{}, logger)

	ingestUC := usecase.NewIngestSourceUseCase(repo, storage, queue, filter, logger)
	processUC := usecase.NewProcessSourceUseCase(repo, extractors, chunker, embedder, vectorIndex, filter, logger)
	chatUC := usecase.NewChatUseCase(embedder, vectorIndex, memory, composer, usecase.ChatConfig{
		DefaultLimit: cfg.RetrievalLimit,
	}, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:  queue,
		Repo:   repo,
		Memory: memory,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ChatUC:    chatUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
