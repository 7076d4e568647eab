package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
	"github.com/sachinkm/notebook-assistant/internal/core/ports"
	"github.com/sachinkm/notebook-assistant/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "openai status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("openai %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("openai %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyOpenAIError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	class := classifyOpenAIError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

// ResilientEmbedder wraps the embedder with retry and circuit breaking.
type ResilientEmbedder struct {
	inner    ports.Embedder
	executor *resilience.Executor
}

func NewResilientEmbedder(inner ports.Embedder, executor *resilience.Executor) *ResilientEmbedder {
	return &ResilientEmbedder{inner: inner, executor: executor}
}

func (r *ResilientEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := r.executor.Execute(ctx, "openai_embed", func(ctx context.Context) error {
		vectors, err := r.inner.Embed(ctx, texts)
		if err != nil {
			return err
		}
		out = vectors
		return nil
	}, classifyOpenAIError)
	return out, wrapTemporaryIfNeeded("embed", err)
}

func (r *ResilientEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.executor.Execute(ctx, "openai_embed_query", func(ctx context.Context) error {
		vector, err := r.inner.EmbedQuery(ctx, text)
		if err != nil {
			return err
		}
		out = vector
		return nil
	}, classifyOpenAIError)
	return out, wrapTemporaryIfNeeded("embed query", err)
}

// ResilientGenerator wraps the generator with retry and circuit breaking.
type ResilientGenerator struct {
	inner    ports.AnswerGenerator
	executor *resilience.Executor
}

func NewResilientGenerator(inner ports.AnswerGenerator, executor *resilience.Executor) *ResilientGenerator {
	return &ResilientGenerator{inner: inner, executor: executor}
}

func (r *ResilientGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := r.executor.Execute(ctx, "openai_generate", func(ctx context.Context) error {
		text, err := r.inner.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		out = text
		return nil
	}, classifyOpenAIError)
	return out, wrapTemporaryIfNeeded("generate", err)
}
