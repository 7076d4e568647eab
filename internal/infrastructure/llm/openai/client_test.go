package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testConfig(baseURL string) Config {
	return Config{BaseURL: baseURL, APIKey: "test-key"}
}

func TestGeneratorSendsChatCompletion(t *testing.T) {
	var payload map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  the answer  "}}]}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(testConfig(server.URL)))
	text, err := gen.Generate(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "the answer" {
		t.Fatalf("expected trimmed answer, got %q", text)
	}
	if auth != "Bearer test-key" {
		t.Fatalf("missing auth header: %q", auth)
	}
	if payload["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %v", payload["model"])
	}
	messages, _ := payload["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected single message, got %v", payload["messages"])
	}
}

func TestGeneratorUnconfiguredFailsFast(t *testing.T) {
	gen := NewGenerator(New(Config{BaseURL: "http://localhost:9"}))
	if _, err := gen.Generate(context.Background(), "p"); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestEmbedOrdersVectorsByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		// Out-of-order response must still map back by index.
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0.2]},
			{"index":0,"embedding":[0.1]}
		]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(testConfig(server.URL)))
	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || vectors[0][0] != 0.1 || vectors[1][0] != 0.2 {
		t.Fatalf("vectors not ordered by index: %v", vectors)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.1]}]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(testConfig(server.URL)))
	if _, err := embedder.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(testConfig(server.URL)))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected typed status error, got %v", err)
	}
}

func TestClassifyRetryableStatuses(t *testing.T) {
	retryable := classifyOpenAIError(&HTTPStatusError{StatusCode: http.StatusTooManyRequests})
	if !retryable.Retryable || !retryable.RecordFailure {
		t.Fatalf("429 should be retryable: %+v", retryable)
	}

	fatal := classifyOpenAIError(&HTTPStatusError{StatusCode: http.StatusUnauthorized})
	if fatal.Retryable {
		t.Fatalf("401 should not be retryable: %+v", fatal)
	}

	canceled := classifyOpenAIError(context.Canceled)
	if canceled.Retryable || canceled.RecordFailure {
		t.Fatalf("cancellation should not count against the breaker: %+v", canceled)
	}
}
