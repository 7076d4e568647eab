package httpadapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddlewareEchoesInboundID(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if seen != "req-42" {
		t.Fatalf("context request id = %q, want req-42", seen)
	}
	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("response header = %q, want req-42", got)
	}
}

func TestRequestIDMiddlewareMintsIDWhenAbsent(t *testing.T) {
	handler := requestIDMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if res.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a generated request id on the response")
	}
}

func TestAccessLogMiddlewareUsesInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("service", "api")

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})
	handler := requestIDMiddleware(accessLogMiddleware(logger, inner))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/chat", nil))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v (raw %q)", err, buf.String())
	}
	if record["service"] != "api" {
		t.Fatalf("log record missing service attr: %v", record)
	}
	if record["status"] != float64(http.StatusTeapot) {
		t.Fatalf("log record status = %v, want 418", record["status"])
	}
	if record["bytes"] != float64(len("short and stout")) {
		t.Fatalf("log record bytes = %v", record["bytes"])
	}
	if record["level"] != "WARN" {
		t.Fatalf("4xx should log at warn, got %v", record["level"])
	}
	if record["request_id"] == "" {
		t.Fatalf("log record missing request id: %v", record)
	}
}
