package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

type ingestFake struct {
	src *domain.Source
	err error

	uploadedFilename string
	registeredURL    string
	textContent      string
}

func (f *ingestFake) UploadFile(_ context.Context, filename, _ string, body io.Reader) (*domain.Source, error) {
	f.uploadedFilename = filename
	_, _ = io.ReadAll(body)
	return f.src, f.err
}

func (f *ingestFake) RegisterWebsite(_ context.Context, url, _ string) (*domain.Source, error) {
	f.registeredURL = url
	return f.src, f.err
}

func (f *ingestFake) RegisterYouTube(_ context.Context, url, _ string) (*domain.Source, error) {
	f.registeredURL = url
	return f.src, f.err
}

func (f *ingestFake) RegisterText(_ context.Context, content, _ string) (*domain.Source, error) {
	f.textContent = content
	return f.src, f.err
}

type chatFake struct {
	answer *domain.ChatAnswer
	err    error

	sessionID string
	message   string
	limit     int
}

func (f *chatFake) Chat(_ context.Context, sessionID, message string, limit int) (*domain.ChatAnswer, error) {
	f.sessionID = sessionID
	f.message = message
	f.limit = limit
	return f.answer, f.err
}

type readerFake struct {
	src *domain.Source
	err error
}

func (f *readerFake) GetByID(context.Context, string) (*domain.Source, error) {
	return f.src, f.err
}

func newTestRouter(ingest *ingestFake, chat *chatFake, reader *readerFake) http.Handler {
	return NewRouter(ingest, chat, reader, RouterOptions{}).Handler()
}

func acceptedSource() *domain.Source {
	return &domain.Source{ID: "src-1", Kind: domain.SourceFile, Status: domain.StatusUploaded}
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(&ingestFake{}, &chatFake{}, &readerFake{})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestUploadFileAccepted(t *testing.T) {
	ingest := &ingestFake{src: acceptedSource()}
	handler := newTestRouter(ingest, &chatFake{}, &readerFake{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("some notes"))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/sources/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if ingest.uploadedFilename != "notes.txt" {
		t.Fatalf("filename not forwarded: %q", ingest.uploadedFilename)
	}
}

func TestUploadFileMissingPart(t *testing.T) {
	handler := newTestRouter(&ingestFake{}, &chatFake{}, &readerFake{})
	req := httptest.NewRequest(http.MethodPost, "/v1/sources/upload", strings.NewReader("not multipart"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRegisterWebsiteBlockedMapsTo422(t *testing.T) {
	ingest := &ingestFake{err: domain.WrapError(domain.ErrContentBlocked, "register website", errors.New("blocked domain"))}
	handler := newTestRouter(ingest, &chatFake{}, &readerFake{})

	body := `{"url":"http://pornhub.com/x"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sources/website", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "blocked") {
		t.Fatalf("error body missing reason: %s", res.Body.String())
	}
}

func TestRegisterWebsiteRequiresURL(t *testing.T) {
	handler := newTestRouter(&ingestFake{src: acceptedSource()}, &chatFake{}, &readerFake{})
	req := httptest.NewRequest(http.MethodPost, "/v1/sources/website", strings.NewReader(`{"description":"x"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRegisterTextAccepted(t *testing.T) {
	ingest := &ingestFake{src: acceptedSource()}
	handler := newTestRouter(ingest, &chatFake{}, &readerFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/sources/text", strings.NewReader(`{"content":"notes","title":"t"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if ingest.textContent != "notes" {
		t.Fatalf("content not forwarded: %q", ingest.textContent)
	}
}

func TestGetSourceNotFound(t *testing.T) {
	reader := &readerFake{err: domain.WrapError(domain.ErrSourceNotFound, "get source", errors.New("id missing"))}
	handler := newTestRouter(&ingestFake{}, &chatFake{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/sources/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	chat := &chatFake{answer: &domain.ChatAnswer{
		SessionID: "s1",
		Response:  "the answer",
		Sources:   []string{"kb.pdf"},
	}}
	handler := newTestRouter(&ingestFake{}, chat, &readerFake{})

	body := `{"session_id":"s1","message":"what is raft?","limit":3}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if chat.sessionID != "s1" || chat.message != "what is raft?" || chat.limit != 3 {
		t.Fatalf("request not forwarded: %+v", chat)
	}

	var answer domain.ChatAnswer
	if err := json.Unmarshal(res.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if answer.Response != "the answer" || len(answer.Sources) != 1 {
		t.Fatalf("unexpected answer: %+v", answer)
	}
}

func TestChatRequiresMessage(t *testing.T) {
	handler := newTestRouter(&ingestFake{}, &chatFake{}, &readerFake{})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"session_id":"s1"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestChatTemporaryErrorMapsTo503(t *testing.T) {
	chat := &chatFake{err: domain.WrapError(domain.ErrTemporary, "embed", errors.New("upstream down"))}
	handler := newTestRouter(&ingestFake{}, chat, &readerFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message":"q"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	handler := NewRouter(&ingestFake{}, &chatFake{}, &readerFake{}, RouterOptions{
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
	}).Handler()

	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(&ingestFake{}, &chatFake{}, &readerFake{})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/chat", nil))
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
