// Package httpadapter exposes the ingestion and chat use cases over HTTP.
package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
	"github.com/sachinkm/notebook-assistant/internal/core/ports"
	"github.com/sachinkm/notebook-assistant/internal/observability/metrics"
)

type RouterOptions struct {
	ServiceName string
	// Logger receives the access log; nil falls back to slog.Default().
	Logger         *slog.Logger
	Metrics        *metrics.HTTPServerMetrics
	MetricsHandler http.Handler
	// RateLimitRPS throttles the whole API surface; zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
	// MaxUploadBytes caps multipart upload size. Defaults to 32 MiB.
	MaxUploadBytes int64
}

type Router struct {
	ingest ports.SourceIngestor
	chat   ports.ChatService
	reader ports.SourceReader
	opts   RouterOptions
}

func NewRouter(ingest ports.SourceIngestor, chat ports.ChatService, reader ports.SourceReader, opts RouterOptions) *Router {
	if opts.ServiceName == "" {
		opts.ServiceName = "api"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &Router{ingest: ingest, chat: chat, reader: reader, opts: opts}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/sources/upload", rt.uploadFile)
	mux.HandleFunc("/v1/sources/website", rt.registerWebsite)
	mux.HandleFunc("/v1/sources/youtube", rt.registerYouTube)
	mux.HandleFunc("/v1/sources/text", rt.registerText)
	mux.HandleFunc("/v1/sources/", rt.getSourceByID)
	mux.HandleFunc("/v1/chat", rt.chatEndpoint)
	if rt.opts.MetricsHandler != nil {
		mux.Handle("/metrics", rt.opts.MetricsHandler)
	}

	var handler http.Handler = mux
	if rt.opts.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(rt.opts.RateLimitRPS, rt.opts.RateLimitBurst, handler)
	}
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(rt.opts.ServiceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.opts.Logger, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	src, err := rt.ingest.UploadFile(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeFailure(w, "upload", err)
		return
	}

	rt.recordRegistered(src)
	writeJSON(w, http.StatusAccepted, src)
}

func (rt *Router) registerWebsite(w http.ResponseWriter, r *http.Request) {
	rt.registerURL(w, r, "website", rt.ingest.RegisterWebsite)
}

func (rt *Router) registerYouTube(w http.ResponseWriter, r *http.Request) {
	rt.registerURL(w, r, "youtube", rt.ingest.RegisterYouTube)
}

func (rt *Router) registerURL(
	w http.ResponseWriter,
	r *http.Request,
	stage string,
	register func(ctx context.Context, url, description string) (*domain.Source, error),
) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		URL         string `json:"url"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	src, err := register(r.Context(), req.URL, req.Description)
	if err != nil {
		rt.writeFailure(w, stage, err)
		return
	}

	rt.recordRegistered(src)
	writeJSON(w, http.StatusAccepted, src)
}

func (rt *Router) registerText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Content string `json:"content"`
		Title   string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	src, err := rt.ingest.RegisterText(r.Context(), req.Content, req.Title)
	if err != nil {
		rt.writeFailure(w, "text", err)
		return
	}

	rt.recordRegistered(src)
	writeJSON(w, http.StatusAccepted, src)
}

func (rt *Router) getSourceByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/sources/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "source id is required")
		return
	}

	src, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		rt.writeFailure(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (rt *Router) chatEndpoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
		Limit     int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	start := time.Now()
	answer, err := rt.chat.Chat(r.Context(), req.SessionID, req.Message, req.Limit)
	if err != nil {
		rt.writeFailure(w, "chat", err)
		return
	}

	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordChat(rt.opts.ServiceName, len(answer.Sources), time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) writeFailure(w http.ResponseWriter, stage string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status == http.StatusUnprocessableEntity && rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordAdmissionBlock(rt.opts.ServiceName, stage)
	}
	writeError(w, status, err.Error())
}

func (rt *Router) recordRegistered(src *domain.Source) {
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordSourceRegistered(rt.opts.ServiceName, string(src.Kind))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
