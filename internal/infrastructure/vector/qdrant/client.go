package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
)

// Client talks to Qdrant over its HTTP API. One client owns one collection;
// the collection is created lazily on first upsert with the vector size the
// embedder actually produced.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d vs %d", len(chunks), len(vectors))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID:      uuid.NewString(),
			Vector:  vectors[i],
			Payload: chunkPayload(chunk),
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return nil
}

func (c *Client) Search(ctx context.Context, queryVector []float32, k int) ([]domain.CandidateResult, error) {
	body, err := json.Marshal(map[string]any{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.CandidateResult, 0, len(searchResp.Result))
	for i, r := range searchResp.Result {
		// Qdrant reports cosine similarity; downstream ranking works on
		// distance, lower is closer.
		distance := 1 - r.Score
		out = append(out, domain.CandidateResult{
			Chunk:        chunkFromPayload(r.Payload),
			Distance:     &distance,
			OriginalRank: i + 1,
		})
	}
	return out, nil
}

func chunkPayload(chunk domain.Chunk) map[string]any {
	payload := map[string]any{
		"content":      chunk.Content,
		"source_id":    chunk.Metadata.SourceID,
		"source_type":  string(chunk.Metadata.SourceType),
		"processed_at": chunk.Metadata.ProcessedAt.UTC().Format(time.RFC3339),
	}
	if chunk.Metadata.FileType != "" {
		payload["file_type"] = chunk.Metadata.FileType
	}
	if chunk.Metadata.Filename != "" {
		payload["filename"] = chunk.Metadata.Filename
	}
	if chunk.Metadata.URL != "" {
		payload["url"] = chunk.Metadata.URL
	}
	if chunk.Metadata.Title != "" {
		payload["title"] = chunk.Metadata.Title
	}
	if chunk.Metadata.PageNumber > 0 {
		payload["page_number"] = chunk.Metadata.PageNumber
	}
	return payload
}

func chunkFromPayload(payload map[string]any) domain.Chunk {
	chunk := domain.Chunk{
		Content: getStringPayload(payload, "content"),
		Metadata: domain.ChunkMetadata{
			SourceID:   getStringPayload(payload, "source_id"),
			SourceType: domain.SourceKind(getStringPayload(payload, "source_type")),
			FileType:   getStringPayload(payload, "file_type"),
			Filename:   getStringPayload(payload, "filename"),
			URL:        getStringPayload(payload, "url"),
			Title:      getStringPayload(payload, "title"),
		},
	}
	if v, ok := payload["page_number"].(float64); ok {
		chunk.Metadata.PageNumber = int(v)
	}
	if raw := getStringPayload(payload, "processed_at"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			chunk.Metadata.ProcessedAt = ts
		}
	}
	return chunk
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
