package domain

import "time"

// ChunkMetadata is the structured provenance record attached to every indexed
// chunk. Fields are optional per source kind: files carry Filename/FileType,
// websites and videos carry URL/Title, PDF pages carry PageNumber.
type ChunkMetadata struct {
	SourceID    string     `json:"source_id"`
	SourceType  SourceKind `json:"source_type"`
	FileType    string     `json:"file_type,omitempty"`
	Filename    string     `json:"filename,omitempty"`
	URL         string     `json:"url,omitempty"`
	Title       string     `json:"title,omitempty"`
	PageNumber  int        `json:"page_number,omitempty"`
	ProcessedAt time.Time  `json:"processed_at"`
}

type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Citation returns the label used when attributing the chunk in an answer:
// filename for file sources, URL otherwise.
func (c Chunk) Citation() string {
	if c.Metadata.Filename != "" {
		return c.Metadata.Filename
	}
	return c.Metadata.URL
}

// CandidateResult is a chunk as returned by vector similarity search.
// Distance is collaborator-supplied dissimilarity (lower = more similar) and
// is nil when the backend did not report one. OriginalRank is the 1-based
// position in the search result list.
type CandidateResult struct {
	Chunk
	Distance     *float64 `json:"distance,omitempty"`
	OriginalRank int      `json:"original_rank"`
}

// RankedResult is a candidate with its composite relevance score, always >= 0.
type RankedResult struct {
	CandidateResult
	RelevanceScore float64 `json:"relevance_score"`
}

// ChatAnswer is the chat endpoint result: the composed response plus the
// citation labels of the results it was built from.
type ChatAnswer struct {
	SessionID string   `json:"session_id"`
	Response  string   `json:"response"`
	Sources   []string `json:"sources"`
}
