package domain

import "time"

type SourceKind string

const (
	SourceFile    SourceKind = "file"
	SourceWebsite SourceKind = "website"
	SourceYouTube SourceKind = "youtube"
	SourceText    SourceKind = "text"
)

type SourceStatus string

const (
	StatusUploaded   SourceStatus = "uploaded"
	StatusProcessing SourceStatus = "processing"
	StatusReady      SourceStatus = "ready"
	StatusFailed     SourceStatus = "failed"
	StatusBlocked    SourceStatus = "blocked"
)

// Source is one user-supplied knowledge source: an uploaded file, a web page,
// a video or a pasted text snippet. Chunks in the vector index reference it
// through their metadata.
type Source struct {
	ID          string       `json:"id"`
	Kind        SourceKind   `json:"kind"`
	Filename    string       `json:"filename,omitempty"`
	MimeType    string       `json:"mime_type,omitempty"`
	URL         string       `json:"url,omitempty"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	StoragePath string       `json:"storage_path,omitempty"`
	Status      SourceStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
	ChunkCount  int          `json:"chunk_count"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ExtractedSegment is one unit of extracted plain text. File formats with an
// internal page structure (PDF) produce one segment per page so citations can
// carry page numbers.
type ExtractedSegment struct {
	Text       string
	PageNumber int
	Title      string
}
