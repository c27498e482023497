package model

import "time"

// DocumentStatus is the processing state of one uploaded document.
type DocumentStatus string

const (
	StatusPending   DocumentStatus = "pending"
	StatusProcessed DocumentStatus = "processed"
	StatusFailed    DocumentStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s DocumentStatus) Terminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// DocumentUploadRequest is the body of POST /namespaces/:name/documents.
// The file must already be reachable on the service filesystem; upload
// transport is handled by the backend service in front of this one.
type DocumentUploadRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	FilePath   string `json:"file_path" binding:"required"`
	Filename   string `json:"filename" binding:"required"`
}

// DocumentUploadResponse acknowledges an accepted upload. Processing
// continues asynchronously; poll the status endpoint for progress.
type DocumentUploadResponse struct {
	DocumentID string         `json:"document_id"`
	Status     DocumentStatus `json:"status"`
	Message    string         `json:"message"`
}

// StatusRecord tracks one upload through the ingestion pipeline.
type StatusRecord struct {
	DocumentID   string         `json:"document_id"`
	Status       DocumentStatus `json:"status"`
	ChunksCount  int            `json:"chunks_count"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// DocumentDeleteResponse is the body returned after deleting a document's
// chunks from a namespace.
type DocumentDeleteResponse struct {
	DocumentID   string `json:"document_id"`
	DeletedCount int64  `json:"deleted_count"`
}
