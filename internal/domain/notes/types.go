package notes

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a note through its processing lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// Note is an uploaded triage note awaiting complaint extraction.
type Note struct {
	ID             uuid.UUID `json:"id"`
	ClinicianID    int64     `json:"clinicianId"`
	Title          string    `json:"title"`
	Status         Status    `json:"status"`
	FailureReason  *string   `json:"failureReason,omitempty"`
	StorageKey     string    `json:"-"`
	SizeBytes      int64     `json:"sizeBytes"`
	MimeType       string    `json:"mimeType"`
	ETag           string    `json:"-"`
	ComplaintCount int       `json:"complaintCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StoredObject describes a blob kept in object storage.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// UploadRequest captures a multipart note submission.
type UploadRequest struct {
	Filename string
	Title    string
	MimeType string
	Content  []byte
}

// UploadResponse returns note metadata after enqueueing.
type UploadResponse struct {
	Note Note `json:"note"`
}
