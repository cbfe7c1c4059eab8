package notes

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository abstracts note persistence.
type Repository interface {
	Create(ctx context.Context, note Note) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, failureReason *string) error
	MarkProcessed(ctx context.Context, id uuid.UUID, complaintCount int) error
	Get(ctx context.Context, id uuid.UUID, clinicianID int64) (Note, bool, error)
	List(ctx context.Context, clinicianID int64) ([]Note, error)
}

// ObjectStorage stores note blobs.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// JobQueue hands processing work to a background consumer.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}
