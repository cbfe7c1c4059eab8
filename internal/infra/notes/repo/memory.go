package repo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/clinscribe/intake/internal/domain/notes"
)

// MemoryRepository keeps notes in process memory for tests/dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]domain.Note
}

// NewMemoryRepository constructs the in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notes: make(map[uuid.UUID]domain.Note)}
}

func (r *MemoryRepository) Create(_ context.Context, note domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.notes[note.ID]; exists {
		return errors.New("note already exists")
	}
	r.notes[note.ID] = note
	return nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.Status, failureReason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if !ok {
		return errors.New("note not found")
	}
	note.Status = status
	note.FailureReason = failureReason
	note.UpdatedAt = time.Now().UTC()
	r.notes[id] = note
	return nil
}

func (r *MemoryRepository) MarkProcessed(_ context.Context, id uuid.UUID, complaintCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if !ok {
		return errors.New("note not found")
	}
	note.Status = domain.StatusProcessed
	note.FailureReason = nil
	note.ComplaintCount = complaintCount
	note.UpdatedAt = time.Now().UTC()
	r.notes[id] = note
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID, clinicianID int64) (domain.Note, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	note, ok := r.notes[id]
	if !ok || note.ClinicianID != clinicianID {
		return domain.Note{}, false, nil
	}
	return note, true, nil
}

func (r *MemoryRepository) List(_ context.Context, clinicianID int64) ([]domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Note
	for _, note := range r.notes {
		if note.ClinicianID == clinicianID {
			out = append(out, note)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var _ domain.Repository = (*MemoryRepository)(nil)
