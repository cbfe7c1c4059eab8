package notes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clinscribe/intake/internal/domain/intake"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(maxBytes int64) (*Service, *stubRepo, *stubStorage, *stubQueue, *stubIntake) {
	repo := newStubRepo()
	storage := newStubStorage()
	queue := &stubQueue{}
	intakeSvc := &stubIntake{}
	svc := NewService(Config{MaxUploadBytes: maxBytes}, repo, storage, queue, intakeSvc, newTestLogger())
	return svc, repo, storage, queue, intakeSvc
}

func TestService_UploadStoresAndEnqueues(t *testing.T) {
	t.Parallel()

	svc, repo, storage, queue, _ := newTestService(1 << 20)

	resp, err := svc.Upload(context.Background(), 7, UploadRequest{
		Filename: "shift notes.txt",
		Content:  []byte("i having fever 2 days\n"),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, resp.Note.Status)
	require.Equal(t, int64(7), resp.Note.ClinicianID)
	require.Equal(t, "shift notes.txt", resp.Note.Title)
	require.Contains(t, resp.Note.StorageKey, "shift_notes.txt")

	_, found, err := repo.Get(context.Background(), resp.Note.ID, 7)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, storage.objects, 1)
	require.Len(t, queue.jobs, 1)
	require.Equal(t, "process_note", queue.jobs[0])
}

func TestService_UploadValidation(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newTestService(16)

	_, err := svc.Upload(context.Background(), 0, UploadRequest{Content: []byte("x")})
	require.Error(t, err)

	_, err = svc.Upload(context.Background(), 1, UploadRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")

	_, err = svc.Upload(context.Background(), 1, UploadRequest{Content: bytes.Repeat([]byte("a"), 32)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "maximum")
}

func TestService_ProcessNoteSubmitsEachLine(t *testing.T) {
	t.Parallel()

	svc, repo, _, _, intakeSvc := newTestService(1 << 20)

	content := "i having fever 2 days\n\nme chest hurt when breath\n"
	resp, err := svc.Upload(context.Background(), 3, UploadRequest{Filename: "triage.txt", Content: []byte(content)})
	require.NoError(t, err)

	require.NoError(t, svc.ProcessNote(context.Background(), resp.Note.ID, 3))

	note, found, err := repo.Get(context.Background(), resp.Note.ID, 3)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, StatusProcessed, note.Status)
	require.Equal(t, 2, note.ComplaintCount)
	require.Equal(t, []string{"i having fever 2 days", "me chest hurt when breath"}, intakeSvc.submitted)
}

func TestService_ProcessNoteIsIdempotentOnceProcessed(t *testing.T) {
	t.Parallel()

	svc, _, _, _, intakeSvc := newTestService(1 << 20)

	resp, err := svc.Upload(context.Background(), 3, UploadRequest{Content: []byte("stomach ache n vomiting\n")})
	require.NoError(t, err)
	require.NoError(t, svc.ProcessNote(context.Background(), resp.Note.ID, 3))
	require.NoError(t, svc.ProcessNote(context.Background(), resp.Note.ID, 3))
	require.Len(t, intakeSvc.submitted, 1)
}

func TestService_ProcessNoteFailsOnEmptyContent(t *testing.T) {
	t.Parallel()

	svc, repo, _, _, _ := newTestService(1 << 20)

	resp, err := svc.Upload(context.Background(), 5, UploadRequest{Content: []byte("   \n\n")})
	require.NoError(t, err)

	err = svc.ProcessNote(context.Background(), resp.Note.ID, 5)
	require.Error(t, err)

	note, found, _ := repo.Get(context.Background(), resp.Note.ID, 5)
	require.True(t, found)
	require.Equal(t, StatusFailed, note.Status)
	require.NotNil(t, note.FailureReason)
}

func TestService_ProcessNoteUnknownNote(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newTestService(1 << 20)

	err := svc.ProcessNote(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

type stubRepo struct {
	mu    sync.Mutex
	notes map[uuid.UUID]Note
}

func newStubRepo() *stubRepo {
	return &stubRepo{notes: make(map[uuid.UUID]Note)}
}

func (r *stubRepo) Create(_ context.Context, note Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[note.ID] = note
	return nil
}

func (r *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status, failureReason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if !ok {
		return errors.New("note missing")
	}
	note.Status = status
	note.FailureReason = failureReason
	note.UpdatedAt = time.Now().UTC()
	r.notes[id] = note
	return nil
}

func (r *stubRepo) MarkProcessed(_ context.Context, id uuid.UUID, complaintCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if !ok {
		return errors.New("note missing")
	}
	note.Status = StatusProcessed
	note.ComplaintCount = complaintCount
	note.FailureReason = nil
	note.UpdatedAt = time.Now().UTC()
	r.notes[id] = note
	return nil
}

func (r *stubRepo) Get(_ context.Context, id uuid.UUID, clinicianID int64) (Note, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if !ok || note.ClinicianID != clinicianID {
		return Note{}, false, nil
	}
	return note, true, nil
}

func (r *stubRepo) List(_ context.Context, clinicianID int64) ([]Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Note
	for _, note := range r.notes {
		if note.ClinicianID == clinicianID {
			out = append(out, note)
		}
	}
	return out, nil
}

type stubStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: make(map[string][]byte)}
}

func (s *stubStorage) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType, ETag: "stub"}, nil
}

func (s *stubStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object missing")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type stubQueue struct {
	mu   sync.Mutex
	jobs []string
}

func (q *stubQueue) Enqueue(_ context.Context, name string, _ any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, name)
	return nil
}

type stubIntake struct {
	mu        sync.Mutex
	submitted []string
}

func (s *stubIntake) Submit(_ context.Context, req intake.Request) (intake.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, req.Text)
	return intake.Response{}, nil
}

func (s *stubIntake) Get(_ context.Context, _ int64) (intake.Complaint, error) {
	return intake.Complaint{}, errors.New("not implemented")
}

func (s *stubIntake) List(_ context.Context, _ int) ([]intake.Complaint, error) {
	return nil, nil
}

func (s *stubIntake) Trending(_ context.Context) ([]intake.TrendingTerm, error) {
	return nil, nil
}
