package notes

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clinscribe/intake/internal/domain/intake"
	apperrors "github.com/clinscribe/intake/pkg/errors"
	"github.com/clinscribe/intake/pkg/util"
)

// Config drives upload limits.
type Config struct {
	MaxUploadBytes int64
}

// Service orchestrates note uploads and their background processing.
type Service struct {
	cfg     Config
	repo    Repository
	storage ObjectStorage
	queue   JobQueue
	intake  intake.Service
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg Config, repo Repository, storage ObjectStorage, queue JobQueue, intakeSvc intake.Service, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		repo:    repo,
		storage: storage,
		queue:   queue,
		intake:  intakeSvc,
		logger:  logger.With("component", "notes.service"),
	}
}

// Upload stores the note blob, persists metadata, and enqueues processing.
func (s *Service) Upload(ctx context.Context, clinicianID int64, req UploadRequest) (UploadResponse, error) {
	if clinicianID == 0 {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodeUnauthorized, "missing clinician", nil)
	}
	if len(req.Content) == 0 {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "note content cannot be empty", nil)
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(req.Content)) > s.cfg.MaxUploadBytes {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "note exceeds maximum allowed size", nil)
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = "note.txt"
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = filename
	}
	mime := req.MimeType
	if mime == "" {
		mime = http.DetectContentType(req.Content)
	}

	id := uuid.New()
	storageKey := fmt.Sprintf("notes/%d/%s/%s", clinicianID, id.String(), sanitizeFilename(filename))
	obj, err := s.storage.Put(ctx, storageKey, req.Content, mime)
	if err != nil {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to store note", err)
	}

	now := util.NowUTC()
	note := Note{
		ID:          id,
		ClinicianID: clinicianID,
		Title:       title,
		Status:      StatusPending,
		StorageKey:  obj.Key,
		SizeBytes:   obj.Size,
		MimeType:    obj.MimeType,
		ETag:        obj.ETag,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return UploadResponse{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to persist note", err)
	}

	if s.queue != nil {
		payload := map[string]any{
			"note_id":      note.ID.String(),
			"clinician_id": clinicianID,
		}
		if err := s.queue.Enqueue(ctx, "process_note", payload); err != nil {
			s.logger.Warn("enqueue process_note failed", "error", err)
		}
	}

	return UploadResponse{Note: note}, nil
}

// ProcessNote reads the stored note and submits each non-empty line as a
// complaint through the intake pipeline.
func (s *Service) ProcessNote(ctx context.Context, noteID uuid.UUID, clinicianID int64) error {
	s.logger.Info("process_note start", "note_id", noteID, "clinician_id", clinicianID)
	note, found, err := s.repo.Get(ctx, noteID, clinicianID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to load note", err)
	}
	if !found {
		return apperrors.Wrap(apperrors.CodeNotFound, "note not found", nil)
	}
	if note.Status == StatusProcessed {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, noteID, StatusProcessing, nil); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to update status", err)
	}

	reader, err := s.storage.Get(ctx, note.StorageKey)
	if err != nil {
		reason := "failed to read storage"
		_ = s.repo.UpdateStatus(ctx, noteID, StatusFailed, &reason)
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to fetch stored note", err)
	}
	defer reader.Close()

	count := 0
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := s.intake.Submit(ctx, intake.Request{Text: line}); err != nil {
			s.logger.Warn("line submission failed", "note_id", noteID, "error", err)
			continue
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		reason := "failed to read note content"
		_ = s.repo.UpdateStatus(ctx, noteID, StatusFailed, &reason)
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to scan note", err)
	}
	if count == 0 {
		reason := "no complaints found in note"
		_ = s.repo.UpdateStatus(ctx, noteID, StatusFailed, &reason)
		return apperrors.Wrap(apperrors.CodeInvalidInput, reason, nil)
	}

	if err := s.repo.MarkProcessed(ctx, noteID, count); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to finalize note", err)
	}
	s.logger.Info("process_note complete", "note_id", noteID, "complaints", count)
	return nil
}

// Get fetches a single note scoped to the clinician.
func (s *Service) Get(ctx context.Context, clinicianID int64, noteID uuid.UUID) (Note, error) {
	note, found, err := s.repo.Get(ctx, noteID, clinicianID)
	if err != nil {
		return Note{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to fetch note", err)
	}
	if !found {
		return Note{}, apperrors.Wrap(apperrors.CodeNotFound, "note not found", nil)
	}
	return note, nil
}

// List returns the clinician's notes.
func (s *Service) List(ctx context.Context, clinicianID int64) ([]Note, error) {
	if clinicianID == 0 {
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "missing clinician", nil)
	}
	return s.repo.List(ctx, clinicianID)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		return "file"
	}
	return name
}
