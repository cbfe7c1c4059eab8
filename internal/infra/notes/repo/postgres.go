package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/clinscribe/intake/internal/domain/notes"
)

// PostgresRepository persists notes in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, note domain.Note) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notes (id, clinician_id, title, status, failure_reason, storage_key, size_bytes, mime_type, etag, complaint_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, note.ID, note.ClinicianID, note.Title, note.Status, note.FailureReason, note.StorageKey, note.SizeBytes, note.MimeType, note.ETag, note.ComplaintCount, note.CreatedAt, note.UpdatedAt)
	return err
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, failureReason *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notes
		SET status = $1, failure_reason = $2, updated_at = NOW()
		WHERE id = $3
	`, status, failureReason, id)
	return err
}

func (r *PostgresRepository) MarkProcessed(ctx context.Context, id uuid.UUID, complaintCount int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notes
		SET status = $1, failure_reason = NULL, complaint_count = $2, updated_at = NOW()
		WHERE id = $3
	`, domain.StatusProcessed, complaintCount, id)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID, clinicianID int64) (domain.Note, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, clinician_id, title, status, failure_reason, storage_key, size_bytes, mime_type, etag, complaint_count, created_at, updated_at
		FROM notes
		WHERE id = $1 AND clinician_id = $2
		LIMIT 1
	`, id, clinicianID)
	note, err := scanNote(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Note{}, false, nil
		}
		return domain.Note{}, false, err
	}
	return note, true, nil
}

func (r *PostgresRepository) List(ctx context.Context, clinicianID int64) ([]domain.Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinician_id, title, status, failure_reason, storage_key, size_bytes, mime_type, etag, complaint_count, created_at, updated_at
		FROM notes
		WHERE clinician_id = $1
		ORDER BY created_at DESC
	`, clinicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (domain.Note, error) {
	var (
		note          domain.Note
		failureReason *string
	)
	if err := row.Scan(&note.ID, &note.ClinicianID, &note.Title, &note.Status, &failureReason, &note.StorageKey, &note.SizeBytes, &note.MimeType, &note.ETag, &note.ComplaintCount, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return domain.Note{}, err
	}
	note.FailureReason = failureReason
	return note, nil
}

var _ domain.Repository = (*PostgresRepository)(nil)
