package intakerepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/clinscribe/intake/internal/domain/intake"
	"github.com/clinscribe/intake/internal/domain/normalizer"
)

// PostgresRepository persists complaints in Postgres with pgvector embeddings.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, complaint intake.Complaint) (intake.Complaint, error) {
	result, err := json.Marshal(complaint.Result)
	if err != nil {
		return intake.Complaint{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO complaints (raw_text, normalized_text, result, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, complaint.RawText, complaint.NormalizedText, result, pgvector.NewVector(complaint.Embedding), complaint.CreatedAt)
	if err := row.Scan(&complaint.ID); err != nil {
		return intake.Complaint{}, err
	}
	return complaint, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (intake.Complaint, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, raw_text, normalized_text, result, embedding, created_at
		FROM complaints
		WHERE id = $1
		LIMIT 1
	`, id)
	complaint, err := scanComplaint(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return intake.Complaint{}, false, nil
		}
		return intake.Complaint{}, false, err
	}
	return complaint, true, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]intake.Complaint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, raw_text, normalized_text, result, embedding, created_at
		FROM complaints
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []intake.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, complaint)
	}
	return complaints, rows.Err()
}

func (r *PostgresRepository) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]intake.SimilarityMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, raw_text, normalized_text, result, embedding, created_at,
			(embedding <-> $1) AS distance
		FROM complaints
		ORDER BY embedding <-> $1 ASC
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []intake.SimilarityMatch
	for rows.Next() {
		var (
			complaint    intake.Complaint
			resultRaw    []byte
			embeddingRaw any
			created      time.Time
			distance     float64
		)
		if err := rows.Scan(&complaint.ID, &complaint.RawText, &complaint.NormalizedText, &resultRaw, &embeddingRaw, &created, &distance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(resultRaw, &complaint.Result); err != nil {
			return nil, err
		}
		parsed, err := normalizeEmbedding(embeddingRaw)
		if err != nil {
			return nil, err
		}
		complaint.Embedding = parsed
		complaint.CreatedAt = created.UTC()
		matches = append(matches, intake.SimilarityMatch{Complaint: complaint, Distance: distance})
	}
	return matches, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (intake.Complaint, error) {
	var (
		complaint    intake.Complaint
		resultRaw    []byte
		embeddingRaw any
		created      time.Time
	)
	if err := row.Scan(&complaint.ID, &complaint.RawText, &complaint.NormalizedText, &resultRaw, &embeddingRaw, &created); err != nil {
		return intake.Complaint{}, err
	}
	var result normalizer.Result
	if err := json.Unmarshal(resultRaw, &result); err != nil {
		return intake.Complaint{}, err
	}
	parsed, err := normalizeEmbedding(embeddingRaw)
	if err != nil {
		return intake.Complaint{}, err
	}
	complaint.Result = result
	complaint.Embedding = parsed
	complaint.CreatedAt = created.UTC()
	return complaint, nil
}

func normalizeEmbedding(raw any) ([]float32, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case pgvector.Vector:
		return append([]float32(nil), v.Slice()...), nil
	case []float32:
		return append([]float32(nil), v...), nil
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(v)
		trimmed = strings.TrimPrefix(trimmed, "[")
		trimmed = strings.TrimSuffix(trimmed, "]")
		if trimmed == "" {
			return nil, nil
		}
		parts := strings.Split(trimmed, ",")
		out := make([]float32, 0, len(parts))
		for _, p := range parts {
			numStr := strings.TrimSpace(p)
			if numStr == "" {
				continue
			}
			f, err := strconv.ParseFloat(numStr, 32)
			if err != nil {
				return nil, err
			}
			out = append(out, float32(f))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported embedding type %T", raw)
	}
}

var _ intake.Repository = (*PostgresRepository)(nil)
