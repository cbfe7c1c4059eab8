package clinicianrepo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinscribe/intake/internal/domain/auth"
)

// PostgresRepository persists clinician accounts and their SSO identities.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ auth.Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(pool *pgxpool.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		pool:   pool,
		logger: logger.With("component", "clinicianrepo.postgres"),
	}
}

func (r *PostgresRepository) Create(ctx context.Context, email, name, passwordHash string) (auth.Clinician, error) {
	const query = `
		INSERT INTO clinicians (email, name, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, email, name, password_hash, created_at
	`
	row := r.pool.QueryRow(ctx, query, email, name, passwordHash)
	clinician, err := scanClinician(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.Clinician{}, auth.ErrEmailExists
		}
		return auth.Clinician{}, err
	}
	return clinician, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.Clinician, bool, error) {
	const query = `
		SELECT id, email, name, password_hash, created_at
		FROM clinicians
		WHERE email = $1
	`
	clinician, err := scanClinician(r.pool.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Clinician{}, false, nil
	}
	if err != nil {
		return auth.Clinician{}, false, err
	}
	return clinician, true, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (auth.Clinician, bool, error) {
	const query = `
		SELECT id, email, name, password_hash, created_at
		FROM clinicians
		WHERE id = $1
	`
	clinician, err := scanClinician(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Clinician{}, false, nil
	}
	if err != nil {
		return auth.Clinician{}, false, err
	}
	return clinician, true, nil
}

func (r *PostgresRepository) GetIdentity(ctx context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	const query = `
		SELECT id, clinician_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM clinician_identities
		WHERE provider = $1 AND provider_subject = $2
	`
	identity, err := scanIdentity(r.pool.QueryRow(ctx, query, provider, providerSubject))
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return identity, true, nil
}

func (r *PostgresRepository) GetIdentityByClinician(ctx context.Context, clinicianID int64, provider string) (auth.Identity, bool, error) {
	const query = `
		SELECT id, clinician_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM clinician_identities
		WHERE clinician_id = $1 AND provider = $2
	`
	identity, err := scanIdentity(r.pool.QueryRow(ctx, query, clinicianID, provider))
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return identity, true, nil
}

func (r *PostgresRepository) UpsertIdentity(ctx context.Context, identity auth.Identity) (auth.Identity, error) {
	const query = `
		INSERT INTO clinician_identities (clinician_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW(), NOW())
		ON CONFLICT (provider, provider_subject) DO UPDATE SET
			provider_email = EXCLUDED.provider_email,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), clinician_identities.refresh_token),
			updated_at = NOW()
		RETURNING id, clinician_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
	`
	return scanIdentity(r.pool.QueryRow(ctx, query,
		identity.ClinicianID,
		identity.Provider,
		identity.ProviderSubject,
		identity.ProviderEmail,
		identity.RefreshToken,
	))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClinician(row rowScanner) (auth.Clinician, error) {
	var clinician auth.Clinician
	if err := row.Scan(
		&clinician.ID,
		&clinician.Email,
		&clinician.Name,
		&clinician.PasswordHash,
		&clinician.CreatedAt,
	); err != nil {
		return auth.Clinician{}, err
	}
	clinician.CreatedAt = clinician.CreatedAt.UTC()
	return clinician, nil
}

func scanIdentity(row rowScanner) (auth.Identity, error) {
	var identity auth.Identity
	var refreshToken *string
	if err := row.Scan(
		&identity.ID,
		&identity.ClinicianID,
		&identity.Provider,
		&identity.ProviderSubject,
		&identity.ProviderEmail,
		&refreshToken,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return auth.Identity{}, err
	}
	if refreshToken != nil {
		identity.RefreshToken = *refreshToken
	}
	identity.CreatedAt = identity.CreatedAt.UTC()
	identity.UpdatedAt = identity.UpdatedAt.UTC()
	return identity, nil
}
