package auth

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/clinscribe/intake/pkg/errors"
)

type memoryRepo struct {
	mu         sync.Mutex
	nextID     int64
	clinicians map[int64]Clinician
	emailIndex map[string]int64
	identities map[string]Identity
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:     1,
		clinicians: make(map[int64]Clinician),
		emailIndex: make(map[string]int64),
		identities: make(map[string]Identity),
	}
}

func (r *memoryRepo) Create(_ context.Context, email, name, passwordHash string) (Clinician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.emailIndex[email]; exists {
		return Clinician{}, ErrEmailExists
	}
	clinician := Clinician{
		ID:           r.nextID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.nextID++
	r.clinicians[clinician.ID] = clinician
	r.emailIndex[email] = clinician.ID
	return clinician, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (Clinician, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.emailIndex[email]
	if !ok {
		return Clinician{}, false, nil
	}
	return r.clinicians[id], true, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (Clinician, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clinician, ok := r.clinicians[id]
	return clinician, ok, nil
}

func (r *memoryRepo) GetIdentity(_ context.Context, provider, subject string) (Identity, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[provider+":"+subject]
	return identity, ok, nil
}

func (r *memoryRepo) GetIdentityByClinician(_ context.Context, clinicianID int64, provider string) (Identity, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.identities {
		if identity.ClinicianID == clinicianID && identity.Provider == provider {
			return identity, true, nil
		}
	}
	return Identity{}, false, nil
}

func (r *memoryRepo) UpsertIdentity(_ context.Context, identity Identity) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := identity.Provider + ":" + identity.ProviderSubject
	existing, ok := r.identities[key]
	now := time.Now().UTC()
	if ok {
		existing.ProviderEmail = identity.ProviderEmail
		if identity.RefreshToken != "" {
			existing.RefreshToken = identity.RefreshToken
		}
		existing.UpdatedAt = now
		r.identities[key] = existing
		return existing, nil
	}
	identity.ID = int64(len(r.identities) + 1)
	identity.CreatedAt = now
	identity.UpdatedAt = now
	r.identities[key] = identity
	return identity, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo Repository) Service {
	cfg := Config{
		Secret:          "test-secret",
		TokenTTL:        15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
	return NewService(cfg, repo, newTestLogger())
}

func TestRegisterLoginAndRefresh(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	view, err := svc.Register(ctx, RegisterRequest{
		Email:    "Ana.Silva@Clinic.Example",
		Password: "s3cure-pass",
		Name:     "Ana Silva",
	})
	require.NoError(t, err)
	require.Equal(t, "ana.silva@clinic.example", view.Email)
	require.Equal(t, "Ana Silva", view.Name)

	login, err := svc.Login(ctx, LoginRequest{Email: "ana.silva@clinic.example", Password: "s3cure-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)
	require.NotEmpty(t, login.RefreshToken)

	claims, err := svc.ValidateToken(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, view.ID, claims.ClinicianID)
	require.Equal(t, "ana.silva@clinic.example", claims.Email)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.Token)

	profile, err := svc.Profile(ctx, claims.ClinicianID)
	require.NoError(t, err)
	require.Equal(t, view.Email, profile.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "dup@clinic.example", Password: "s3cure-pass", Name: "First"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "dup@clinic.example", Password: "another-pass", Name: "Second"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "email_exists"))
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Password: "s3cure-pass", Name: "Ana"}},
		{"malformed email", RegisterRequest{Email: "not-an-email", Password: "s3cure-pass", Name: "Ana"}},
		{"short password", RegisterRequest{Email: "a@b.example", Password: "short", Name: "Ana"}},
		{"numeric name", RegisterRequest{Email: "a@b.example", Password: "s3cure-pass", Name: "Ana 123"}},
		{"long name", RegisterRequest{Email: "a@b.example", Password: "s3cure-pass", Name: strings.Repeat("a", 65)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			require.Error(t, err)
			require.True(t, apperrors.IsCode(err, "invalid_input"), "got %v", err)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "login@clinic.example", Password: "s3cure-pass", Name: "Ana"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "login@clinic.example", Password: "wrong-pass"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_credentials"))

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@clinic.example", Password: "s3cure-pass"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_credentials"))
}

func TestValidateTokenRejectsRefreshToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "tok@clinic.example", Password: "s3cure-pass", Name: "Ana"})
	require.NoError(t, err)
	login, err := svc.Login(ctx, LoginRequest{Email: "tok@clinic.example", Password: "s3cure-pass"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, login.RefreshToken)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_token"))

	_, err = svc.Refresh(ctx, login.Token)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestSSOAuthURLRequiresConfiguration(t *testing.T) {
	t.Parallel()
	svc := newTestService(newMemoryRepo())

	_, err := svc.SSOAuthURL(context.Background(), "state", "challenge")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "auth_not_configured"))
}

func TestNewOAuthState(t *testing.T) {
	t.Parallel()
	state, verifier, challenge, err := NewOAuthState()
	require.NoError(t, err)
	require.NotEmpty(t, state)
	require.NotEmpty(t, verifier)
	require.Equal(t, CodeChallengeFromVerifier(verifier), challenge)
	require.NotEqual(t, verifier, challenge)
}

func TestTokenCryptoRoundTrip(t *testing.T) {
	t.Parallel()
	key := strings.Repeat("k", 32)

	ciphertext, err := encryptToken(key, "refresh-token-value")
	require.NoError(t, err)
	require.NotEqual(t, "refresh-token-value", ciphertext)

	plaintext, err := decryptToken(key, ciphertext)
	require.NoError(t, err)
	require.Equal(t, "refresh-token-value", plaintext)

	_, err = decryptToken(strings.Repeat("x", 32), ciphertext)
	require.Error(t, err)
}

func TestLogoutWithoutIdentityIsNoOp(t *testing.T) {
	t.Parallel()
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	view, err := svc.Register(ctx, RegisterRequest{Email: "out@clinic.example", Password: "s3cure-pass", Name: "Ana"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, view.ID))
}
