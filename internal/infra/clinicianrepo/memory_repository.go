package clinicianrepo

import (
	"context"
	"sync"
	"time"

	"github.com/clinscribe/intake/internal/domain/auth"
)

// MemoryRepository is the in-process fallback used when Postgres is unavailable.
type MemoryRepository struct {
	mu             sync.RWMutex
	nextID         int64
	nextIdentityID int64
	clinicians     map[int64]auth.Clinician
	emailIndex     map[string]int64
	identities     map[string]auth.Identity
}

var _ auth.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:         1,
		nextIdentityID: 1,
		clinicians:     make(map[int64]auth.Clinician),
		emailIndex:     make(map[string]int64),
		identities:     make(map[string]auth.Identity),
	}
}

func (r *MemoryRepository) Create(_ context.Context, email, name, passwordHash string) (auth.Clinician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.emailIndex[email]; exists {
		return auth.Clinician{}, auth.ErrEmailExists
	}
	clinician := auth.Clinician{
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

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (auth.Clinician, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.emailIndex[email]
	if !ok {
		return auth.Clinician{}, false, nil
	}
	return r.clinicians[id], true, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (auth.Clinician, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clinician, ok := r.clinicians[id]
	return clinician, ok, nil
}

func (r *MemoryRepository) GetIdentity(_ context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[identityKey(provider, providerSubject)]
	return identity, ok, nil
}

func (r *MemoryRepository) GetIdentityByClinician(_ context.Context, clinicianID int64, provider string) (auth.Identity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, identity := range r.identities {
		if identity.ClinicianID == clinicianID && identity.Provider == provider {
			return identity, true, nil
		}
	}
	return auth.Identity{}, false, nil
}

func (r *MemoryRepository) UpsertIdentity(_ context.Context, identity auth.Identity) (auth.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := identityKey(identity.Provider, identity.ProviderSubject)
	now := time.Now().UTC()
	if existing, ok := r.identities[key]; ok {
		existing.ProviderEmail = identity.ProviderEmail
		if identity.RefreshToken != "" {
			existing.RefreshToken = identity.RefreshToken
		}
		existing.UpdatedAt = now
		r.identities[key] = existing
		return existing, nil
	}
	identity.ID = r.nextIdentityID
	r.nextIdentityID++
	identity.CreatedAt = now
	identity.UpdatedAt = now
	r.identities[key] = identity
	return identity, nil
}

func identityKey(provider, subject string) string {
	return provider + ":" + subject
}
