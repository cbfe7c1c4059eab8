package intakerepo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/clinscribe/intake/internal/domain/intake"
)

// MemoryRepository provides an in-memory complaint store for tests/dev.
type MemoryRepository struct {
	mu         sync.RWMutex
	complaints map[int64]intake.Complaint
	order      []int64
	seq        int64
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{complaints: make(map[int64]intake.Complaint)}
}

func (r *MemoryRepository) Insert(_ context.Context, complaint intake.Complaint) (intake.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	complaint.ID = r.seq
	r.complaints[complaint.ID] = complaint
	r.order = append(r.order, complaint.ID)
	return complaint, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (intake.Complaint, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	complaint, ok := r.complaints[id]
	return complaint, ok, nil
}

func (r *MemoryRepository) List(_ context.Context, limit int) ([]intake.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]intake.Complaint, 0, limit)
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.complaints[r.order[i]])
	}
	return out, nil
}

func (r *MemoryRepository) FindSimilar(_ context.Context, embedding []float32, limit int) ([]intake.SimilarityMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]intake.SimilarityMatch, 0, len(r.complaints))
	for _, id := range r.order {
		complaint := r.complaints[id]
		if len(complaint.Embedding) == 0 {
			continue
		}
		matches = append(matches, intake.SimilarityMatch{
			Complaint: complaint,
			Distance:  l2Distance(embedding, complaint.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1e18
	}
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ intake.Repository = (*MemoryRepository)(nil)
