package intake

import (
	"context"
	"time"
)

// Store defines the cache contract for normalization results and trending terms.
type Store interface {
	GetResult(ctx context.Context, canonical string) (CachedResult, bool, error)
	SaveResult(ctx context.Context, canonical string, record CachedResult, ttl time.Duration) error
	IncrementTerm(ctx context.Context, canonical, display string) error
	TopTerms(ctx context.Context, limit int) ([]TrendingTerm, error)
}
