package intake

import "context"

// SimilarityMatch contains a pgvector neighbour and its distance.
type SimilarityMatch struct {
	Complaint Complaint
	Distance  float64
}

// Repository encapsulates complaint persistence.
type Repository interface {
	Insert(ctx context.Context, complaint Complaint) (Complaint, error)
	Get(ctx context.Context, id int64) (Complaint, bool, error)
	List(ctx context.Context, limit int) ([]Complaint, error)
	FindSimilar(ctx context.Context, embedding []float32, limit int) ([]SimilarityMatch, error)
}
