package intake

import (
	"time"

	"github.com/clinscribe/intake/internal/domain/normalizer"
	"github.com/clinscribe/intake/pkg/metrics"
)

// Config drives complaint intake behavior.
type Config struct {
	Model               string
	EmbeddingModel      string
	Temperature         float32
	QuestionPrompt      string
	MaxQuestions        int
	CacheTTL            time.Duration
	TrendingLimit       int
	SimilarityThreshold float64
}

// Complaint is a persisted patient complaint with its normalized form.
type Complaint struct {
	ID             int64             `json:"id"`
	RawText        string            `json:"rawText"`
	NormalizedText string            `json:"normalizedText"`
	Result         normalizer.Result `json:"result"`
	Embedding      []float32         `json:"-"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Request is a complaint submission.
type Request struct {
	Text string `json:"text"`
}

// SimilarComplaint pairs a previously seen complaint with its match score.
type SimilarComplaint struct {
	ID             int64   `json:"id"`
	NormalizedText string  `json:"normalizedText"`
	Score          float64 `json:"score"`
}

// TrendingTerm is a frequently reported complaint phrase.
type TrendingTerm struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Response is returned to the HTTP transport after a submission.
type Response struct {
	Complaint  Complaint           `json:"complaint"`
	Source     string              `json:"source"`
	Similar    []SimilarComplaint  `json:"similar,omitempty"`
	Questions  []string            `json:"questions,omitempty"`
	Trending   []TrendingTerm      `json:"trending,omitempty"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// CachedResult is the payload persisted in the KV cache for repeat submissions.
type CachedResult struct {
	ComplaintID int64             `json:"complaintId"`
	Result      normalizer.Result `json:"result"`
	CreatedAt   time.Time         `json:"createdAt"`
}

const (
	// SourceCache marks responses answered from the KV cache.
	SourceCache = "cache"
	// SourcePipeline marks responses produced by a fresh pipeline run.
	SourcePipeline = "pipeline"
)
