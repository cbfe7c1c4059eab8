package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/clinscribe/intake/internal/domain/normalizer"
	"github.com/clinscribe/intake/internal/infra/llm/chatgpt"
	apperrors "github.com/clinscribe/intake/pkg/errors"
	"github.com/clinscribe/intake/pkg/metrics"
	"github.com/clinscribe/intake/pkg/util"
)

// Service exposes complaint intake workflows.
type Service interface {
	Submit(ctx context.Context, req Request) (Response, error)
	Get(ctx context.Context, id int64) (Complaint, error)
	List(ctx context.Context, limit int) ([]Complaint, error)
	Trending(ctx context.Context) ([]TrendingTerm, error)
}

// ChatClient is the subset of the ChatGPT client the service needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
	CreateEmbedding(ctx context.Context, req chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error)
}

// Embedder produces vectors without a network dependency.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type service struct {
	cfg      Config
	pipeline *normalizer.Pipeline
	repo     Repository
	store    Store
	client   ChatClient
	fallback Embedder
	logger   *slog.Logger

	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
}

// NewService wires up the intake domain. The chat client may be nil, in
// which case embeddings come from the fallback embedder and no clarifying
// questions are generated.
func NewService(cfg Config, pipeline *normalizer.Pipeline, repo Repository, store Store, client ChatClient, fallback Embedder, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		pipeline: pipeline,
		repo:     repo,
		store:    store,
		client:   client,
		fallback: fallback,
		logger:   logger.With("component", "intake.service"),
	}
}

func (s *service) Submit(ctx context.Context, req Request) (Response, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "complaint text cannot be empty", nil)
	}

	canonical := canonicalKey(text)

	if cached, ok, err := s.store.GetResult(ctx, canonical); err != nil {
		s.logger.Warn("cache lookup failed", "error", err)
	} else if ok {
		complaint, found, err := s.repo.Get(ctx, cached.ComplaintID)
		if err != nil {
			return Response{}, apperrors.Wrap(apperrors.CodeIntakeError, "failed to load cached complaint", err)
		}
		if found {
			return s.buildResponse(ctx, complaint, SourceCache, canonical, nil)
		}
	}

	result := s.pipeline.Normalize(ctx, text)

	embedding, usage := s.embed(ctx, result.NormalizedText)

	complaint, err := s.repo.Insert(ctx, Complaint{
		RawText:        text,
		NormalizedText: result.NormalizedText,
		Result:         result,
		Embedding:      embedding,
		CreatedAt:      util.NowUTC(),
	})
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeIntakeError, "failed to persist complaint", err)
	}

	if err := s.store.SaveResult(ctx, canonical, CachedResult{
		ComplaintID: complaint.ID,
		Result:      result,
		CreatedAt:   util.NowUTC(),
	}, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache save failed", "error", err)
	}

	return s.buildResponse(ctx, complaint, SourcePipeline, canonical, usage)
}

func (s *service) buildResponse(ctx context.Context, complaint Complaint, source, canonical string, usage *metrics.TokenUsage) (Response, error) {
	if err := s.store.IncrementTerm(ctx, canonical, complaint.NormalizedText); err != nil {
		s.logger.Warn("trending increment failed", "error", err)
	}

	trending, err := s.store.TopTerms(ctx, s.cfg.TrendingLimit)
	if err != nil {
		s.logger.Warn("trending fetch failed", "error", err)
		trending = nil
	}

	similar := s.findSimilar(ctx, complaint)

	var questions []string
	if source == SourcePipeline {
		var questionUsage *metrics.TokenUsage
		questions, questionUsage = s.generateQuestions(ctx, complaint.NormalizedText)
		usage = mergeUsage(usage, questionUsage)
	}

	return Response{
		Complaint:  complaint,
		Source:     source,
		Similar:    similar,
		Questions:  questions,
		Trending:   trending,
		TokenUsage: usage,
	}, nil
}

func (s *service) Get(ctx context.Context, id int64) (Complaint, error) {
	complaint, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return Complaint{}, apperrors.Wrap(apperrors.CodeIntakeError, "failed to fetch complaint", err)
	}
	if !found {
		return Complaint{}, apperrors.Wrap(apperrors.CodeNotFound, "complaint not found", nil)
	}
	return complaint, nil
}

func (s *service) List(ctx context.Context, limit int) ([]Complaint, error) {
	if limit <= 0 {
		limit = 50
	}
	complaints, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIntakeError, "failed to list complaints", err)
	}
	return complaints, nil
}

func (s *service) Trending(ctx context.Context) ([]TrendingTerm, error) {
	terms, err := s.store.TopTerms(ctx, s.cfg.TrendingLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIntakeError, "failed to load trending terms", err)
	}
	return terms, nil
}

// embed prefers the remote embeddings API and falls back to the
// deterministic embedder when no client is configured or the call fails.
func (s *service) embed(ctx context.Context, text string) ([]float32, *metrics.TokenUsage) {
	if s.client != nil {
		resp, err := s.client.CreateEmbedding(ctx, chatgpt.EmbeddingRequest{
			Model: s.cfg.EmbeddingModel,
			Input: text,
		})
		if err == nil && len(resp.Data) > 0 && len(resp.Data[0].Embedding) > 0 {
			vector := make([]float32, len(resp.Data[0].Embedding))
			copy(vector, resp.Data[0].Embedding)
			return vector, usageFromAPI(resp.Usage)
		}
		if err != nil {
			s.logger.Warn("embedding request failed, using fallback", "error", err)
		}
	}
	if s.fallback == nil {
		return nil, nil
	}
	vectors, err := s.fallback.Embed(ctx, []string{text})
	if err != nil || len(vectors) == 0 {
		s.logger.Warn("fallback embedding failed", "error", err)
		return nil, nil
	}
	return vectors[0], nil
}

func (s *service) findSimilar(ctx context.Context, complaint Complaint) []SimilarComplaint {
	if len(complaint.Embedding) == 0 {
		return nil
	}
	matches, err := s.repo.FindSimilar(ctx, complaint.Embedding, s.cfg.TrendingLimit)
	if err != nil {
		s.logger.Warn("similarity lookup failed", "error", err)
		return nil
	}
	var out []SimilarComplaint
	for _, match := range matches {
		if match.Complaint.ID == complaint.ID {
			continue
		}
		if match.Distance > s.cfg.SimilarityThreshold {
			continue
		}
		out = append(out, SimilarComplaint{
			ID:             match.Complaint.ID,
			NormalizedText: match.Complaint.NormalizedText,
			Score:          1.0 / (1.0 + match.Distance),
		})
	}
	return out
}

type questionPayload struct {
	Questions []string `json:"questions"`
}

func (s *service) generateQuestions(ctx context.Context, normalized string) ([]string, *metrics.TokenUsage) {
	if s.client == nil || strings.TrimSpace(normalized) == "" {
		return nil, nil
	}
	messages := []chatgpt.Message{
		{Role: "system", Content: s.cfg.QuestionPrompt},
		{Role: "user", Content: fmt.Sprintf("Complaint: %s", normalized)},
	}
	usage := &metrics.TokenUsage{PromptTokens: s.countTokens(messages)}

	resp, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		s.logger.Warn("question generation failed", "error", err)
		return nil, usage
	}
	if apiUsage := usageFromAPI(resp.Usage); apiUsage != nil {
		usage = apiUsage
	}
	if len(resp.Choices) == 0 {
		return nil, usage
	}
	questions, err := parseQuestions(resp.Choices[0].Message.Content)
	if err != nil {
		s.logger.Warn("question response unparsable", "error", err)
		return nil, usage
	}
	if s.cfg.MaxQuestions > 0 && len(questions) > s.cfg.MaxQuestions {
		questions = questions[:s.cfg.MaxQuestions]
	}
	return questions, usage
}

func parseQuestions(raw string) ([]string, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, errors.New("empty response")
	}
	var payload questionPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		if trimmed := strings.TrimSpace(q); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no questions in response")
	}
	return out, nil
}

func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
	}
	return strings.TrimSpace(trimmed)
}

// countTokens estimates prompt tokens locally so usage is reported even
// when the provider omits it.
func (s *service) countTokens(messages []chatgpt.Message) int {
	s.encodingOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel(s.cfg.Model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				s.logger.Warn("tiktoken encoding unavailable", "error", err)
				return
			}
		}
		s.encoding = enc
	})
	if s.encoding == nil {
		return 0
	}
	total := 0
	for _, msg := range messages {
		total += len(s.encoding.Encode(msg.Content, nil, nil))
	}
	return total
}

func usageFromAPI(u chatgpt.Usage) *metrics.TokenUsage {
	if u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0 {
		return nil
	}
	return &metrics.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

func mergeUsage(a, b *metrics.TokenUsage) *metrics.TokenUsage {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &metrics.TokenUsage{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		TotalTokens:      a.TotalTokens + b.TotalTokens,
	}
}

// canonicalKey folds case, punctuation, and whitespace so trivially
// different spellings of the same complaint share one cache entry.
func canonicalKey(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
