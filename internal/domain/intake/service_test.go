package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clinscribe/intake/internal/domain/normalizer"
	"github.com/clinscribe/intake/internal/infra/llm/chatgpt"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		Model:               "gpt-4o-mini",
		EmbeddingModel:      "text-embedding-3-small",
		QuestionPrompt:      "Respond as JSON with the key questions.",
		MaxQuestions:        3,
		CacheTTL:            time.Hour,
		TrendingLimit:       5,
		SimilarityThreshold: 0.5,
	}
}

func newTestService(client ChatClient) (Service, *stubRepo, *stubStore) {
	repo := newStubRepo()
	store := newStubStore()
	pipeline := normalizer.NewPipeline(nil, newTestLogger())
	svc := NewService(testConfig(), pipeline, repo, store, client, stubEmbedder{}, newTestLogger())
	return svc, repo, store
}

func TestService_SubmitNormalizesAndPersists(t *testing.T) {
	t.Parallel()

	svc, repo, store := newTestService(nil)

	resp, err := svc.Submit(context.Background(), Request{Text: "i having fever 2 days"})
	require.NoError(t, err)
	require.Equal(t, SourcePipeline, resp.Source)
	require.Equal(t, "I have been having a fever for 2 days", resp.Complaint.NormalizedText)
	require.NotZero(t, resp.Complaint.ID)
	require.NotEmpty(t, resp.Complaint.Embedding)

	stored, found, err := repo.Get(context.Background(), resp.Complaint.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "i having fever 2 days", stored.RawText)

	_, cached, err := store.GetResult(context.Background(), "i having fever 2 days")
	require.NoError(t, err)
	require.True(t, cached)
}

func TestService_SubmitServesRepeatFromCache(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(nil)

	first, err := svc.Submit(context.Background(), Request{Text: "me chest hurt when breath"})
	require.NoError(t, err)
	require.Equal(t, SourcePipeline, first.Source)

	second, err := svc.Submit(context.Background(), Request{Text: "me chest  hurt when breath"})
	require.NoError(t, err)
	require.Equal(t, SourceCache, second.Source)
	require.Equal(t, first.Complaint.ID, second.Complaint.ID)
	require.Len(t, repo.complaints, 1)
}

func TestService_SubmitFoldsPunctuationForCache(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(nil)

	first, err := svc.Submit(context.Background(), Request{Text: "Headache!"})
	require.NoError(t, err)
	require.Equal(t, SourcePipeline, first.Source)

	second, err := svc.Submit(context.Background(), Request{Text: "headache"})
	require.NoError(t, err)
	require.Equal(t, SourceCache, second.Source)
	require.Equal(t, first.Complaint.ID, second.Complaint.ID)
	require.Len(t, repo.complaints, 1)
}

func TestCanonicalKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases", in: "Fever And Chills", want: "fever and chills"},
		{name: "collapses whitespace", in: "  sore   throat ", want: "sore throat"},
		{name: "folds punctuation", in: "Headache!", want: "headache"},
		{name: "punctuation between words", in: "fever,chills", want: "fever chills"},
		{name: "keeps digits", in: "fever for 2 days", want: "fever for 2 days"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, canonicalKey(tt.in))
		})
	}
}

func TestService_SubmitRejectsEmptyText(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(nil)

	_, err := svc.Submit(context.Background(), Request{Text: "   "})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot be empty")
}

func TestService_SubmitGeneratesQuestions(t *testing.T) {
	t.Parallel()

	client := &stubChatClient{
		chatResponse: "```json\n{\"questions\": [\"How long have you had the fever?\", \"Any chills?\", \" \", \"Q4\", \"Q5\"]}\n```",
	}
	svc, _, _ := newTestService(client)

	resp, err := svc.Submit(context.Background(), Request{Text: "i having fever 2 days"})
	require.NoError(t, err)
	require.Equal(t, []string{"How long have you had the fever?", "Any chills?", "Q4"}, resp.Questions)
	require.NotNil(t, resp.TokenUsage)
	require.Equal(t, 30, resp.TokenUsage.TotalTokens)
}

func TestService_SubmitToleratesLLMFailure(t *testing.T) {
	t.Parallel()

	client := &stubChatClient{chatErr: errors.New("provider down")}
	svc, _, _ := newTestService(client)

	resp, err := svc.Submit(context.Background(), Request{Text: "stomach ache n vomiting"})
	require.NoError(t, err)
	require.Equal(t, "Stomach ache and vomiting", resp.Complaint.NormalizedText)
	require.Empty(t, resp.Questions)
}

func TestService_SubmitReportsSimilarComplaints(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(nil)

	first, err := svc.Submit(context.Background(), Request{Text: "i having fever 2 days"})
	require.NoError(t, err)
	require.Empty(t, first.Similar)

	second, err := svc.Submit(context.Background(), Request{Text: "i having fever 3 days"})
	require.NoError(t, err)
	for _, match := range second.Similar {
		require.NotEqual(t, second.Complaint.ID, match.ID)
		require.Greater(t, match.Score, 0.0)
	}
}

func TestService_TrendingCountsRepeats(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(context.Background(), Request{Text: "haedache really bad"})
		require.NoError(t, err)
	}
	_, err := svc.Submit(context.Background(), Request{Text: "stomach ache n vomiting"})
	require.NoError(t, err)

	terms, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, terms)
	require.Equal(t, int64(3), terms[0].Count)
}

func TestService_GetUnknownComplaint(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(nil)

	_, err := svc.Get(context.Background(), 999)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

type stubRepo struct {
	mu         sync.Mutex
	complaints map[int64]Complaint
	seq        int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{complaints: make(map[int64]Complaint)}
}

func (r *stubRepo) Insert(_ context.Context, complaint Complaint) (Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	complaint.ID = r.seq
	r.complaints[complaint.ID] = complaint
	return complaint, nil
}

func (r *stubRepo) Get(_ context.Context, id int64) (Complaint, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	complaint, ok := r.complaints[id]
	return complaint, ok, nil
}

func (r *stubRepo) List(_ context.Context, limit int) ([]Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Complaint, 0, len(r.complaints))
	for _, complaint := range r.complaints {
		out = append(out, complaint)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubRepo) FindSimilar(_ context.Context, embedding []float32, limit int) ([]SimilarityMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []SimilarityMatch
	for _, complaint := range r.complaints {
		matches = append(matches, SimilarityMatch{Complaint: complaint, Distance: l2Distance(embedding, complaint.Embedding)})
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1e9
	}
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}

type stubStore struct {
	mu      sync.Mutex
	results map[string]CachedResult
	counts  map[string]int64
	display map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{
		results: make(map[string]CachedResult),
		counts:  make(map[string]int64),
		display: make(map[string]string),
	}
}

func (s *stubStore) GetResult(_ context.Context, canonical string) (CachedResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.results[canonical]
	return record, ok, nil
}

func (s *stubStore) SaveResult(_ context.Context, canonical string, record CachedResult, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[canonical] = record
	return nil
}

func (s *stubStore) IncrementTerm(_ context.Context, canonical, display string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[canonical]++
	if _, ok := s.display[canonical]; !ok {
		s.display[canonical] = display
	}
	return nil
}

func (s *stubStore) TopTerms(_ context.Context, limit int) ([]TrendingTerm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TrendingTerm, 0, len(s.counts))
	for canonical, count := range s.counts {
		out = append(out, TrendingTerm{Term: s.display[canonical], Count: count})
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Count > out[i].Count {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubChatClient struct {
	chatResponse string
	chatErr      error
}

func (c *stubChatClient) CreateChatCompletion(_ context.Context, _ chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	if c.chatErr != nil {
		return chatgpt.ChatCompletionResponse{}, c.chatErr
	}
	var resp chatgpt.ChatCompletionResponse
	resp.Choices = []struct {
		Message chatgpt.Message `json:"message"`
	}{
		{Message: chatgpt.Message{Role: "assistant", Content: c.chatResponse}},
	}
	resp.Usage = chatgpt.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30}
	return resp, nil
}

func (c *stubChatClient) CreateEmbedding(_ context.Context, _ chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error) {
	return chatgpt.EmbeddingResponse{}, errors.New("embeddings disabled in tests")
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, 8)
		for _, r := range text {
			vector[int(r)%8] += 0.01
		}
		vectors[i] = vector
	}
	return vectors, nil
}
