package normalizer_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clinscribe/intake/internal/domain/normalizer"
	"github.com/clinscribe/intake/internal/infra/spellcheck"
)

func newPipeline(t *testing.T) *normalizer.Pipeline {
	t.Helper()
	logger := slog.Default()
	return normalizer.NewPipeline(spellcheck.NewCorrector(logger), logger)
}

func TestNormalizeReferenceScenarios(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fever duration",
			in:   "i having fever 2 days",
			want: "I have been having a fever for 2 days",
		},
		{
			name: "possessive and tense",
			in:   "me chest hurt when breath",
			want: "My chest hurts when I breathe",
		},
		{
			name: "abbreviation expansion",
			in:   "stomach ache n vomiting",
			want: "Stomach ache and vomiting",
		},
	}

	p := newPipeline(t)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := p.Normalize(context.Background(), tt.in)
			require.Equal(t, tt.want, result.NormalizedText)
			require.Equal(t, tt.in, result.OriginalText)
			require.NotEmpty(t, result.CorrectionsApplied)
		})
	}
}

func TestNormalizeSpellingScenario(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)

	result := p.Normalize(context.Background(), "haedache really bad")
	require.Contains(t, result.NormalizedText, "Headache")
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)

	result := p.Normalize(context.Background(), "")
	require.Equal(t, "", result.NormalizedText)
	require.Empty(t, result.CorrectionsApplied)
	require.Equal(t, 1.0, result.ConfidenceScore)
}

func TestNormalizeNoOp(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)

	result := p.Normalize(context.Background(), "The patient has severe chest pain")
	require.Equal(t, "The patient has severe chest pain", result.NormalizedText)
	require.Empty(t, result.CorrectionsApplied)
	require.Equal(t, 1.0, result.ConfidenceScore)
}

func TestNormalizeWordBoundarySafety(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)

	// "significant" contains the dictionary key "cant" as a substring and
	// must pass through untouched.
	result := p.Normalize(context.Background(), "The swelling is significant")
	require.Contains(t, result.NormalizedText, "significant")
	require.NotContains(t, result.NormalizedText, "can't")
}

func TestNormalizePreservesEntities(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)

	result := p.Normalize(context.Background(), "BP is 120/80 and temp is 101 degrees")
	require.Contains(t, result.EntitiesPreserved, "120/80")
	require.Contains(t, result.EntitiesPreserved, "101 degrees")
}

func TestNormalizeDeterminism(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)

	const input = "i having feaver 2 days n me tummy hurt"
	first := p.Normalize(context.Background(), input)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, p.Normalize(context.Background(), input))
	}
}

func TestNormalizeConfidenceBounds(t *testing.T) {
	t.Parallel()
	p := newPipeline(t)

	inputs := []string{
		"",
		"ok",
		"i having fever 2 days",
		"me hed hurt n i cant sleep n me tummy ache n i feel dizy",
		"The patient reports no symptoms at this time",
	}
	for _, input := range inputs {
		result := p.Normalize(context.Background(), input)
		require.GreaterOrEqual(t, result.ConfidenceScore, 0.5, "input %q", input)
		require.LessOrEqual(t, result.ConfidenceScore, 1.0, "input %q", input)
	}
}
