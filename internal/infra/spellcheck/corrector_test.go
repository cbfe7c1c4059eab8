package spellcheck

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrectWord(t *testing.T) {
	tests := []struct {
		name           string
		in             string
		wantCorrected  string
		wantMethod     string
		wantConfidence float64
	}{
		{
			name:           "known word is exact",
			in:             "fever",
			wantCorrected:  "fever",
			wantMethod:     "exact",
			wantConfidence: 1.0,
		},
		{
			name:           "short word skipped",
			in:             "to",
			wantCorrected:  "to",
			wantMethod:     "exact",
			wantConfidence: 1.0,
		},
		{
			name:           "single edit",
			in:             "fevr",
			wantCorrected:  "fever",
			wantMethod:     "edit_distance",
			wantConfidence: 0.85,
		},
		{
			name:           "case preserved",
			in:             "Headach",
			wantCorrected:  "Headache",
			wantMethod:     "edit_distance",
			wantConfidence: 0.85,
		},
		{
			name:           "no candidate",
			in:             "xylqzt",
			wantCorrected:  "xylqzt",
			wantMethod:     "no_suggestion",
			wantConfidence: 0.0,
		},
		{
			name:           "numeric token skipped",
			in:             "120/80",
			wantCorrected:  "120/80",
			wantMethod:     "exact",
			wantConfidence: 1.0,
		},
	}

	c := NewCorrector(slog.Default())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.CorrectWord(context.Background(), tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.wantCorrected, got.Corrected)
			require.Equal(t, tt.wantMethod, got.Method)
			require.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
		})
	}
}

func TestCorrectWordDeterministic(t *testing.T) {
	t.Parallel()
	c := NewCorrector(slog.Default())

	first, err := c.CorrectWord(context.Background(), "stomache")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.CorrectWord(context.Background(), "stomache")
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestCorrectWordCancelledContext(t *testing.T) {
	t.Parallel()
	c := NewCorrector(slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.CorrectWord(ctx, "fever")
	require.Error(t, err)
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b  string
		limit int
		want  int
	}{
		{"fever", "fever", 2, 0},
		{"fevr", "fever", 2, 1},
		{"feve", "fever", 2, 1},
		{"fvere", "fever", 2, 2},
		{"abcdef", "fever", 2, -1},
		{"a", "abcd", 2, -1},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, editDistance(tt.a, tt.b, tt.limit), "editDistance(%q, %q)", tt.a, tt.b)
	}
}
