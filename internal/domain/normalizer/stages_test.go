package normalizer

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPipeline(t *testing.T, corrector WordCorrector) *Pipeline {
	t.Helper()
	return NewPipeline(corrector, slog.Default())
}

func TestFixCapitalization(t *testing.T) {
	tests := []struct {
		name            string
		in              string
		want            string
		wantCorrections int
	}{
		{name: "lowercase sentence start", in: "fever all night", want: "Fever all night", wantCorrections: 1},
		{name: "standalone i", in: "But i feel worse", want: "But I feel worse", wantCorrections: 1},
		{name: "contraction", in: "Now i'm dizzy", want: "Now I'm dizzy", wantCorrections: 1},
		{name: "both operations", in: "when i sleep", want: "When I sleep", wantCorrections: 2},
		{name: "already clean", in: "No change needed", want: "No change needed", wantCorrections: 0},
		{name: "empty", in: "", want: "", wantCorrections: 0},
	}

	p := testPipeline(t, nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, corrections := p.fixCapitalization(tt.in)
			require.Equal(t, tt.want, got)
			require.Len(t, corrections, tt.wantCorrections)
		})
	}
}

func TestExpandAbbreviations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single letter", in: "Stomach ache n vomiting", want: "Stomach ache and vomiting"},
		{name: "slash form", in: "Took pills w/ water", want: "Took pills with water"},
		{name: "clinical shorthand", in: "My bp was high", want: "My blood pressure was high"},
		{name: "no substring match", in: "Burning sensation", want: "Burning sensation"},
	}

	p := testPipeline(t, nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, _ := p.expandAbbreviations(tt.in)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCorrectSpellingBasicPass(t *testing.T) {
	t.Parallel()
	p := testPipeline(t, nil)

	got, corrections, records := p.correctSpelling(context.Background(), "Haedache and feaver, haedache again")
	require.Equal(t, "headache and fever, headache again", got)
	// one description per distinct misspelled form, not per occurrence
	require.Len(t, corrections, 2)
	require.Empty(t, records)
}

type stubCorrector struct {
	answers map[string]WordCorrection
	err     error
}

func (s *stubCorrector) CorrectWord(_ context.Context, word string) (WordCorrection, error) {
	if s.err != nil {
		return WordCorrection{}, s.err
	}
	if answer, ok := s.answers[word]; ok {
		return answer, nil
	}
	return WordCorrection{Corrected: word, Confidence: 1.0, Method: "exact"}, nil
}

func TestCorrectSpellingDelegatedPass(t *testing.T) {
	tests := []struct {
		name        string
		corrector   WordCorrector
		in          string
		want        string
		wantRecords int
	}{
		{
			name: "confident correction applied everywhere",
			corrector: &stubCorrector{answers: map[string]WordCorrection{
				"stomachh": {Corrected: "stomach", Confidence: 0.91, Method: "edit_distance"},
			}},
			in:          "My stomachh aches, the stomachh is tender",
			want:        "My stomach aches, the stomach is tender",
			wantRecords: 1,
		},
		{
			name: "low confidence ignored",
			corrector: &stubCorrector{answers: map[string]WordCorrection{
				"tendre": {Corrected: "tender", Confidence: 0.40, Method: "edit_distance"},
			}},
			in:          "Feels tendre today",
			want:        "Feels tendre today",
			wantRecords: 0,
		},
		{
			name:        "collaborator failure recovered",
			corrector:   &stubCorrector{err: errors.New("backend down")},
			in:          "Feels tendre today",
			want:        "Feels tendre today",
			wantRecords: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := testPipeline(t, tt.corrector)
			got, _, records := p.correctSpelling(context.Background(), tt.in)
			require.Equal(t, tt.want, got)
			require.Len(t, records, tt.wantRecords)
		})
	}
}

func TestCorrectPronouns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "leading possessive me", in: "me back is sore", want: "my back is sore"},
		{name: "sentence initial i", in: "i feel sick", want: "I feel sick"},
		{name: "mid sentence i", in: "And then i slept and i woke", want: "And then I slept and I woke"},
		{name: "uppercase untouched", in: "My back is sore", want: "My back is sore"},
	}

	p := testPipeline(t, nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, _ := p.correctPronouns(tt.in)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCorrectGrammarPrecedence(t *testing.T) {
	t.Parallel()
	p := testPipeline(t, nil)

	// The specific fever+duration rule must win over the generic
	// "i having X" rephrasing.
	got, corrections := p.correctGrammar("I having fever 2 days")
	require.Equal(t, "I have been having a fever for 2 days", got)
	require.Len(t, corrections, 1)

	got, _ = p.correctGrammar("I having headache")
	require.Equal(t, "I have been having headache", got)
}

func TestMapInformalTerms(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "phrase replaced", in: "Kept throwing up all night", want: "Kept vomiting all night"},
		{name: "longer key wins", in: "I can't poop", want: "I constipated"},
		{name: "word boundary respected", in: "Bellyful of soup", want: "Bellyful of soup"},
	}

	p := testPipeline(t, nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, _ := p.mapInformalTerms(tt.in)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCorrectVerbTense(t *testing.T) {
	t.Parallel()
	p := testPipeline(t, nil)

	got, corrections := p.correctVerbTense("Leg hurt 3 days")
	require.Equal(t, "Leg has been hurting for 3 days", got)
	require.Len(t, corrections, 1)
}

func TestFinalCleanup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses whitespace", in: "  my   chest  hurts ", want: "My chest hurts"},
		{name: "empty", in: "   ", want: ""},
		{name: "already clean", in: "My chest hurts", want: "My chest hurts"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, finalCleanup(tt.in))
		})
	}
}
