package normalizer

import "context"

// spellAcceptThreshold is the minimum collaborator confidence required
// before a delegated correction is applied.
const spellAcceptThreshold = 0.70

// WordCorrection is the collaborator's best guess for a single word.
type WordCorrection struct {
	Corrected  string
	Confidence float64
	Method     string
}

// WordCorrector is the external spell-check collaborator contract. A
// low-confidence or unchanged answer means "no correction"; errors are
// recovered per word and never abort a normalization.
type WordCorrector interface {
	CorrectWord(ctx context.Context, word string) (WordCorrection, error)
}
