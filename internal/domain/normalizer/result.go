package normalizer

import "github.com/clinscribe/intake/pkg/metrics"

// SpellCorrection records a single delegated spell-check replacement that
// met the acceptance threshold.
type SpellCorrection struct {
	Original   string  `json:"original"`
	Corrected  string  `json:"corrected"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// Result is the immutable outcome of one pipeline run.
type Result struct {
	OriginalText       string            `json:"originalText"`
	NormalizedText     string            `json:"normalizedText"`
	CorrectionsApplied []string          `json:"correctionsApplied"`
	ConfidenceScore    float64           `json:"confidenceScore"`
	EntitiesPreserved  []string          `json:"medicalEntitiesPreserved"`
	SpellCorrections   []SpellCorrection `json:"spellCorrections,omitempty"`
}

// Outcome condenses the run into the counters used for reporting.
func (r Result) Outcome() metrics.NormalizationOutcome {
	return metrics.NormalizationOutcome{
		Corrections:       len(r.CorrectionsApplied),
		SpellReplacements: len(r.SpellCorrections),
		EntitiesFound:     len(r.EntitiesPreserved),
		Confidence:        r.ConfidenceScore,
	}
}
