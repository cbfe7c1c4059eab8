package normalizer

import "strings"

const (
	confidenceFloor   = 0.5
	confidenceCeiling = 1.0
)

// scoreConfidence derives a scalar quality estimate from how much work the
// pipeline had to do. Zero corrections means the input was already clean.
func (p *Pipeline) scoreConfidence(original, normalized string, corrections int) float64 {
	if corrections == 0 {
		return confidenceCeiling
	}

	var confidence float64
	switch {
	case corrections <= 2:
		confidence = 0.95
	case corrections <= 4:
		confidence = 0.85
	case corrections <= 6:
		confidence = 0.75
	default:
		confidence = 0.65
	}

	// Very short inputs give the rules little to anchor on.
	if len(strings.Fields(original)) < 3 {
		confidence -= 0.05
	}

	lowered := strings.ToLower(normalized)
	recognized := 0
	for _, term := range p.tables.clinicalTerms {
		if strings.Contains(lowered, term) {
			recognized++
		}
	}
	bonus := 0.02 * float64(recognized)
	if bonus > 0.10 {
		bonus = 0.10
	}
	confidence += bonus

	if confidence < confidenceFloor {
		return confidenceFloor
	}
	if confidence > confidenceCeiling {
		return confidenceCeiling
	}
	return confidence
}
