// Package normalizer turns free-form patient-authored complaint text into
// a clinically readable form through a fixed sequence of deterministic
// correction stages, reporting every correction applied, the numeric
// medical tokens it saw, and a confidence estimate of the result.
package normalizer

import (
	"context"
	"log/slog"
)

// Pipeline applies the normalization stages in a fixed order. Construct it
// once and share it: all rule tables are immutable after NewPipeline and a
// run touches no shared mutable state.
type Pipeline struct {
	tables    *ruleTables
	corrector WordCorrector
	logger    *slog.Logger
}

// NewPipeline builds the rule tables and wires the delegated spell-check
// collaborator. corrector may be nil, which disables the delegated pass.
func NewPipeline(corrector WordCorrector, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		tables:    newRuleTables(),
		corrector: corrector,
		logger:    logger.With("component", "normalizer.pipeline"),
	}
}

// Normalize runs the full pipeline over text. It never fails: collaborator
// problems surface only as fewer corrections in the audit trail.
func (p *Pipeline) Normalize(ctx context.Context, text string) Result {
	result := Result{
		OriginalText:      text,
		EntitiesPreserved: p.extractEntities(text),
	}

	var stageCorrections []string
	current := text

	current, stageCorrections = p.fixCapitalization(current)
	result.CorrectionsApplied = append(result.CorrectionsApplied, stageCorrections...)

	current, stageCorrections = p.expandAbbreviations(current)
	result.CorrectionsApplied = append(result.CorrectionsApplied, stageCorrections...)

	var spellRecords []SpellCorrection
	current, stageCorrections, spellRecords = p.correctSpelling(ctx, current)
	result.CorrectionsApplied = append(result.CorrectionsApplied, stageCorrections...)
	result.SpellCorrections = spellRecords

	current, stageCorrections = p.correctPronouns(current)
	result.CorrectionsApplied = append(result.CorrectionsApplied, stageCorrections...)

	current, stageCorrections = p.correctGrammar(current)
	result.CorrectionsApplied = append(result.CorrectionsApplied, stageCorrections...)

	current, stageCorrections = p.mapInformalTerms(current)
	result.CorrectionsApplied = append(result.CorrectionsApplied, stageCorrections...)

	current, stageCorrections = p.correctVerbTense(current)
	result.CorrectionsApplied = append(result.CorrectionsApplied, stageCorrections...)

	result.NormalizedText = finalCleanup(current)
	result.ConfidenceScore = p.scoreConfidence(text, result.NormalizedText, len(result.CorrectionsApplied))

	p.logger.Debug("normalization complete", "outcome", result.Outcome())

	return result
}
