package normalizer

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// fixCapitalization uppercases a lowercase sentence start and standalone
// lowercase first-person pronoun tokens.
func (p *Pipeline) fixCapitalization(text string) (string, []string) {
	var corrections []string

	runes := []rune(text)
	if len(runes) > 0 && unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		text = string(runes)
		corrections = append(corrections, "Capitalized first letter of sentence")
	}

	for _, rule := range p.tables.pronounTokens {
		if !rule.re.MatchString(text) {
			continue
		}
		text = rule.re.ReplaceAllString(text, rule.replacement)
		corrections = append(corrections, rule.description)
	}
	return text, corrections
}

// expandAbbreviations replaces whole-word text-speak abbreviations with
// their long forms, one correction per distinct abbreviation found.
func (p *Pipeline) expandAbbreviations(text string) (string, []string) {
	var corrections []string
	for _, rule := range p.tables.abbreviations {
		if !rule.re.MatchString(text) {
			continue
		}
		text = rule.re.ReplaceAllString(text, rule.replacement)
		corrections = append(corrections, rule.description)
	}
	return text, corrections
}

// correctSpelling runs the basic-table pass and then delegates the
// remaining words to the external spell-check collaborator. Collaborator
// errors leave the word unchanged; a correction is only applied when the
// collaborator is confident and actually changed the word.
func (p *Pipeline) correctSpelling(ctx context.Context, text string) (string, []string, []SpellCorrection) {
	var corrections []string

	for _, rule := range p.tables.misspellings {
		if !rule.re.MatchString(text) {
			continue
		}
		text = rule.re.ReplaceAllString(text, rule.replacement)
		corrections = append(corrections, rule.description)
	}

	if p.corrector == nil {
		return text, corrections, nil
	}

	var records []SpellCorrection
	for _, word := range p.candidateWords(text) {
		correction, err := p.corrector.CorrectWord(ctx, word)
		if err != nil {
			p.logger.Debug("spell collaborator lookup failed", "word", word, "error", err)
			continue
		}
		if correction.Confidence < spellAcceptThreshold {
			continue
		}
		if strings.EqualFold(correction.Corrected, word) {
			continue
		}
		text = wholeWordPattern(word).ReplaceAllString(text, correction.Corrected)
		corrections = append(corrections, fmt.Sprintf(
			"Corrected spelling: '%s' -> '%s' (confidence %.2f, %s)",
			word, correction.Corrected, correction.Confidence, correction.Method))
		records = append(records, SpellCorrection{
			Original:   word,
			Corrected:  correction.Corrected,
			Confidence: correction.Confidence,
			Method:     correction.Method,
		})
	}
	return text, corrections, records
}

// candidateWords returns the distinct words worth a collaborator lookup,
// in first-occurrence order. Words of one or two letters are skipped.
func (p *Pipeline) candidateWords(text string) []string {
	var (
		words []string
		seen  = map[string]struct{}{}
	)
	for _, token := range p.tables.wordToken.FindAllString(text, -1) {
		if len(token) <= 2 {
			continue
		}
		folded := strings.ToLower(token)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		words = append(words, token)
	}
	return words
}

// correctPronouns applies the ordered pronoun repair rules. A matching
// rule rewrites every occurrence but logs a single correction.
func (p *Pipeline) correctPronouns(text string) (string, []string) {
	var corrections []string
	for _, rule := range p.tables.pronounRules {
		if !rule.re.MatchString(text) {
			continue
		}
		text = rule.re.ReplaceAllString(text, rule.replacement)
		corrections = append(corrections, rule.description)
	}
	return text, corrections
}

// correctGrammar walks the ordered grammar-pattern rules top to bottom.
func (p *Pipeline) correctGrammar(text string) (string, []string) {
	var corrections []string
	for _, rule := range p.tables.grammarRules {
		if !rule.re.MatchString(text) {
			continue
		}
		text = rule.re.ReplaceAllString(text, rule.replacement)
		corrections = append(corrections, rule.description)
	}
	return text, corrections
}

// mapInformalTerms replaces colloquial phrases with their clinical
// register equivalents, longest key first.
func (p *Pipeline) mapInformalTerms(text string) (string, []string) {
	var corrections []string
	for _, rule := range p.tables.informal {
		if !rule.re.MatchString(text) {
			continue
		}
		text = rule.re.ReplaceAllString(text, rule.replacement)
		corrections = append(corrections, rule.description)
	}
	return text, corrections
}

// correctVerbTense fixes residual tense issues the grammar stage left.
func (p *Pipeline) correctVerbTense(text string) (string, []string) {
	var corrections []string
	for _, rule := range p.tables.tenseRules {
		if !rule.re.MatchString(text) {
			continue
		}
		text = rule.re.ReplaceAllString(text, rule.replacement)
		corrections = append(corrections, rule.description)
	}
	return text, corrections
}

// finalCleanup collapses whitespace and restores the sentence capital.
// Cleanup never logs a correction.
func finalCleanup(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return text
	}
	runes := []rune(text)
	if unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		text = string(runes)
	}
	return text
}
