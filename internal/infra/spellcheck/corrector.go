// Package spellcheck is the default spell-check collaborator consumed by
// the normalizer pipeline: a frequency dictionary plus bounded
// edit-distance candidate search, with the original word's case pattern
// preserved on the way out.
package spellcheck

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/clinscribe/intake/internal/domain/normalizer"
)

const (
	maxEditDistance = 2
	minWordLength   = 3

	methodExact        = "exact"
	methodEditDistance = "edit_distance"
	methodNoSuggestion = "no_suggestion"

	// Confidence by distance. Single-letter slips are trusted well above
	// the pipeline's acceptance threshold; two-edit guesses sit just over.
	distanceOneConfidence = 0.85
	distanceTwoConfidence = 0.72
)

// Corrector implements normalizer.WordCorrector against the built-in
// dictionary. Stateless after construction and safe for concurrent use.
type Corrector struct {
	words    map[string]int
	byLength map[int][]string
	logger   *slog.Logger
}

// NewCorrector indexes the dictionary by word length so candidate search
// only scans words whose length is within the edit-distance bound.
func NewCorrector(logger *slog.Logger) *Corrector {
	c := &Corrector{
		words:    wordFrequencies,
		byLength: make(map[int][]string),
		logger:   logger.With("component", "spellcheck.corrector"),
	}
	for word := range wordFrequencies {
		c.byLength[len(word)] = append(c.byLength[len(word)], word)
	}
	return c
}

// CorrectWord returns the best correction for a single word together with
// a confidence score and the method that produced it. Known words come
// back unchanged with full confidence; unknown words without a candidate
// come back unchanged with zero confidence.
func (c *Corrector) CorrectWord(ctx context.Context, word string) (normalizer.WordCorrection, error) {
	if err := ctx.Err(); err != nil {
		return normalizer.WordCorrection{}, err
	}

	lower := strings.ToLower(word)
	if len(lower) < minWordLength || !isAlphabetic(lower) {
		return normalizer.WordCorrection{Corrected: word, Confidence: 1.0, Method: methodExact}, nil
	}
	if _, known := c.words[lower]; known {
		return normalizer.WordCorrection{Corrected: word, Confidence: 1.0, Method: methodExact}, nil
	}

	candidate, distance, found := c.bestCandidate(lower)
	if !found {
		return normalizer.WordCorrection{Corrected: word, Confidence: 0.0, Method: methodNoSuggestion}, nil
	}

	confidence := distanceOneConfidence
	if distance > 1 {
		confidence = distanceTwoConfidence
	}
	return normalizer.WordCorrection{
		Corrected:  matchCase(word, candidate),
		Confidence: confidence,
		Method:     methodEditDistance,
	}, nil
}

// bestCandidate scans dictionary words within the length bound and keeps
// the candidate with the smallest edit distance, breaking ties by corpus
// frequency and then alphabetically so correction is deterministic.
func (c *Corrector) bestCandidate(word string) (string, int, bool) {
	var (
		best     string
		bestDist = maxEditDistance + 1
		bestFreq = -1
	)
	for length := len(word) - maxEditDistance; length <= len(word)+maxEditDistance; length++ {
		if length < minWordLength {
			continue
		}
		for _, candidate := range c.byLength[length] {
			dist := editDistance(word, candidate, maxEditDistance)
			if dist < 0 {
				continue
			}
			freq := c.words[candidate]
			if dist < bestDist ||
				(dist == bestDist && freq > bestFreq) ||
				(dist == bestDist && freq == bestFreq && candidate < best) {
				best = candidate
				bestDist = dist
				bestFreq = freq
			}
		}
	}
	if bestDist > maxEditDistance {
		return "", 0, false
	}
	return best, bestDist, true
}

// editDistance is Levenshtein distance bounded by limit; it returns -1 as
// soon as the distance is provably above the limit.
func editDistance(a, b string, limit int) int {
	if abs(len(a)-len(b)) > limit {
		return -1
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > limit {
			return -1
		}
		prev, curr = curr, prev
	}
	if prev[len(b)] > limit {
		return -1
	}
	return prev[len(b)]
}

// matchCase maps the candidate onto the original word's case pattern:
// all-caps stays all-caps, a leading capital is kept, everything else is
// returned as stored.
func matchCase(original, candidate string) string {
	if original == strings.ToUpper(original) && len(original) > 1 {
		return strings.ToUpper(candidate)
	}
	first := []rune(original)[0]
	if unicode.IsUpper(first) {
		runes := []rune(candidate)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	}
	return candidate
}

func isAlphabetic(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) && r != '\'' {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

var _ normalizer.WordCorrector = (*Corrector)(nil)
