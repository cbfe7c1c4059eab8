package normalizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// patternRule is one ordered match/replace rule. Rule lists rely on list
// position for precedence: more specific patterns must precede the general
// ones that would otherwise consume part of the same phrase.
type patternRule struct {
	re          *regexp.Regexp
	replacement string
	description string
}

// dictionaryRule is a compiled whole-word dictionary entry.
type dictionaryRule struct {
	key         string
	re          *regexp.Regexp
	replacement string
	description string
}

// ruleTables holds every immutable table the pipeline consults. Built once
// in newRuleTables and never mutated afterward, so a single pipeline can be
// shared by any number of concurrent callers.
type ruleTables struct {
	pronounTokens []patternRule
	abbreviations []dictionaryRule
	misspellings  []dictionaryRule
	pronounRules  []patternRule
	grammarRules  []patternRule
	informal      []dictionaryRule
	tenseRules    []patternRule
	clinicalTerms []string
	entityShapes  []*regexp.Regexp
	wordToken     *regexp.Regexp
}

func newRuleTables() *ruleTables {
	t := &ruleTables{}

	// Standalone lowercase first-person tokens. Contractions first so the
	// bare "i" rule does not claim their log entry.
	t.pronounTokens = []patternRule{
		{re: regexp.MustCompile(`\bi'm\b`), replacement: "I'm", description: "Capitalized 'i'm'"},
		{re: regexp.MustCompile(`\bi've\b`), replacement: "I've", description: "Capitalized 'i've'"},
		{re: regexp.MustCompile(`\bi'll\b`), replacement: "I'll", description: "Capitalized 'i'll'"},
		{re: regexp.MustCompile(`\bi'd\b`), replacement: "I'd", description: "Capitalized 'i'd'"},
		{re: regexp.MustCompile(`\bi\b`), replacement: "I", description: "Capitalized standalone 'i'"},
	}

	t.abbreviations = compileDictionary(map[string]string{
		"n":    "and",
		"u":    "you",
		"r":    "are",
		"ur":   "your",
		"abt":  "about",
		"b4":   "before",
		"w/":   "with",
		"w/o":  "without",
		"b/c":  "because",
		"hrs":  "hours",
		"mins": "minutes",
		"wks":  "weeks",
		"temp": "temperature",
		"bp":   "blood pressure",
		"meds": "medications",
		"dr":   "doctor",
		"appt": "appointment",
		"asap": "as soon as possible",
	}, byKey, "Expanded abbreviation: '%s' -> '%s'")

	t.misspellings = compileDictionary(map[string]string{
		"haedache":  "headache",
		"headach":   "headache",
		"migrane":   "migraine",
		"feaver":    "fever",
		"fevar":     "fever",
		"stomache":  "stomach",
		"stomack":   "stomach",
		"vomitting": "vomiting",
		"diarea":    "diarrhea",
		"diarrea":   "diarrhea",
		"nausia":    "nausea",
		"nauseus":   "nauseous",
		"caugh":     "cough",
		"coughf":    "cough",
		"breth":     "breath",
		"dizzyness": "dizziness",
		"dizy":      "dizzy",
		"painfull":  "painful",
		"swolen":    "swollen",
		"cant":      "can't",
		"wont":      "won't",
		"dont":      "don't",
	}, byKey, "Corrected misspelling: '%s' -> '%s'")

	// Lowercase-targeted repairs left over when the capitalization stage
	// could not claim the token (mid-pipeline rewrites may reintroduce
	// a lowercase pronoun).
	t.pronounRules = []patternRule{
		{re: regexp.MustCompile(`(?i)^me `), replacement: "my ", description: "Corrected pronoun: 'me' -> 'my'"},
		{re: regexp.MustCompile(`^i `), replacement: "I ", description: "Capitalized sentence-initial 'i'"},
		{re: regexp.MustCompile(` i `), replacement: " I ", description: "Capitalized standalone 'i'"},
	}

	t.grammarRules = []patternRule{
		{
			re:          regexp.MustCompile(`(?i)\bi having fever (\d+) days?\b`),
			replacement: "I have been having a fever for $1 days",
			description: "Rephrased 'having fever N days' construction",
		},
		{
			re:          regexp.MustCompile(`(?i)\b(he|she) having fever (\d+) days?\b`),
			replacement: "$1 has been having a fever for $2 days",
			description: "Rephrased 'having fever N days' construction",
		},
		{
			re:          regexp.MustCompile(`(?i)\bi having (a |an )?(\w+)\b`),
			replacement: "I have been having $1$2",
			description: "Rephrased 'i having' construction",
		},
		{
			re:          regexp.MustCompile(`(?i)\bhurt when breath\b`),
			replacement: "hurts when I breathe",
			description: "Rephrased 'hurt when breath' construction",
		},
		{
			re:          regexp.MustCompile(`(?i)\bsince (\d+) days\b`),
			replacement: "for $1 days",
			description: "Corrected 'since N days' to 'for N days'",
		},
		{
			re:          regexp.MustCompile(`(?i)\bis paining\b`),
			replacement: "is painful",
			description: "Corrected 'is paining' to 'is painful'",
		},
	}

	t.informal = compileDictionary(map[string]string{
		"throwing up":        "vomiting",
		"threw up":           "vomited",
		"tummy":              "stomach",
		"belly":              "abdomen",
		"can't poop":         "constipated",
		"pooping water":      "having diarrhea",
		"head is killing me": "head hurts severely",
		"super tired":        "severely fatigued",
		"wiped out":          "fatigued",
		"out of breath":      "short of breath",
		"can't breathe":      "having difficulty breathing",
		"runny nose":         "nasal discharge",
		"feeling funny":      "feeling unwell",
	}, byLengthDesc, "Replaced informal phrase: '%s' -> '%s'")

	t.tenseRules = []patternRule{
		{
			re:          regexp.MustCompile(`(?i)\b(\w+) hurt (\d+) days?\b`),
			replacement: "$1 has been hurting for $2 days",
			description: "Corrected verb tense: 'hurt N days'",
		},
		{
			re:          regexp.MustCompile(`(?i)\b(\w+) hurting (\d+) days?\b`),
			replacement: "$1 has been hurting for $2 days",
			description: "Corrected verb tense: 'hurting N days'",
		},
		{
			re:          regexp.MustCompile(`(?i)\b(\w+) hurt since\b`),
			replacement: "$1 has been hurting since",
			description: "Corrected verb tense: 'hurt since'",
		},
	}

	t.clinicalTerms = []string{
		"fever", "pain", "headache", "nausea", "vomiting",
		"cough", "dizziness", "fatigue", "breathing", "rash",
	}

	t.entityShapes = []*regexp.Regexp{
		regexp.MustCompile(`\b\d+/\d+\b`),
		regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*mg\b`),
		regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*degrees\b`),
		regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*bpm\b`),
	}

	t.wordToken = regexp.MustCompile(`[a-zA-Z]+(?:'[a-zA-Z]+)?`)

	return t
}

type dictionaryOrder int

const (
	// byKey yields a stable lexicographic walk; dictionary insertion order
	// is meaningless, but the audit trail must be deterministic.
	byKey dictionaryOrder = iota
	// byLengthDesc checks longer keys first so a short entry cannot
	// pre-empt a longer, more specific phrase.
	byLengthDesc
)

func compileDictionary(entries map[string]string, order dictionaryOrder, descFormat string) []dictionaryRule {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	switch order {
	case byLengthDesc:
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) > len(keys[j])
			}
			return keys[i] < keys[j]
		})
	default:
		sort.Strings(keys)
	}

	rules := make([]dictionaryRule, 0, len(keys))
	for _, key := range keys {
		rules = append(rules, dictionaryRule{
			key:         key,
			re:          wholeWordPattern(key),
			replacement: entries[key],
			description: fmt.Sprintf(descFormat, key, entries[key]),
		})
	}
	return rules
}

// wholeWordPattern builds a case-insensitive matcher for key, anchoring a
// word boundary only on edges that are word characters ("w/" has none on
// its right side).
func wholeWordPattern(key string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?i)`)
	if isWordChar(key[0]) {
		b.WriteString(`\b`)
	}
	b.WriteString(regexp.QuoteMeta(key))
	if isWordChar(key[len(key)-1]) {
		b.WriteString(`\b`)
	}
	return regexp.MustCompile(b.String())
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
