package metrics

// TokenUsage captures LLM token counts used to satisfy a request.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// NormalizationOutcome summarizes what a single pipeline run did, for
// request-level reporting.
type NormalizationOutcome struct {
	Corrections       int     `json:"corrections"`
	SpellReplacements int     `json:"spellReplacements,omitempty"`
	EntitiesFound     int     `json:"entitiesFound,omitempty"`
	Confidence        float64 `json:"confidence"`
}
