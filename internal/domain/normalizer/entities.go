package normalizer

// extractEntities scans raw text for numeric medical tokens (pressure
// ratios, dosages, temperatures, rates). The tokens are reported for audit
// only; later stages are free to rewrite the same spans.
func (p *Pipeline) extractEntities(text string) []string {
	var (
		out  []string
		seen = map[string]struct{}{}
	)
	for _, shape := range p.tables.entityShapes {
		for _, match := range shape.FindAllString(text, -1) {
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			out = append(out, match)
		}
	}
	return out
}
