package provider

import "strings"

// NormalizeTokens trims, lower-cases, and de-duplicates media format tokens,
// dropping blank entries. First-seen order is preserved so equal inputs always
// produce equal output.
func NormalizeTokens(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		token := strings.ToLower(strings.TrimSpace(value))
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// ParseTokenList splits a comma separated list ("Vinyl, cassette") into tokens.
func ParseTokenList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return NormalizeTokens(strings.Split(value, ","))
}
