package utils

import "strings"

// charsPerToken is the rough ratio used by every estimate in this package.
// Model tokenizers differ; budgets built on it should leave headroom.
const charsPerToken = 4

// CountTokens estimates the number of tokens in text. Non-empty text counts
// as at least one token.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / charsPerToken
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to roughly fit within limit tokens. When the
// cut lands inside a line and an earlier newline sits in the back half of the
// kept text, it backs up to that newline so Markdown tables lose whole rows.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * charsPerToken
	if charLimit >= len(runes) {
		return text
	}
	kept := string(runes[:charLimit])
	if runes[charLimit] == '\n' {
		return kept
	}
	if i := strings.LastIndexByte(kept, '\n'); i >= len(kept)/2 {
		return kept[:i+1]
	}
	return kept
}

// TokenBreakdown estimates tokens per labeled section.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
