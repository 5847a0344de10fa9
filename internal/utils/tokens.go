package utils

// Rough token estimation used for prompt-size logging and observation budgets.
// 1 token is approximated as 4 characters; exact model tokenizers are not needed here.

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit truncates text to roughly fit within a token limit.
// The returned flag reports whether anything was cut.
func TruncateToTokenLimit(text string, limit int) (string, bool) {
	if limit <= 0 {
		return "", text != ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text, false
	}
	return string(runes[:charLimit]), true
}
