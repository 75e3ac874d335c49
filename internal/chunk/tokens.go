package chunk

import "unicode/utf8"

// CharsPerToken approximates how many characters a model token covers.
const CharsPerToken = 4

// TruncationMarker separates the kept head and tail of truncated text.
const TruncationMarker = "\n\n[... CONTENT TRUNCATED FOR LENGTH ...]\n\n"

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Truncate shortens text that exceeds maxTokens, keeping the first and last
// third of the budget around TruncationMarker. A non-positive maxTokens
// disables truncation.
func Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text
	}

	runes := []rune(text)
	keep := maxTokens * CharsPerToken / 3
	return string(runes[:keep]) + TruncationMarker + string(runes[len(runes)-keep:])
}
