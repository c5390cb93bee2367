package rag

import (
	"unicode/utf8"

	"alfredoptarigan/resume-matcher/internal/models"
)

func isHangulSyllable(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7A3
}

// EstimateTokens approximates the token count of text. Characters per token
// moves linearly from 4 for text with no Hangul to 2 for text that is all Hangul.
func EstimateTokens(text string) int {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}

	korean := 0
	for _, r := range text {
		if isHangulSyllable(r) {
			korean++
		}
	}

	ratio := float64(korean) / float64(total)
	charsPerToken := 4 - ratio*2
	return int(float64(total) / charsPerToken)
}

// AddTokenCounts fills CharCount and TokenCount on every chunk.
func AddTokenCounts(chunks []models.Chunk) {
	for i := range chunks {
		chunks[i].CharCount = utf8.RuneCountInString(chunks[i].Content)
		chunks[i].TokenCount = EstimateTokens(chunks[i].Content)
	}
}
