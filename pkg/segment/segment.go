// Package segment splits raw text into bounded reading chunks at sentence
// boundaries.
package segment

import "strings"

// DefaultChunkSize is the chunk budget used by the import pipeline when the
// caller does not specify one.
const DefaultChunkSize = 2000

// isTerminator reports whether r ends a Japanese sentence.
func isTerminator(r rune) bool {
	return r == '。' || r == '！' || r == '？' || r == '\n'
}

// Segment splits text into ordered, non-empty chunks of at most maxChunkSize
// runes. A chunk boundary is emitted when the accumulated length reaches
// maxChunkSize, or at a sentence terminator once at least half the budget has
// accumulated, so chunks prefer to end on sentence boundaries without becoming
// pathologically short. Lengths are measured in runes, not bytes.
func Segment(text string, maxChunkSize int) []string {
	if text == "" {
		return nil
	}
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}

	runes := []rune(text)
	if len(runes) <= maxChunkSize {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}

	var chunks []string
	var current []rune
	for _, r := range runes {
		current = append(current, r)
		atBudget := len(current) >= maxChunkSize
		atSentenceEnd := isTerminator(r) && len(current) >= maxChunkSize/2
		if atBudget || atSentenceEnd {
			if trimmed := strings.TrimSpace(string(current)); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			current = current[:0]
		}
	}
	if trimmed := strings.TrimSpace(string(current)); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}
