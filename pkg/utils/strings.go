package utils

import (
	"strings"
	"unicode/utf8"
)

// ChunkDelimiter lets the model split one answer into several chat
// messages for natural pacing.
const ChunkDelimiter = "|||"

// SplitChunks splits content on the chunk delimiter, trimming each
// piece and dropping empty ones.
func SplitChunks(content string) []string {
	var chunks []string
	for _, part := range strings.Split(content, ChunkDelimiter) {
		if part = strings.TrimSpace(part); part != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks
}

// Truncate shortens s to at most max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// SplitMessage splits content into chunks of at most limit runes,
// preferring to break at newlines so platform length caps don't cut
// sentences mid-line.
func SplitMessage(content string, limit int) []string {
	runes := []rune(content)
	if limit <= 0 || len(runes) <= limit {
		return []string{content}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
