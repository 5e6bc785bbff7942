package utils

import "strings"

// CombineMetadata joins a product's category and description into the text
// that gets embedded: both parts trimmed, lowercased, space-separated.
// The same text must be produced at build and lookup time, otherwise
// embeddings drift between runs.
func CombineMetadata(category, description string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	d := strings.ToLower(strings.TrimSpace(description))
	if d == "" {
		return c
	}
	return c + " " + d
}

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
