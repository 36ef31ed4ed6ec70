// Package strings provides string normalization utilities.
package strings

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCaseName normalizes a person's name: internal whitespace is collapsed
// to single spaces, the string is trimmed, and each word gets an upper-case
// first letter with the rest lowered ("jAnE   doe" -> "Jane Doe").
//
// All entry paths (webhook ingestion, batch import, ticket rendering) must
// use this before signing or deduplicating, or identity comparison breaks.
func TitleCaseName(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	if collapsed == "" {
		return ""
	}
	return cases.Title(language.Und).String(collapsed)
}

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
