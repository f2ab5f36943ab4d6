package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold returns the case-folded form of s used for case-insensitive matching.
// Unlike strings.ToLower it maps ß to ss and final sigma consistently.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// DisplayName turns a path segment such as "miles_davis" into "Miles Davis".
// Segments that already contain upper-case letters are only trimmed, so
// deliberate spellings like "AC/DC" or "dEUS" keep their casing.
func DisplayName(segment string) string {
	cleaned := strings.Join(strings.FieldsFunc(segment, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	}), " ")
	if cleaned == "" {
		return ""
	}
	for _, r := range cleaned {
		if unicode.IsUpper(r) {
			return cleaned
		}
	}
	return cases.Title(language.Und).String(cleaned)
}
