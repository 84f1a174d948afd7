package pattern

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var nonWordRegex = regexp.MustCompile(`[^\w\s]+`)

// Normalize returns the canonical comparison form of a description: NFKC-folded,
// lowercased, stripped of everything except ASCII word characters and whitespace,
// with whitespace runs collapsed to one space and the ends trimmed.
func Normalize(text string) string {
	text = strings.ToLower(norm.NFKC.String(text))
	text = nonWordRegex.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// stripPunctuation applies the NFKC fold and character filter of Normalize
// without lowercasing or collapsing whitespace.
func stripPunctuation(text string) string {
	return nonWordRegex.ReplaceAllString(norm.NFKC.String(text), "")
}
