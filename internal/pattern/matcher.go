package pattern

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultMaxSuggestions is how many suggestions GenerateSuggestions returns when no limit is given.
const DefaultMaxSuggestions = 5

// regexMetachars are the characters that mark a stored pattern as a compound expression.
const regexMetachars = `\.+*?()|[]{}^$`

// compiledPattern pairs a stored pattern with its compiled expression.
type compiledPattern struct {
	re      *regexp.Regexp
	pattern model.Pattern
}

// Matcher evaluates descriptions against a fixed set of stored patterns.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	compiled []compiledPattern
	skipped  int
}

// NewMatcher compiles the given patterns. Patterns that fail to compile are
// logged and skipped so one bad row never blocks the rest.
func NewMatcher(patterns []model.Pattern) *Matcher {
	m := &Matcher{
		compiled: make([]compiledPattern, 0, len(patterns)),
	}

	for _, p := range patterns {
		if strings.TrimSpace(p.Pattern) == "" {
			slog.Warn("Skipping empty pattern", "pattern_id", p.ID)
			m.skipped++
			continue
		}

		re, err := common.CompileInsensitive(EnsureWordBoundary(p.Pattern))
		if err != nil {
			slog.Warn("Skipping invalid pattern",
				"pattern_id", p.ID,
				"pattern", p.Pattern,
				"error", err)
			m.skipped++
			continue
		}

		m.compiled = append(m.compiled, compiledPattern{re: re, pattern: p})
	}

	return m
}

// Len returns the number of usable patterns.
func (m *Matcher) Len() int {
	return len(m.compiled)
}

// Skipped returns how many input patterns could not be compiled.
func (m *Matcher) Skipped() int {
	return m.skipped
}

// Match returns one PatternMatch per pattern that matches the normalized
// description, in the order the patterns were supplied.
func (m *Matcher) Match(description string) model.PatternMatches {
	normalized := Normalize(description)

	var matches model.PatternMatches
	for _, cp := range m.compiled {
		if !cp.re.MatchString(normalized) {
			continue
		}
		matches = append(matches, model.PatternMatch{
			CategoryID: cp.pattern.CategoryID,
			Confidence: float64(cp.pattern.ConfidenceScore) / 100,
			PatternID:  cp.pattern.ID,
			Pattern:    cp.pattern.Pattern,
			Category:   cp.pattern.Category,
		})
	}

	return matches
}

// Best returns the highest-confidence match. Ties go to the earliest pattern.
func (m *Matcher) Best(description string) (*model.PatternMatch, bool) {
	best := m.Match(description).Top()
	return best, best != nil
}

// Suggest returns at most maxSuggestions matches sorted by descending confidence.
// The amount does not influence ranking.
func (m *Matcher) Suggest(description string, _ decimal.Decimal, maxSuggestions int) model.PatternMatches {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	return m.Match(description).TopN(maxSuggestions)
}

// MatchPatterns evaluates a description against patterns.
func MatchPatterns(description string, patterns []model.Pattern) model.PatternMatches {
	return NewMatcher(patterns).Match(description)
}

// FindBestMatch returns the highest-confidence match, or false when nothing matches.
func FindBestMatch(description string, patterns []model.Pattern) (*model.PatternMatch, bool) {
	return NewMatcher(patterns).Best(description)
}

// GenerateSuggestions returns ranked category suggestions for a description.
func GenerateSuggestions(description string, amount decimal.Decimal, patterns []model.Pattern, maxSuggestions int) model.PatternMatches {
	return NewMatcher(patterns).Suggest(description, amount, maxSuggestions)
}

// EnsureWordBoundary wraps a bare word in \b anchors so it cannot match inside
// a longer word. Sources containing regex metacharacters or whitespace are
// treated as compound expressions and returned unchanged.
func EnsureWordBoundary(source string) string {
	if strings.ContainsAny(source, regexMetachars) {
		return source
	}
	if strings.IndexFunc(source, unicode.IsSpace) >= 0 {
		return source
	}
	return `\b` + source + `\b`
}
