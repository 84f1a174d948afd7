package pattern

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMinTokenLength is the shortest token considered significant.
	DefaultMinTokenLength = 5

	// wordConnector joins tokens inside multi-word patterns.
	wordConnector = `\s+`
)

// capitalizedWordRegex only accepts whole words, so "McDonalds" or "eBay" contribute nothing.
var capitalizedWordRegex = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

// Extractor derives candidate patterns from raw descriptions.
type Extractor struct {
	stopwords      *Stopwords
	minTokenLength int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithStopwords replaces the built-in stopword set.
func WithStopwords(s *Stopwords) ExtractorOption {
	return func(e *Extractor) {
		if s != nil {
			e.stopwords = s
		}
	}
}

// WithMinTokenLength changes the minimum significant token length.
func WithMinTokenLength(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.minTokenLength = n
		}
	}
}

// NewExtractor creates an extractor using the default stopwords unless overridden.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		stopwords:      DefaultStopwords(),
		minTokenLength: DefaultMinTokenLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = NewExtractor()

// ExtractPatterns runs the default extractor over a description.
func ExtractPatterns(description string) []string {
	return defaultExtractor.Extract(description)
}

// Extract returns candidate patterns ordered from strongest to weakest:
// single words, adjacent word pairs, the first three-word phrase, and
// finally a pattern built from the capitalized words of the original text.
// Capitalized words are read after punctuation removal so "Whole-Foods" is
// one word, as it is in the normalized text the patterns are matched against.
func (e *Extractor) Extract(description string) []string {
	tokens := e.significantTokens(Normalize(description))

	var candidates []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		candidates = append(candidates, p)
	}

	for _, tok := range tokens {
		add(wordPattern(tok))
	}

	for i := 0; i+1 < len(tokens); i++ {
		add(phrasePattern(tokens[i : i+2]))
	}

	if len(tokens) >= 3 {
		add(phrasePattern(tokens[:3]))
	}

	if caps := capitalizedWordRegex.FindAllString(stripPunctuation(description), -1); len(caps) > 0 {
		words := make([]string, len(caps))
		for i, c := range caps {
			words[i] = strings.ToLower(c)
		}
		if len(words) == 1 {
			add(wordPattern(words[0]))
		} else {
			add(phrasePattern(words))
		}
	}

	return candidates
}

// significantTokens keeps tokens long enough to carry signal that are not stopwords.
func (e *Extractor) significantTokens(normalized string) []string {
	var tokens []string
	for _, tok := range strings.Fields(normalized) {
		if utf8.RuneCountInString(tok) < e.minTokenLength {
			continue
		}
		if e.stopwords.Contains(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// wordPattern escapes a token and anchors it on word boundaries.
func wordPattern(token string) string {
	return `\b` + regexp.QuoteMeta(token) + `\b`
}

// phrasePattern escapes each token and joins them with a whitespace connector.
func phrasePattern(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	return strings.Join(quoted, wordConnector)
}
