package pattern

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// DefaultStopwordsVersion labels the built-in stopword list.
const DefaultStopwordsVersion = "builtin-1"

// defaultStopwords are high-frequency tokens that carry no merchant signal.
var defaultStopwords = []string{
	// Banking filler
	"payment", "payments", "transfer", "transfers", "verified", "reference",
	"completed", "pending", "transaction", "purchase", "debit", "credit",
	"card", "online", "direct", "standing", "order", "account", "deposit",
	"withdrawal", "charge", "charges", "receipt", "invoice", "number",
	"faster", "contactless", "mobile", "banking", "balance",
	// Common English words
	"about", "above", "after", "again", "against", "because", "before",
	"being", "below", "between", "could", "during", "every", "other",
	"should", "their", "there", "these", "those", "through", "under",
	"until", "where", "which", "while", "would", "your", "yours",
	"from", "with", "this", "that", "have", "will", "into", "the", "and",
	"for", "via", "ref",
}

// Stopwords is an immutable, versioned set of tokens excluded from pattern candidacy.
type Stopwords struct {
	words   map[string]struct{}
	version string
}

// NewStopwords builds a stopword set. Words are normalized before insertion.
func NewStopwords(version string, words ...string) *Stopwords {
	s := &Stopwords{
		version: version,
		words:   make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		for _, tok := range strings.Fields(Normalize(w)) {
			s.words[tok] = struct{}{}
		}
	}
	return s
}

// DefaultStopwords returns the built-in stopword set.
func DefaultStopwords() *Stopwords {
	return NewStopwords(DefaultStopwordsVersion, defaultStopwords...)
}

// ReadStopwords parses one word per line. Blank lines and lines starting with # are ignored.
func ReadStopwords(version string, r io.Reader) (*Stopwords, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stopwords: %w", err)
	}
	return NewStopwords(version, words...), nil
}

// Contains reports whether the normalized token is a stopword.
func (s *Stopwords) Contains(token string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[token]
	return ok
}

// Version returns the label the set was created with.
func (s *Stopwords) Version() string {
	if s == nil {
		return ""
	}
	return s.version
}

// Len returns the number of words in the set.
func (s *Stopwords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// Words returns the set contents in sorted order.
func (s *Stopwords) Words() []string {
	if s == nil {
		return nil
	}
	words := make([]string, 0, len(s.words))
	for w := range s.words {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
