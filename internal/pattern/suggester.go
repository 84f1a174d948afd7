package pattern

import (
	"fmt"

	"github.com/Veraticus/spice-patterns/internal/model"
)

// Suggestion is a ranked match annotated for display.
type Suggestion struct {
	DirectionErr error
	Reason       string
	model.PatternMatch
}

// Suggester ranks categories for whole transactions.
type Suggester struct {
	matcher    *Matcher
	categories map[string]model.Category
}

// NewSuggester creates a suggester over a matcher and the categories its patterns reference.
func NewSuggester(matcher *Matcher, categories []model.Category) *Suggester {
	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return &Suggester{
		matcher:    matcher,
		categories: byID,
	}
}

// Suggest returns up to maxSuggestions suggestions for txn, highest confidence first.
// Only the best match per category is kept.
func (s *Suggester) Suggest(txn model.Transaction, maxSuggestions int) []Suggestion {
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}

	matches := s.matcher.Match(txn.MatchText())
	matches.Sort()

	suggestions := make([]Suggestion, 0, maxSuggestions)
	seen := make(map[string]bool)

	for _, m := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		if seen[m.CategoryID] {
			continue
		}
		seen[m.CategoryID] = true

		if m.Category == nil {
			if cat, ok := s.categories[m.CategoryID]; ok {
				m.Category = &cat
			}
		}

		suggestion := Suggestion{PatternMatch: m}
		suggestion.Reason = s.generateReason(m)
		if m.Category != nil {
			suggestion.DirectionErr = ValidateDirection(txn, *m.Category)
		}
		suggestions = append(suggestions, suggestion)
	}

	return suggestions
}

// generateReason creates a human-readable explanation for a suggestion.
func (s *Suggester) generateReason(m model.PatternMatch) string {
	name := m.CategoryID
	if m.Category != nil {
		name = m.Category.Name
	}
	return fmt.Sprintf("Description matches /%s/ which is usually categorized as %s (%.0f%% confidence)",
		m.Pattern, name, m.Confidence*100)
}
