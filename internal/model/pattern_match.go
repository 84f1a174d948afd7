package model

import (
	"fmt"
	"sort"
)

// PatternMatch is the result of one stored pattern matching a description.
type PatternMatch struct {
	Category   *Category
	CategoryID string
	PatternID  string
	Pattern    string
	Confidence float64
}

// Validate ensures the PatternMatch has valid data.
func (m *PatternMatch) Validate() error {
	if m.CategoryID == "" {
		return fmt.Errorf("category id is required")
	}

	if m.Confidence < 0.0 || m.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", m.Confidence)
	}

	return nil
}

// PatternMatches is a slice of PatternMatch that supports ranking.
type PatternMatches []PatternMatch

// Len implements sort.Interface.
func (m PatternMatches) Len() int {
	return len(m)
}

// Less implements sort.Interface - higher confidence comes first.
func (m PatternMatches) Less(i, j int) bool {
	return m[i].Confidence > m[j].Confidence
}

// Swap implements sort.Interface.
func (m PatternMatches) Swap(i, j int) {
	m[i], m[j] = m[j], m[i]
}

// Sort orders matches by descending confidence. Equal confidences keep their original order.
func (m PatternMatches) Sort() {
	sort.Stable(m)
}

// Top returns the highest-confidence match, or nil if empty.
// Ties go to the match that appeared first.
func (m PatternMatches) Top() *PatternMatch {
	if len(m) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(m); i++ {
		if m[i].Confidence > m[best].Confidence {
			best = i
		}
	}

	top := m[best]
	return &top
}

// TopN returns a sorted copy of the N highest-confidence matches.
func (m PatternMatches) TopN(n int) PatternMatches {
	if n <= 0 {
		return PatternMatches{}
	}

	sorted := make(PatternMatches, len(m))
	copy(sorted, m)
	sorted.Sort()

	if n > len(sorted) {
		n = len(sorted)
	}

	return sorted[:n]
}

// AboveThreshold returns all matches with confidence at or above the threshold, sorted.
func (m PatternMatches) AboveThreshold(threshold float64) PatternMatches {
	var result PatternMatches
	for _, match := range m {
		if match.Confidence >= threshold {
			result = append(result, match)
		}
	}
	result.Sort()
	return result
}

// Validate ensures all matches in the slice are valid.
func (m PatternMatches) Validate() error {
	for i, match := range m {
		if err := match.Validate(); err != nil {
			return fmt.Errorf("invalid match at index %d: %w", i, err)
		}
	}
	return nil
}
