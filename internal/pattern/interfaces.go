// Package pattern implements the categorization pattern engine: it normalizes
// bank-transaction descriptions, extracts candidate regex fragments from them,
// matches descriptions against a learned pattern set, and reinforces or decays
// pattern confidence as users categorize transactions.
//
// Extraction and matching are pure. Learning is the only side-effecting step and
// reaches storage exclusively through PatternStore.
package pattern

import (
	"context"

	"github.com/Veraticus/spice-patterns/internal/model"
)

// PatternStore is the persistence capability the learner needs.
type PatternStore interface {
	// FindPattern returns the pattern owned by userID with exactly this text.
	// It returns an error wrapping common.ErrNotFound when no such pattern exists.
	FindPattern(ctx context.Context, userID, patternText string) (*model.Pattern, error)
	// InsertPattern stores a new pattern and fills in its ID.
	InsertPattern(ctx context.Context, p *model.Pattern) error
	// UpdatePattern applies the non-nil fields of update to the pattern with the given ID.
	UpdatePattern(ctx context.Context, id string, update model.PatternUpdate) error
}

// PatternLister loads the pattern set a Matcher is built from.
type PatternLister interface {
	ListPatterns(ctx context.Context, userID string, filter model.PatternFilter) ([]model.Pattern, error)
}
