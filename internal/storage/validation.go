package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-patterns/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrEmptyPatternEdit = errors.New("pattern update changes nothing")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// ValidatePattern checks a pattern before any backend writes it.
func ValidatePattern(p *model.Pattern) error {
	if p == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return nil
}

// ValidatePatternUpdate rejects updates that would leave the row untouched or out of bounds.
func ValidatePatternUpdate(update model.PatternUpdate) error {
	if update.ConfidenceScore == nil && update.MatchCount == nil && update.LastMatched == nil {
		return ErrEmptyPatternEdit
	}
	if update.ConfidenceScore != nil && (*update.ConfidenceScore < 0 || *update.ConfidenceScore > model.MaxConfidence) {
		return fmt.Errorf("%w: confidence score must be between 0 and %d, got %d",
			ErrInvalidPattern, model.MaxConfidence, *update.ConfidenceScore)
	}
	if update.MatchCount != nil && *update.MatchCount < 0 {
		return fmt.Errorf("%w: match count cannot be negative, got %d", ErrInvalidPattern, *update.MatchCount)
	}
	return nil
}

// ValidateCategoryInput checks the fields every backend needs to create a category.
func ValidateCategoryInput(name string, categoryType model.CategoryType) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}
	if !categoryType.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, categoryType)
	}
	return nil
}
