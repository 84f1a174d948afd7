package model

import (
	"fmt"
	"time"
)

// Confidence bounds applied by the learner.
const (
	// MinConfidence is the floor a decayed pattern can reach.
	MinConfidence = 10
	// MaxConfidence is the highest trust level a pattern can have.
	MaxConfidence = 100
	// InitialConfidence is the score a newly learned pattern starts with.
	InitialConfidence = 60
	// ConfidenceStep is the amount added on reinforcement and removed on decay.
	ConfidenceStep = 5
)

// Pattern is a learned rule mapping a description fragment to a category.
type Pattern struct {
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastMatched     *time.Time `json:"last_matched,omitempty"`
	Category        *Category  `json:"category,omitempty"`
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Pattern         string     `json:"pattern"`
	CategoryID      string     `json:"category_id"`
	MatchCount      int        `json:"match_count"`
	ConfidenceScore int        `json:"confidence_score"`
}

// Validate checks the fields every stored pattern must carry.
func (p *Pattern) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if p.Pattern == "" {
		return fmt.Errorf("pattern text is required")
	}
	if p.CategoryID == "" {
		return fmt.Errorf("category id is required")
	}
	if p.ConfidenceScore < 0 || p.ConfidenceScore > MaxConfidence {
		return fmt.Errorf("confidence score must be between 0 and %d, got %d", MaxConfidence, p.ConfidenceScore)
	}
	if p.MatchCount < 0 {
		return fmt.Errorf("match count cannot be negative, got %d", p.MatchCount)
	}
	return nil
}

// PatternUpdate carries the mutable fields of a pattern. Nil fields are left untouched.
type PatternUpdate struct {
	UpdatedAt       time.Time
	ConfidenceScore *int
	MatchCount      *int
	LastMatched     *time.Time
}

// PatternFilter narrows the set of patterns a caller loads for matching.
// Zero values match everything.
type PatternFilter struct {
	CategoryType CategoryType
	CategoryID   string
}

// ClampConfidence bounds a score to [MinConfidence, MaxConfidence].
func ClampConfidence(score int) int {
	if score < MinConfidence {
		return MinConfidence
	}
	if score > MaxConfidence {
		return MaxConfidence
	}
	return score
}
