package pattern

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/model"
)

// DefaultMaxCandidates bounds how many extracted patterns one categorization writes.
const DefaultMaxCandidates = 3

// Outcome describes what happened to one candidate pattern during learning.
type Outcome string

const (
	// OutcomeCreated means a new pattern row was inserted.
	OutcomeCreated Outcome = "created"
	// OutcomeReinforced means an existing pattern for the same category gained confidence.
	OutcomeReinforced Outcome = "reinforced"
	// OutcomeDecayed means an existing pattern bound to another category lost confidence.
	OutcomeDecayed Outcome = "decayed"
	// OutcomeFailed means a store call failed and the candidate was abandoned.
	OutcomeFailed Outcome = "failed"
)

// CandidateResult records the outcome for one candidate pattern.
type CandidateResult struct {
	Err        error
	Pattern    string
	PatternID  string
	Outcome    Outcome
	Confidence int
}

// LearnResult summarizes one learning pass.
type LearnResult struct {
	Candidates []CandidateResult
}

// Count returns how many candidates ended with the given outcome.
func (r *LearnResult) Count(o Outcome) int {
	n := 0
	for _, c := range r.Candidates {
		if c.Outcome == o {
			n++
		}
	}
	return n
}

// Err joins the per-candidate store failures, or returns nil.
func (r *LearnResult) Err() error {
	var errs []error
	for _, c := range r.Candidates {
		if c.Err != nil {
			errs = append(errs, c.Err)
		}
	}
	return errors.Join(errs...)
}

// Learner turns user categorizations into stored pattern confidence.
type Learner struct {
	store         PatternStore
	extractor     *Extractor
	now           func() time.Time
	logger        *slog.Logger
	maxCandidates int
}

// LearnerOption configures a Learner.
type LearnerOption func(*Learner)

// WithExtractor sets the extractor used to derive candidates.
func WithExtractor(e *Extractor) LearnerOption {
	return func(l *Learner) {
		if e != nil {
			l.extractor = e
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LearnerOption {
	return func(l *Learner) {
		if now != nil {
			l.now = now
		}
	}
}

// WithMaxCandidates changes how many candidates are written per categorization.
func WithMaxCandidates(n int) LearnerOption {
	return func(l *Learner) {
		if n > 0 {
			l.maxCandidates = n
		}
	}
}

// WithLogger sets the logger used for per-candidate failures.
func WithLogger(logger *slog.Logger) LearnerOption {
	return func(l *Learner) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLearner creates a learner backed by store.
func NewLearner(store PatternStore, opts ...LearnerOption) *Learner {
	l := &Learner{
		store:         store,
		extractor:     defaultExtractor,
		now:           time.Now,
		logger:        slog.Default(),
		maxCandidates: DefaultMaxCandidates,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Learn records that the user filed description under categoryID.
//
// Each of the leading candidate patterns is processed independently and in
// order: a pattern already bound to categoryID is reinforced, one bound to a
// different category decays without changing its binding, and an unknown
// pattern is created. A store failure abandons only that candidate.
// Missing user or category context is returned as an error before any write.
func (l *Learner) Learn(ctx context.Context, description, categoryID, userID string) (*LearnResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.ErrMissingUser
	}
	if strings.TrimSpace(categoryID) == "" {
		return nil, common.ErrMissingCategory
	}

	candidates := l.extractor.Extract(description)
	if len(candidates) > l.maxCandidates {
		candidates = candidates[:l.maxCandidates]
	}

	result := &LearnResult{Candidates: make([]CandidateResult, 0, len(candidates))}
	for _, text := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res := l.learnCandidate(ctx, text, categoryID, userID)
		if res.Err != nil {
			l.logger.Warn("Failed to learn pattern",
				"user_id", userID,
				"pattern", text,
				"category_id", categoryID,
				"error", res.Err)
		}
		result.Candidates = append(result.Candidates, res)
	}

	l.logger.Debug("Learned from categorization",
		"user_id", userID,
		"category_id", categoryID,
		"candidates", len(candidates),
		"created", result.Count(OutcomeCreated),
		"reinforced", result.Count(OutcomeReinforced),
		"decayed", result.Count(OutcomeDecayed),
		"failed", result.Count(OutcomeFailed))

	return result, nil
}

func (l *Learner) learnCandidate(ctx context.Context, text, categoryID, userID string) CandidateResult {
	res := CandidateResult{Pattern: text}

	existing, err := l.store.FindPattern(ctx, userID, text)
	switch {
	case errors.Is(err, common.ErrNotFound):
		existing = nil
	case err != nil:
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("failed to look up pattern %q: %w", text, err)
		return res
	}

	now := l.now()

	if existing == nil {
		p := &model.Pattern{
			UserID:          userID,
			Pattern:         text,
			CategoryID:      categoryID,
			MatchCount:      1,
			ConfidenceScore: model.InitialConfidence,
			LastMatched:     &now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := l.store.InsertPattern(ctx, p); err != nil {
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("failed to insert pattern %q: %w", text, err)
			return res
		}
		res.Outcome = OutcomeCreated
		res.PatternID = p.ID
		res.Confidence = p.ConfidenceScore
		return res
	}

	res.PatternID = existing.ID
	update := model.PatternUpdate{UpdatedAt: now}

	var score int
	if existing.CategoryID == categoryID {
		score = model.ClampConfidence(existing.ConfidenceScore + model.ConfidenceStep)
		count := existing.MatchCount + 1
		update.MatchCount = &count
		update.LastMatched = &now
		res.Outcome = OutcomeReinforced
	} else {
		score = model.ClampConfidence(existing.ConfidenceScore - model.ConfidenceStep)
		res.Outcome = OutcomeDecayed
	}
	update.ConfidenceScore = &score

	if err := l.store.UpdatePattern(ctx, existing.ID, update); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("failed to update pattern %q: %w", text, err)
		return res
	}

	res.Confidence = score
	return res
}

// LearnFromCategorization runs a default learner once. Per-candidate store
// failures are logged and swallowed; only missing context is returned.
func LearnFromCategorization(ctx context.Context, description, categoryID, userID string, store PatternStore) error {
	_, err := NewLearner(store).Learn(ctx, description, categoryID, userID)
	return err
}
