package pattern

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/Veraticus/spice-patterns/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser  = "user-1"
	catOnline = "cat-online"
	catBooks  = "cat-books"
)

func newTestLearner(t *testing.T) (*Learner, *memory.Store, *time.Time) {
	t.Helper()

	store := memory.New(
		model.Category{ID: catOnline, Name: "Online Shopping", Type: model.CategoryTypeExpenditure},
		model.Category{ID: catBooks, Name: "Books", Type: model.CategoryTypeExpenditure},
	)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	learner := NewLearner(store,
		WithClock(func() time.Time { return now }),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
	return learner, store, &now
}

func listPatterns(t *testing.T, store *memory.Store) map[string]model.Pattern {
	t.Helper()
	patterns, err := store.ListPatterns(context.Background(), testUser, model.PatternFilter{})
	require.NoError(t, err)

	byText := make(map[string]model.Pattern, len(patterns))
	for _, p := range patterns {
		byText[p.Pattern] = p
	}
	return byText
}

func TestLearner_CreatesPatterns(t *testing.T) {
	learner, store, now := newTestLearner(t)
	ctx := context.Background()

	result, err := learner.Learn(ctx, "Amazon Marketplace Payment", catOnline, testUser)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count(OutcomeCreated))
	assert.NoError(t, result.Err())

	patterns := listPatterns(t, store)
	require.Len(t, patterns, 3)
	for _, text := range []string{`\bamazon\b`, `\bmarketplace\b`, `amazon\s+marketplace`} {
		p, ok := patterns[text]
		require.True(t, ok, "expected pattern %q", text)
		assert.Equal(t, model.InitialConfidence, p.ConfidenceScore)
		assert.Equal(t, 1, p.MatchCount)
		assert.Equal(t, catOnline, p.CategoryID)
		assert.Equal(t, *now, p.CreatedAt)
		require.NotNil(t, p.LastMatched)
		assert.Equal(t, *now, *p.LastMatched)
	}
}

func TestLearner_Reinforces(t *testing.T) {
	learner, store, now := newTestLearner(t)
	ctx := context.Background()

	_, err := learner.Learn(ctx, "Amazon Marketplace Payment", catOnline, testUser)
	require.NoError(t, err)

	*now = now.Add(time.Hour)
	result, err := learner.Learn(ctx, "Amazon Marketplace Payment", catOnline, testUser)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count(OutcomeReinforced))

	p := listPatterns(t, store)[`\bamazon\b`]
	assert.Equal(t, 65, p.ConfidenceScore)
	assert.Equal(t, 2, p.MatchCount)
	assert.Equal(t, *now, p.UpdatedAt)
	require.NotNil(t, p.LastMatched)
	assert.Equal(t, *now, *p.LastMatched)
}

func TestLearner_DecaysConflictingPatterns(t *testing.T) {
	learner, store, now := newTestLearner(t)
	ctx := context.Background()

	_, err := learner.Learn(ctx, "Amazon Marketplace Payment", catOnline, testUser)
	require.NoError(t, err)
	created := listPatterns(t, store)[`\bamazon\b`]

	*now = now.Add(time.Hour)
	result, err := learner.Learn(ctx, "Amazon Marketplace Payment", catBooks, testUser)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count(OutcomeDecayed))

	p := listPatterns(t, store)[`\bamazon\b`]
	assert.Equal(t, 55, p.ConfidenceScore)
	assert.Equal(t, catOnline, p.CategoryID, "decay must not rebind the category")
	assert.Equal(t, 1, p.MatchCount, "decay must not count as a match")
	assert.Equal(t, *now, p.UpdatedAt)
	assert.Equal(t, *created.LastMatched, *p.LastMatched)
}

func TestLearner_ConfidenceBounds(t *testing.T) {
	learner, store, _ := newTestLearner(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := learner.Learn(ctx, "Amazon Marketplace", catOnline, testUser)
		require.NoError(t, err)
	}
	p := listPatterns(t, store)[`\bamazon\b`]
	assert.Equal(t, model.MaxConfidence, p.ConfidenceScore)
	assert.Equal(t, 20, p.MatchCount)

	for i := 0; i < 40; i++ {
		_, err := learner.Learn(ctx, "Amazon Marketplace", catBooks, testUser)
		require.NoError(t, err)
	}
	p = listPatterns(t, store)[`\bamazon\b`]
	assert.Equal(t, model.MinConfidence, p.ConfidenceScore)
	assert.Equal(t, catOnline, p.CategoryID)
	assert.Equal(t, 20, p.MatchCount)
}

func TestLearner_ScopesPatternsByUser(t *testing.T) {
	learner, store, _ := newTestLearner(t)
	ctx := context.Background()

	_, err := learner.Learn(ctx, "Waterstones Books", catBooks, testUser)
	require.NoError(t, err)
	result, err := learner.Learn(ctx, "Waterstones Books", catOnline, "user-2")
	require.NoError(t, err)
	assert.Equal(t, len(result.Candidates), result.Count(OutcomeCreated))

	p := listPatterns(t, store)[`\bwaterstones\b`]
	assert.Equal(t, model.InitialConfidence, p.ConfidenceScore)
}

func TestLearner_MissingContext(t *testing.T) {
	learner, store, _ := newTestLearner(t)
	ctx := context.Background()

	_, err := learner.Learn(ctx, "Amazon Marketplace", catOnline, "")
	assert.ErrorIs(t, err, common.ErrMissingUser)

	_, err = learner.Learn(ctx, "Amazon Marketplace", " ", testUser)
	assert.ErrorIs(t, err, common.ErrMissingCategory)

	assert.Zero(t, store.Calls(memory.OpFind))
	assert.Zero(t, store.Calls(memory.OpInsert))

	err = LearnFromCategorization(ctx, "Amazon Marketplace", catOnline, "", store)
	assert.ErrorIs(t, err, common.ErrMissingUser)
}

func TestLearner_StoreFailuresAreIsolated(t *testing.T) {
	learner, store, _ := newTestLearner(t)
	ctx := context.Background()
	boom := errors.New("connection reset")

	store.FailOn(memory.OpFind, `\bamazon\b`, boom)
	store.FailOn(memory.OpInsert, `\bmarketplace\b`, boom)

	result, err := learner.Learn(ctx, "Amazon Marketplace Payment", catOnline, testUser)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)

	assert.Equal(t, OutcomeFailed, result.Candidates[0].Outcome)
	assert.Equal(t, OutcomeFailed, result.Candidates[1].Outcome)
	assert.Equal(t, OutcomeCreated, result.Candidates[2].Outcome)
	assert.ErrorIs(t, result.Err(), boom)

	patterns := listPatterns(t, store)
	assert.Len(t, patterns, 1)
	assert.Contains(t, patterns, `amazon\s+marketplace`)

	// Update failures are isolated too.
	store.FailOn(memory.OpFind, `\bamazon\b`, nil)
	store.FailOn(memory.OpInsert, `\bmarketplace\b`, nil)
	store.FailOn(memory.OpUpdate, `amazon\s+marketplace`, boom)

	result, err = learner.Learn(ctx, "Amazon Marketplace Payment", catOnline, testUser)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count(OutcomeCreated))
	assert.Equal(t, 1, result.Count(OutcomeFailed))
	assert.Equal(t, model.InitialConfidence, listPatterns(t, store)[`amazon\s+marketplace`].ConfidenceScore)
}

func TestLearner_ProcessesAtMostMaxCandidates(t *testing.T) {
	learner, store, _ := newTestLearner(t)

	_, err := learner.Learn(context.Background(), "SAINSBURYS SUPERMARKET CAMDEN LONDON", catOnline, testUser)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxCandidates, store.Calls(memory.OpFind))
	assert.Len(t, listPatterns(t, store), DefaultMaxCandidates)

	wide := NewLearner(store, WithMaxCandidates(5))
	result, err := wide.Learn(context.Background(), "SAINSBURYS SUPERMARKET CAMDEN LONDON", catOnline, testUser)
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 5)
	assert.Equal(t, 3, result.Count(OutcomeReinforced))
	assert.Equal(t, 2, result.Count(OutcomeCreated))
}

func TestLearner_NoCandidates(t *testing.T) {
	learner, store, _ := newTestLearner(t)

	result, err := learner.Learn(context.Background(), "card payment to bank", catOnline, testUser)
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Zero(t, store.Calls(memory.OpFind))
}

func TestLearner_StopsOnCancelledContext(t *testing.T) {
	learner, store, _ := newTestLearner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := learner.Learn(ctx, "Amazon Marketplace Payment", catOnline, testUser)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Calls(memory.OpFind))
}

func TestLearnThenMatch(t *testing.T) {
	learner, store, _ := newTestLearner(t)
	ctx := context.Background()

	_, err := learner.Learn(ctx, "AMAZON MKTPLACE PMTS Amazon.co.uk", catOnline, testUser)
	require.NoError(t, err)

	patterns, err := store.ListPatterns(ctx, testUser, model.PatternFilter{CategoryType: model.CategoryTypeExpenditure})
	require.NoError(t, err)
	require.NotEmpty(t, patterns)

	best, ok := FindBestMatch("Amazon Mktplace order 1192", patterns)
	require.True(t, ok)
	assert.Equal(t, catOnline, best.CategoryID)
	require.NotNil(t, best.Category)
	assert.Equal(t, "Online Shopping", best.Category.Name)
}
