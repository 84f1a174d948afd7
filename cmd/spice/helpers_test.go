package main

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/Veraticus/spice-patterns/internal/testutil"
	"github.com/Veraticus/spice-patterns/internal/testutil/categories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCategory(t *testing.T) {
	db := testutil.SetupTestDB(t, func(b *categories.Builder) *categories.Builder {
		return b.WithBasicCategories()
	})
	ctx := context.Background()
	books := db.Categories.MustFind(t, categories.CategoryBooks)

	byName, err := resolveCategory(ctx, db.Storage, " Books ")
	require.NoError(t, err)
	assert.Equal(t, books.ID, byName.ID)

	byID, err := resolveCategory(ctx, db.Storage, books.ID)
	require.NoError(t, err)
	assert.Equal(t, "Books", byID.Name)

	_, err = resolveCategory(ctx, db.Storage, "Gardening")
	require.ErrorIs(t, err, common.ErrNotFound)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, `Category "Gardening" does not exist`, userErr.UserMessage)

	_, err = resolveCategory(ctx, db.Storage, "  ")
	require.ErrorIs(t, err, common.ErrMissingCategory)
}

func TestLoadMatcherFiltersByType(t *testing.T) {
	db := testutil.SetupTestDB(t, func(b *categories.Builder) *categories.Builder {
		return b.WithCategory(categories.CategoryGroceries).WithIncome(categories.CategorySalary)
	})
	ctx := context.Background()

	db.SeedPattern(testUser, `\bsainsburys\b`, categories.CategoryGroceries, 70)
	db.SeedPattern(testUser, `\bpayroll\b`, categories.CategorySalary, 80)
	db.SeedPattern("bob", `\btesco\b`, categories.CategoryGroceries, 90)

	all, err := loadMatcher(ctx, db.Storage, testUser, model.PatternFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Len())

	income, err := loadMatcher(ctx, db.Storage, testUser, model.PatternFilter{CategoryType: model.CategoryTypeIncome})
	require.NoError(t, err)
	assert.Equal(t, 1, income.Len())

	best, ok := income.Best("ACME PAYROLL JUNE")
	require.True(t, ok)
	assert.Equal(t, db.MustCategoryID(categories.CategorySalary), best.CategoryID)
}
