package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// createTestStorageWithCategories seeds one expenditure category per name.
func createTestStorageWithCategories(t *testing.T, names ...string) (*SQLiteStorage, map[string]model.Category, func()) {
	t.Helper()
	store, cleanup := createTestStorage(t)

	ctx := context.Background()
	categories := make(map[string]model.Category, len(names))
	for _, name := range names {
		cat, err := store.CreateCategory(ctx, name, model.CategoryTypeExpenditure, "")
		if err != nil {
			cleanup()
			t.Fatalf("Failed to create category %s: %v", name, err)
		}
		categories[name] = *cat
	}

	return store, categories, cleanup
}

func newTestPattern(userID, text, categoryID string) *model.Pattern {
	return &model.Pattern{
		UserID:          userID,
		Pattern:         text,
		CategoryID:      categoryID,
		MatchCount:      1,
		ConfidenceScore: model.InitialConfidence,
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates nested directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "spice.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.Equal(t, dbPath, store.Path())
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("  ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("reports a file that is not a database as corrupted", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "notes.db")
		require.NoError(t, os.WriteFile(dbPath, []byte(strings.Repeat("not a database ", 100)), 0o600))

		store, err := NewSQLiteStorage(dbPath)
		if err == nil {
			defer func() { _ = store.Close() }()
			err = store.Migrate(context.Background())
		}
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrDatabaseCorrupted)
	})

	t.Run("in memory", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.NoError(t, store.Migrate(context.Background()))
	})
}

func TestMigrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var indexCount int
	err = store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name='idx_patterns_user_category'
	`).Scan(&indexCount)
	require.NoError(t, err)
	assert.Equal(t, 1, indexCount)
}

func TestCategories(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	books, err := store.CreateCategory(ctx, "Books", model.CategoryTypeExpenditure, "#ff0000")
	require.NoError(t, err)
	assert.NotEmpty(t, books.ID)

	_, err = store.CreateCategory(ctx, "Salary", model.CategoryTypeIncome, "")
	require.NoError(t, err)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := store.CreateCategory(ctx, "Books", model.CategoryTypeExpenditure, "")
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := store.CreateCategory(ctx, "Mystery", model.CategoryType("unknown"), "")
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})

	t.Run("list sorted by name", func(t *testing.T) {
		cats, err := store.GetCategories(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 2)
		assert.Equal(t, "Books", cats[0].Name)
		assert.Equal(t, "Salary", cats[1].Name)
		assert.Equal(t, model.CategoryTypeIncome, cats[1].Type)
	})

	t.Run("lookup by id and name", func(t *testing.T) {
		byID, err := store.GetCategoryByID(ctx, books.ID)
		require.NoError(t, err)
		assert.Equal(t, "Books", byID.Name)
		assert.Equal(t, "#ff0000", byID.Color)

		byName, err := store.GetCategoryByName(ctx, "Books")
		require.NoError(t, err)
		assert.Equal(t, books.ID, byName.ID)
	})

	t.Run("missing category", func(t *testing.T) {
		_, err := store.GetCategoryByName(ctx, "Nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
		_, err = store.GetCategoryByID(ctx, "missing-id")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestPatternLifecycle(t *testing.T) {
	store, cats, cleanup := createTestStorageWithCategories(t, "Online Shopping", "Books")
	defer cleanup()
	ctx := context.Background()

	shopping := cats["Online Shopping"]
	p := newTestPattern("user-1", `\bamazon\b`, shopping.ID)
	require.NoError(t, store.InsertPattern(ctx, p))
	require.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	t.Run("find by text", func(t *testing.T) {
		found, err := store.FindPattern(ctx, "user-1", `\bamazon\b`)
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)
		assert.Equal(t, 1, found.MatchCount)
		assert.Equal(t, model.InitialConfidence, found.ConfidenceScore)
		assert.Nil(t, found.LastMatched)
		require.NotNil(t, found.Category)
		assert.Equal(t, "Online Shopping", found.Category.Name)
	})

	t.Run("scoped to user", func(t *testing.T) {
		_, err := store.FindPattern(ctx, "user-2", `\bamazon\b`)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("duplicate pattern for same user", func(t *testing.T) {
		err := store.InsertPattern(ctx, newTestPattern("user-1", `\bamazon\b`, shopping.ID))
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("same text for another user", func(t *testing.T) {
		require.NoError(t, store.InsertPattern(ctx, newTestPattern("user-2", `\bamazon\b`, shopping.ID)))
	})

	t.Run("unknown category", func(t *testing.T) {
		err := store.InsertPattern(ctx, newTestPattern("user-1", `\bebay\b`, "no-such-category"))
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		score, count := 65, 2
		matched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.UpdatePattern(ctx, p.ID, model.PatternUpdate{
			ConfidenceScore: &score,
			MatchCount:      &count,
			LastMatched:     &matched,
			UpdatedAt:       matched,
		}))

		got, err := store.GetPattern(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 65, got.ConfidenceScore)
		assert.Equal(t, 2, got.MatchCount)
		require.NotNil(t, got.LastMatched)
		assert.True(t, matched.Equal(*got.LastMatched))
		assert.True(t, matched.Equal(got.UpdatedAt))
	})

	t.Run("partial update leaves other fields", func(t *testing.T) {
		score := 60
		require.NoError(t, store.UpdatePattern(ctx, p.ID, model.PatternUpdate{ConfidenceScore: &score}))

		got, err := store.GetPattern(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, got.ConfidenceScore)
		assert.Equal(t, 2, got.MatchCount)
	})

	t.Run("update missing pattern", func(t *testing.T) {
		score := 60
		err := store.UpdatePattern(ctx, "missing", model.PatternUpdate{ConfidenceScore: &score})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("reassign", func(t *testing.T) {
		require.NoError(t, store.ReassignPattern(ctx, p.ID, cats["Books"].ID))
		got, err := store.GetPattern(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, cats["Books"].ID, got.CategoryID)
		assert.Equal(t, 2, got.MatchCount)

		err = store.ReassignPattern(ctx, p.ID, "no-such-category")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeletePattern(ctx, p.ID))
		_, err := store.GetPattern(ctx, p.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.ErrorIs(t, store.DeletePattern(ctx, p.ID), common.ErrNotFound)
	})
}

func TestListPatterns(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	groceries, err := store.CreateCategory(ctx, "Groceries", model.CategoryTypeExpenditure, "")
	require.NoError(t, err)
	salary, err := store.CreateCategory(ctx, "Salary", model.CategoryTypeIncome, "")
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []struct {
		text       string
		categoryID string
	}{
		{`\btesco\b`, groceries.ID},
		{`\bacme\b`, salary.ID},
		{`\bsainsburys\b`, groceries.ID},
	}
	for i, s := range seed {
		p := newTestPattern("user-1", s.text, s.categoryID)
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.InsertPattern(ctx, p))
	}
	require.NoError(t, store.InsertPattern(ctx, newTestPattern("user-2", `\btesco\b`, groceries.ID)))

	tests := []struct {
		name   string
		filter model.PatternFilter
		want   []string
	}{
		{
			name: "all patterns in creation order",
			want: []string{`\btesco\b`, `\bacme\b`, `\bsainsburys\b`},
		},
		{
			name:   "by category",
			filter: model.PatternFilter{CategoryID: groceries.ID},
			want:   []string{`\btesco\b`, `\bsainsburys\b`},
		},
		{
			name:   "by category type",
			filter: model.PatternFilter{CategoryType: model.CategoryTypeIncome},
			want:   []string{`\bacme\b`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns, err := store.ListPatterns(ctx, "user-1", tt.filter)
			require.NoError(t, err)

			var got []string
			for _, p := range patterns {
				got = append(got, p.Pattern)
				assert.NotNil(t, p.Category)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown user", func(t *testing.T) {
		patterns, err := store.ListPatterns(ctx, "nobody", model.PatternFilter{})
		require.NoError(t, err)
		assert.Empty(t, patterns)
	})
}
