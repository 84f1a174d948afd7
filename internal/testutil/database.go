// Package testutil provides shared test helpers backed by a real in-memory SQLite store.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/Veraticus/spice-patterns/internal/service"
	"github.com/Veraticus/spice-patterns/internal/storage"
	"github.com/Veraticus/spice-patterns/internal/testutil/categories"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage    service.Storage
	t          *testing.T
	Categories categories.Categories
}

// SetupTestDB creates a migrated in-memory database seeded by the configured builder.
// Cleanup is registered on t.
//
// Example:
//
//	db := testutil.SetupTestDB(t, func(b *categories.Builder) *categories.Builder {
//		return b.WithBasicCategories().WithIncome("Salary")
//	})
func SetupTestDB(t *testing.T, configure func(*categories.Builder) *categories.Builder) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	builder := categories.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}
	cats, err := builder.Build(ctx, store)
	if err != nil {
		t.Fatalf("failed to build categories: %v", err)
	}

	return &TestDB{
		Storage:    store,
		Categories: cats,
		t:          t,
	}
}

// MustCategoryID returns the id of the seeded category with the given name or fails the test.
func (db *TestDB) MustCategoryID(name categories.CategoryName) string {
	db.t.Helper()
	return db.Categories.MustFind(db.t, name).ID
}

// SeedPattern inserts a pattern for userID bound to the named category.
func (db *TestDB) SeedPattern(userID, text string, name categories.CategoryName, confidence int) model.Pattern {
	db.t.Helper()

	p := &model.Pattern{
		UserID:          userID,
		Pattern:         text,
		CategoryID:      db.MustCategoryID(name),
		MatchCount:      1,
		ConfidenceScore: confidence,
	}
	if err := db.Storage.InsertPattern(context.Background(), p); err != nil {
		db.t.Fatalf("failed to seed pattern %q: %v", text, err)
	}
	return *p
}
