// Package categories provides a fluent builder for seeding test categories.
//
// Example usage:
//
//	cats, err := categories.NewBuilder(t).
//		WithBasicCategories().
//		WithIncome("Salary").
//		Build(ctx, store)
package categories

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/Veraticus/spice-patterns/internal/model"
)

// Creator is the storage capability the builder needs.
type Creator interface {
	CreateCategory(ctx context.Context, name string, categoryType model.CategoryType, color string) (*model.Category, error)
}

// CategoryName represents a strongly-typed category name.
type CategoryName string

// String returns the string representation of the category name.
func (c CategoryName) String() string {
	return string(c)
}

// Common category names used across tests.
const (
	CategoryGroceries      CategoryName = "Groceries"
	CategoryFoodDining     CategoryName = "Food & Dining"
	CategoryOnlineShopping CategoryName = "Online Shopping"
	CategoryBooks          CategoryName = "Books"
	CategoryTransportation CategoryName = "Transportation"
	CategorySubscriptions  CategoryName = "Subscription Services"
	CategoryUtilities      CategoryName = "Utilities"
	CategoryTravel         CategoryName = "Travel"
	CategorySalary         CategoryName = "Salary"
	CategoryRefunds        CategoryName = "Refunds"
	CategoryTransfers      CategoryName = "Transfers"
)

// Categories represents a collection of created test categories.
type Categories []model.Category

// Find returns the category with the given name, or nil if not found.
func (c Categories) Find(name CategoryName) *model.Category {
	for i := range c {
		if c[i].Name == name.String() {
			return &c[i]
		}
	}
	return nil
}

// MustFind returns the category with the given name, or fails the test if not found.
func (c Categories) MustFind(t *testing.T, name CategoryName) model.Category {
	t.Helper()
	cat := c.Find(name)
	if cat == nil {
		t.Fatalf("category %q not found in test data", name)
	}
	return *cat
}

// Names returns all category names.
func (c Categories) Names() []string {
	names := make([]string, len(c))
	for i, cat := range c {
		names[i] = cat.Name
	}
	return names
}

// Builder collects category definitions and creates them in storage.
type Builder struct {
	t          *testing.T
	categories map[CategoryName]model.CategoryType
}

// NewBuilder creates a new category builder for the given test.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{
		t:          t,
		categories: make(map[CategoryName]model.CategoryType),
	}
}

// WithCategory adds an expenditure category.
func (b *Builder) WithCategory(name CategoryName) *Builder {
	return b.WithTyped(name, model.CategoryTypeExpenditure)
}

// WithCategories adds several expenditure categories.
func (b *Builder) WithCategories(names ...CategoryName) *Builder {
	for _, name := range names {
		b.WithCategory(name)
	}
	return b
}

// WithIncome adds an income category.
func (b *Builder) WithIncome(name CategoryName) *Builder {
	return b.WithTyped(name, model.CategoryTypeIncome)
}

// WithTyped adds a category of an explicit type. Later calls for the same name win.
func (b *Builder) WithTyped(name CategoryName, categoryType model.CategoryType) *Builder {
	b.categories[name] = categoryType
	return b
}

// WithBasicCategories adds the minimal set of categories commonly used in tests.
func (b *Builder) WithBasicCategories() *Builder {
	return b.WithFixture(FixtureMinimal)
}

// WithFixture adds every category of a predefined fixture.
func (b *Builder) WithFixture(f Fixture) *Builder {
	for _, c := range f.Categories {
		b.WithTyped(c.Name, c.Type)
	}
	return b
}

// Build creates the categories in name order and returns them.
func (b *Builder) Build(ctx context.Context, store Creator) (Categories, error) {
	b.t.Helper()

	names := make([]CategoryName, 0, len(b.categories))
	for name := range b.categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	result := make(Categories, 0, len(names))
	for _, name := range names {
		created, err := store.CreateCategory(ctx, name.String(), b.categories[name], "")
		if err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", name, err)
		}
		result = append(result, *created)
	}

	return result, nil
}
