// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"io"

	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/Veraticus/spice-patterns/internal/pattern"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Pattern operations used by the learner and matcher
	pattern.PatternStore
	pattern.PatternLister

	// Pattern maintenance
	GetPattern(ctx context.Context, id string) (*model.Pattern, error)
	DeletePattern(ctx context.Context, id string) error
	ReassignPattern(ctx context.Context, id, categoryID string) error

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, name string, categoryType model.CategoryType, color string) (*model.Category, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// TransactionSource produces transactions for categorization.
type TransactionSource interface {
	ParseFile(ctx context.Context, r io.Reader) ([]model.Transaction, error)
}
