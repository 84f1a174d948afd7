package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/google/uuid"
)

const categoryColumns = `id, name, type, color, created_at`

// GetCategories returns all categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Type, &cat.Color, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a category by its id.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	return s.getCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
}

// GetCategoryByName returns a category by its name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	return s.getCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = ?`, strings.TrimSpace(name))
}

func (s *SQLiteStorage) getCategory(ctx context.Context, query string, arg string) (*model.Category, error) {
	var cat model.Category
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&cat.ID, &cat.Name, &cat.Type, &cat.Color, &cat.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", arg, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// CreateCategory creates a new category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, categoryType model.CategoryType, color string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := ValidateCategoryInput(name, categoryType); err != nil {
		return nil, err
	}

	category := &model.Category{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Type:      categoryType,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO categories (id, name, type, color, created_at)
		VALUES (?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Type, category.Color, category.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", category.Name, translateError(err))
	}

	slog.Info("created new category", "name", category.Name, "id", category.ID, "type", category.Type)
	return category, nil
}
