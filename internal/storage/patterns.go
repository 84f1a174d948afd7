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

const patternSelect = `
	SELECT p.id, p.user_id, p.pattern, p.category_id, p.match_count, p.confidence_score,
	       p.last_matched, p.created_at, p.updated_at,
	       c.id, c.name, c.type, c.color, c.created_at
	FROM patterns p
	LEFT JOIN categories c ON c.id = p.category_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (*model.Pattern, error) {
	var (
		p           model.Pattern
		lastMatched sql.NullTime
		catID       sql.NullString
		catName     sql.NullString
		catType     sql.NullString
		catColor    sql.NullString
		catCreated  sql.NullTime
	)

	if err := row.Scan(
		&p.ID, &p.UserID, &p.Pattern, &p.CategoryID, &p.MatchCount, &p.ConfidenceScore,
		&lastMatched, &p.CreatedAt, &p.UpdatedAt,
		&catID, &catName, &catType, &catColor, &catCreated,
	); err != nil {
		return nil, err
	}

	if lastMatched.Valid {
		t := lastMatched.Time
		p.LastMatched = &t
	}
	if catID.Valid {
		p.Category = &model.Category{
			ID:        catID.String,
			Name:      catName.String,
			Type:      model.CategoryType(catType.String),
			Color:     catColor.String,
			CreatedAt: catCreated.Time,
		}
	}
	return &p, nil
}

// FindPattern returns the pattern a user has stored under the exact pattern text.
func (s *SQLiteStorage) FindPattern(ctx context.Context, userID, patternText string) (*model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(patternText, "patternText"); err != nil {
		return nil, err
	}

	p, err := scanPattern(s.db.QueryRowContext(ctx,
		patternSelect+` WHERE p.user_id = ? AND p.pattern = ?`, userID, patternText))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pattern %q: %w", patternText, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern: %w", err)
	}
	return p, nil
}

// InsertPattern stores a new pattern, assigning an id and timestamps when absent.
func (s *SQLiteStorage) InsertPattern(ctx context.Context, p *model.Pattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := ValidatePattern(p); err != nil {
		return err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	var lastMatched sql.NullTime
	if p.LastMatched != nil {
		lastMatched = sql.NullTime{Time: *p.LastMatched, Valid: true}
	}

	query := `
		INSERT INTO patterns (
			id, user_id, pattern, category_id, match_count, confidence_score,
			last_matched, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Pattern, p.CategoryID, p.MatchCount, p.ConfidenceScore,
		lastMatched, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert pattern %q: %w", p.Pattern, translateError(err))
	}

	slog.Debug("inserted pattern", "id", p.ID, "pattern", p.Pattern, "category_id", p.CategoryID)
	return nil
}

// UpdatePattern writes the non-nil fields of update to the pattern with the given id.
func (s *SQLiteStorage) UpdatePattern(ctx context.Context, id string, update model.PatternUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := ValidatePatternUpdate(update); err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	if update.ConfidenceScore != nil {
		sets = append(sets, "confidence_score = ?")
		args = append(args, *update.ConfidenceScore)
	}
	if update.MatchCount != nil {
		sets = append(sets, "match_count = ?")
		args = append(args, *update.MatchCount)
	}
	if update.LastMatched != nil {
		sets = append(sets, "last_matched = ?")
		args = append(args, *update.LastMatched)
	}

	updatedAt := update.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt, id)

	query := `UPDATE patterns SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", translateError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("pattern %s: %w", id, common.ErrNotFound)
	}

	return nil
}

// GetPattern retrieves a pattern by id.
func (s *SQLiteStorage) GetPattern(ctx context.Context, id string) (*model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	p, err := scanPattern(s.db.QueryRowContext(ctx, patternSelect+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pattern %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	return p, nil
}

// ListPatterns returns a user's patterns ordered by creation time.
func (s *SQLiteStorage) ListPatterns(ctx context.Context, userID string, filter model.PatternFilter) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := patternSelect + ` WHERE p.user_id = ?`
	args := []any{userID}
	if filter.CategoryID != "" {
		query += ` AND p.category_id = ?`
		args = append(args, filter.CategoryID)
	}
	if filter.CategoryType != "" {
		query += ` AND c.type = ?`
		args = append(args, string(filter.CategoryType))
	}
	query += ` ORDER BY p.created_at, p.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}

	return patterns, nil
}

// DeletePattern removes a pattern.
func (s *SQLiteStorage) DeletePattern(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("pattern %s: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted pattern", "id", id)
	return nil
}

// ReassignPattern binds a pattern to a different category, keeping its statistics.
func (s *SQLiteStorage) ReassignPattern(ctx context.Context, id, categoryID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE patterns SET category_id = ?, updated_at = ? WHERE id = ?`,
		categoryID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to reassign pattern: %w", translateError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("pattern %s: %w", id, common.ErrNotFound)
	}

	slog.Info("reassigned pattern", "id", id, "category_id", categoryID)
	return nil
}
