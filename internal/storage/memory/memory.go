// Package memory provides an in-memory pattern and category store for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/Veraticus/spice-patterns/internal/storage"
	"github.com/google/uuid"
)

// Operation names a store call that can be made to fail.
type Operation string

// Operations that accept injected failures.
const (
	OpFind   Operation = "find"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
)

type failureKey struct {
	op      Operation
	pattern string
}

// Store keeps patterns and categories in maps guarded by a mutex.
type Store struct {
	patterns   map[string]model.Pattern
	categories map[string]model.Category
	failures   map[failureKey]error
	calls      map[Operation]int
	mu         sync.Mutex
}

// New creates an empty store seeded with the given categories.
func New(categories ...model.Category) *Store {
	s := &Store{
		patterns:   make(map[string]model.Pattern),
		categories: make(map[string]model.Category),
		failures:   make(map[failureKey]error),
		calls:      make(map[Operation]int),
	}
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	return s
}

// FailOn makes every op call for patternText return err until cleared with a nil err.
func (s *Store) FailOn(op Operation, patternText string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := failureKey{op: op, pattern: patternText}
	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

// Calls returns how many times op has been invoked.
func (s *Store) Calls(op Operation) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// FindPattern implements pattern.PatternStore.
func (s *Store) FindPattern(_ context.Context, userID, patternText string) (*model.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpFind]++

	if err := s.failures[failureKey{op: OpFind, pattern: patternText}]; err != nil {
		return nil, err
	}

	for _, p := range s.patterns {
		if p.UserID == userID && p.Pattern == patternText {
			found := s.withCategory(p)
			return &found, nil
		}
	}
	return nil, fmt.Errorf("pattern %q: %w", patternText, common.ErrNotFound)
}

// InsertPattern implements pattern.PatternStore.
func (s *Store) InsertPattern(_ context.Context, p *model.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpInsert]++

	if err := storage.ValidatePattern(p); err != nil {
		return err
	}
	if err := s.failures[failureKey{op: OpInsert, pattern: p.Pattern}]; err != nil {
		return err
	}
	if _, ok := s.categories[p.CategoryID]; !ok {
		return fmt.Errorf("%w: category %s does not exist", common.ErrNotFound, p.CategoryID)
	}
	for _, existing := range s.patterns {
		if existing.UserID == p.UserID && existing.Pattern == p.Pattern {
			return fmt.Errorf("pattern %q: %w", p.Pattern, common.ErrDuplicateEntry)
		}
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	stored := *p
	stored.Category = nil
	s.patterns[p.ID] = stored
	return nil
}

// UpdatePattern implements pattern.PatternStore.
func (s *Store) UpdatePattern(_ context.Context, id string, update model.PatternUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[OpUpdate]++

	p, ok := s.patterns[id]
	if !ok {
		return fmt.Errorf("pattern %s: %w", id, common.ErrNotFound)
	}
	if err := s.failures[failureKey{op: OpUpdate, pattern: p.Pattern}]; err != nil {
		return err
	}
	if err := storage.ValidatePatternUpdate(update); err != nil {
		return err
	}

	if update.ConfidenceScore != nil {
		p.ConfidenceScore = *update.ConfidenceScore
	}
	if update.MatchCount != nil {
		p.MatchCount = *update.MatchCount
	}
	if update.LastMatched != nil {
		t := *update.LastMatched
		p.LastMatched = &t
	}
	p.UpdatedAt = update.UpdatedAt
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	s.patterns[id] = p
	return nil
}

// GetPattern returns a pattern by ID.
func (s *Store) GetPattern(_ context.Context, id string) (*model.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patterns[id]
	if !ok {
		return nil, fmt.Errorf("pattern %s: %w", id, common.ErrNotFound)
	}
	found := s.withCategory(p)
	return &found, nil
}

// ListPatterns returns a user's patterns ordered by creation time.
func (s *Store) ListPatterns(_ context.Context, userID string, filter model.PatternFilter) ([]model.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Pattern
	for _, p := range s.patterns {
		if p.UserID != userID {
			continue
		}
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		withCat := s.withCategory(p)
		if filter.CategoryType != "" && (withCat.Category == nil || withCat.Category.Type != filter.CategoryType) {
			continue
		}
		out = append(out, withCat)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// DeletePattern removes a pattern.
func (s *Store) DeletePattern(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patterns[id]; !ok {
		return fmt.Errorf("pattern %s: %w", id, common.ErrNotFound)
	}
	delete(s.patterns, id)
	return nil
}

// ReassignPattern binds a pattern to a different category.
func (s *Store) ReassignPattern(_ context.Context, id, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patterns[id]
	if !ok {
		return fmt.Errorf("pattern %s: %w", id, common.ErrNotFound)
	}
	if _, ok := s.categories[categoryID]; !ok {
		return fmt.Errorf("category %s: %w", categoryID, common.ErrNotFound)
	}
	p.CategoryID = categoryID
	p.UpdatedAt = time.Now()
	s.patterns[id] = p
	return nil
}

// CreateCategory adds a category.
func (s *Store) CreateCategory(_ context.Context, name string, categoryType model.CategoryType, color string) (*model.Category, error) {
	if err := storage.ValidateCategoryInput(name, categoryType); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == name {
			return nil, fmt.Errorf("category %q: %w", name, common.ErrDuplicateEntry)
		}
	}
	c := model.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      categoryType,
		Color:     color,
		CreatedAt: time.Now(),
	}
	s.categories[c.ID] = c
	return &c, nil
}

// GetCategories returns all categories sorted by name.
func (s *Store) GetCategories(_ context.Context) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetCategoryByID returns a category by ID.
func (s *Store) GetCategoryByID(_ context.Context, id string) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	return &c, nil
}

// GetCategoryByName returns a category by name.
func (s *Store) GetCategoryByName(_ context.Context, name string) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	for _, c := range s.categories {
		if c.Name == name {
			found := c
			return &found, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
}

// withCategory attaches the denormalized category view. Callers hold s.mu.
func (s *Store) withCategory(p model.Pattern) model.Pattern {
	if c, ok := s.categories[p.CategoryID]; ok {
		p.Category = &c
	}
	return p
}

// Migrate is a no-op; the store has no schema.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
