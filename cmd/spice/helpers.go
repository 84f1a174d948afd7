package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/config"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/Veraticus/spice-patterns/internal/pattern"
	"github.com/Veraticus/spice-patterns/internal/service"
	"github.com/Veraticus/spice-patterns/internal/storage"
	"github.com/Veraticus/spice-patterns/internal/storage/memory"
	"github.com/spf13/viper"
)

// loadConfig resolves configuration from flags, environment, and the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Configuration is invalid", err)
	}
	return cfg, nil
}

// openStorage opens the configured backend without applying migrations.
func openStorage(cfg *config.Config) (service.Storage, error) {
	if cfg.Database.Backend == config.BackendMemory {
		slog.Warn("Using in-memory storage; nothing will be persisted")
		return memory.New(), nil
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, storageError(cfg, err)
	}
	return store, nil
}

// initStorage opens the configured backend and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, storageError(cfg, fmt.Errorf("failed to run migrations: %w", err))
	}

	return store, nil
}

// storageError turns an unreadable database file into a user-facing error.
func storageError(cfg *config.Config, err error) error {
	if errors.Is(err, common.ErrDatabaseCorrupted) {
		return common.NewUserError(
			fmt.Sprintf("%s is not a spice database; move it aside or set database.path", cfg.Database.Path), err)
	}
	return err
}

// requireUser returns the configured user id or a user-facing error.
func requireUser(cfg *config.Config) (string, error) {
	userID, err := cfg.RequireUser()
	if err != nil {
		return "", common.NewUserError("No user configured: pass --user or set user.id", err)
	}
	return userID, nil
}

// resolveCategory finds a category by name, falling back to its id.
func resolveCategory(ctx context.Context, store service.Storage, ref string) (*model.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, common.NewUserError("A category is required", common.ErrMissingCategory)
	}

	cat, err := store.GetCategoryByName(ctx, ref)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	cat, err = store.GetCategoryByID(ctx, ref)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUserError(fmt.Sprintf("Category %q does not exist", ref), err)
	}
	return cat, err
}

// loadMatcher compiles the user's stored patterns.
func loadMatcher(ctx context.Context, store service.Storage, userID string, filter model.PatternFilter) (*pattern.Matcher, error) {
	patterns, err := store.ListPatterns(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}

	matcher := pattern.NewMatcher(patterns)
	if matcher.Skipped() > 0 {
		slog.Warn("Some stored patterns could not be compiled", "skipped", matcher.Skipped())
	}
	return matcher, nil
}

// newLearner builds a learner honoring the configured extraction settings.
func newLearner(cfg *config.Config, store pattern.PatternStore) (*pattern.Learner, error) {
	extractor, err := cfg.Extractor()
	if err != nil {
		return nil, err
	}
	return pattern.NewLearner(store,
		pattern.WithExtractor(extractor),
		pattern.WithMaxCandidates(cfg.Patterns.MaxLearnCandidates),
	), nil
}

func parseCategoryTypeFlag(value string) (model.CategoryType, error) {
	if value == "" {
		return "", nil
	}
	t, err := model.ParseCategoryType(value)
	if err != nil {
		return "", common.NewUserError(err.Error(), common.ErrInvalidConfig)
	}
	return t, nil
}
