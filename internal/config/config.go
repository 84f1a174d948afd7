// Package config turns the values viper collected into a validated Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/pattern"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the resolved application configuration.
type Config struct {
	Logging  LoggingConfig
	Database DatabaseConfig
	User     UserConfig
	Patterns PatternsConfig
}

// DatabaseConfig selects where patterns and categories live.
type DatabaseConfig struct {
	Path    string
	Backend string
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// UserConfig identifies whose patterns are read and written.
type UserConfig struct {
	ID string
}

// PatternsConfig tunes extraction, learning, and suggestions.
type PatternsConfig struct {
	StopwordsFile      string
	Stopwords          []string
	MinTokenLength     int
	MaxLearnCandidates int
	MaxSuggestions     int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join("~", ".local", "share", "spice", "spice.db"))
	v.SetDefault("database.backend", BackendSQLite)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("patterns.min_token_length", pattern.DefaultMinTokenLength)
	v.SetDefault("patterns.max_learn_candidates", pattern.DefaultMaxCandidates)
	v.SetDefault("patterns.max_suggestions", pattern.DefaultMaxSuggestions)
}

// Load reads configuration from v, applying defaults for unset keys, and validates it.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil viper instance", common.ErrMissingConfig)
	}
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Path:    ExpandPath(v.GetString("database.path")),
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("database.backend"))),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		User: UserConfig{
			ID: strings.TrimSpace(v.GetString("user.id")),
		},
		Patterns: PatternsConfig{
			Stopwords:          v.GetStringSlice("patterns.stopwords"),
			StopwordsFile:      ExpandPath(v.GetString("patterns.stopwords_file")),
			MinTokenLength:     v.GetInt("patterns.min_token_length"),
			MaxLearnCandidates: v.GetInt("patterns.max_learn_candidates"),
			MaxSuggestions:     v.GetInt("patterns.max_suggestions"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns every problem with the configuration in one error.
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			problems = append(problems, "database path cannot be empty when using sqlite backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid database backend '%s': must be one of [%s %s]",
			c.Database.Backend, BackendSQLite, BackendMemory))
	}

	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be console or json", c.Logging.Format))
	}

	if c.Patterns.MinTokenLength < 1 {
		problems = append(problems, fmt.Sprintf("invalid min token length %d: must be at least 1", c.Patterns.MinTokenLength))
	}
	if c.Patterns.MaxLearnCandidates < 1 {
		problems = append(problems, fmt.Sprintf("invalid max learn candidates %d: must be at least 1", c.Patterns.MaxLearnCandidates))
	}
	if c.Patterns.MaxSuggestions < 1 {
		problems = append(problems, fmt.Sprintf("invalid max suggestions %d: must be at least 1", c.Patterns.MaxSuggestions))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: configuration validation failed:\n- %s", common.ErrInvalidConfig, strings.Join(problems, "\n- "))
	}
	return nil
}

// StopwordSet resolves the stopword list: a configured file wins over an inline
// list, which wins over the built-in default.
func (c *Config) StopwordSet() (*pattern.Stopwords, error) {
	if c.Patterns.StopwordsFile != "" {
		f, err := os.Open(c.Patterns.StopwordsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open stopwords file: %w", err)
		}
		defer func() { _ = f.Close() }()

		return pattern.ReadStopwords("file:"+filepath.Base(c.Patterns.StopwordsFile), f)
	}

	if len(c.Patterns.Stopwords) > 0 {
		return pattern.NewStopwords("config", c.Patterns.Stopwords...), nil
	}

	return pattern.DefaultStopwords(), nil
}

// Extractor builds a candidate extractor from the pattern settings.
func (c *Config) Extractor() (*pattern.Extractor, error) {
	stopwords, err := c.StopwordSet()
	if err != nil {
		return nil, err
	}
	return pattern.NewExtractor(
		pattern.WithStopwords(stopwords),
		pattern.WithMinTokenLength(c.Patterns.MinTokenLength),
	), nil
}

// RequireUser returns the configured user id or common.ErrMissingUser.
func (c *Config) RequireUser() (string, error) {
	if c.User.ID == "" {
		return "", common.ErrMissingUser
	}
	return c.User.ID, nil
}
