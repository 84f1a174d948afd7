package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/spice-patterns/internal/cli"
	"github.com/Veraticus/spice-patterns/internal/common"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/Veraticus/spice-patterns/internal/pattern"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patterns",
		Aliases: []string{"pattern"},
		Short:   "Extract, match, learn, and manage categorization patterns",
		Long: `Work with learned categorization patterns: regexes extracted from
transaction descriptions, each bound to a category with a confidence score
that rises when the user agrees with it and decays when they don't.`,
	}

	// Subcommands
	cmd.AddCommand(patternsExtractCmd())
	cmd.AddCommand(patternsMatchCmd())
	cmd.AddCommand(patternsSuggestCmd())
	cmd.AddCommand(patternsLearnCmd())
	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsShowCmd())
	cmd.AddCommand(patternsDeleteCmd())
	cmd.AddCommand(patternsReassignCmd())

	return cmd
}

func patternsExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <description>",
		Short: "Show the candidate patterns a description would produce",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			extractor, err := cfg.Extractor()
			if err != nil {
				return err
			}

			description := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			candidates := extractor.Extract(description)
			if len(candidates) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("No candidate patterns"))
				return nil
			}

			_, _ = fmt.Fprintf(out, "Normalized: %s\n", pattern.Normalize(description))
			for i, c := range candidates {
				marker := " "
				if i < cfg.Patterns.MaxLearnCandidates {
					marker = "*"
				}
				_, _ = fmt.Fprintf(out, "%s %d. %s\n", marker, i+1, c)
			}
			_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render(
				fmt.Sprintf("* learned on categorization (first %d)", cfg.Patterns.MaxLearnCandidates)))
			return nil
		},
	}
}

func patternsMatchCmd() *cobra.Command {
	var categoryType string

	cmd := &cobra.Command{
		Use:   "match <description>",
		Short: "List every stored pattern matching a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, err := parseCategoryTypeFlag(categoryType)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			userID, err := requireUser(cfg)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matcher, err := loadMatcher(ctx, store, userID, model.PatternFilter{CategoryType: t})
			if err != nil {
				return err
			}

			matches := matcher.Match(strings.Join(args, " "))
			return printMatches(cmd.OutOrStdout(), matches)
		},
	}

	cmd.Flags().StringVar(&categoryType, "type", "", "Only consider patterns of this category type")
	return cmd
}

func patternsSuggestCmd() *cobra.Command {
	var (
		amount         string
		maxSuggestions int
	)

	cmd := &cobra.Command{
		Use:   "suggest <description>",
		Short: "Suggest categories for a transaction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			value := decimal.Zero
			if amount != "" {
				parsed, err := decimal.NewFromString(amount)
				if err != nil {
					return common.NewUserError(fmt.Sprintf("Invalid amount %q", amount), err)
				}
				value = parsed
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			userID, err := requireUser(cfg)
			if err != nil {
				return err
			}
			if maxSuggestions <= 0 {
				maxSuggestions = cfg.Patterns.MaxSuggestions
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matcher, err := loadMatcher(ctx, store, userID, model.PatternFilter{})
			if err != nil {
				return err
			}
			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			txn := model.Transaction{Description: strings.Join(args, " "), Amount: value}
			suggestions := pattern.NewSuggester(matcher, categories).Suggest(txn, maxSuggestions)
			if len(suggestions) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("No suggestions: no learned pattern matches this description"))
				return nil
			}

			for i, s := range suggestions {
				_, _ = fmt.Fprintf(out, "%d. %s %s\n", i+1, cli.FormatConfidence(s.Confidence), categoryLabel(s.PatternMatch))
				_, _ = fmt.Fprintf(out, "   %s\n", cli.SubtleStyle.Render(s.Reason))
				if s.DirectionErr != nil {
					_, _ = fmt.Fprintf(out, "   %s\n", cli.FormatWarning(s.DirectionErr.Error()))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Transaction amount; negative for money out")
	cmd.Flags().IntVar(&maxSuggestions, "max", 0, "Maximum number of suggestions (default from patterns.max_suggestions)")
	return cmd
}

func patternsLearnCmd() *cobra.Command {
	var categoryRef string

	cmd := &cobra.Command{
		Use:   "learn <description>",
		Short: "Learn from categorizing a description",
		Long: `Record that a description belongs to a category. Candidate patterns
extracted from the description are created, reinforced, or decayed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			userID, err := requireUser(cfg)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := resolveCategory(ctx, store, categoryRef)
			if err != nil {
				return err
			}

			learner, err := newLearner(cfg, store)
			if err != nil {
				return err
			}

			result, err := learner.Learn(ctx, strings.Join(args, " "), category.ID, userID)
			if err != nil {
				return err
			}

			if len(result.Candidates) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("Nothing to learn: no candidate patterns in this description"))
				return nil
			}
			for _, c := range result.Candidates {
				switch c.Outcome {
				case pattern.OutcomeFailed:
					_, _ = fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %v", c.Pattern, c.Err)))
				default:
					_, _ = fmt.Fprintf(out, "%-10s %s %s\n", c.Outcome, cli.FormatConfidence(float64(c.Confidence)/100), c.Pattern)
				}
			}
			_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Learned %q", category.Name)))
			return result.Err()
		},
	}

	cmd.Flags().StringVarP(&categoryRef, "category", "c", "", "Category name or id")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func patternsListCmd() *cobra.Command {
	var (
		categoryRef  string
		categoryType string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			t, err := parseCategoryTypeFlag(categoryType)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			userID, err := requireUser(cfg)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := model.PatternFilter{CategoryType: t}
			if categoryRef != "" {
				category, err := resolveCategory(ctx, store, categoryRef)
				if err != nil {
					return err
				}
				filter.CategoryID = category.ID
			}

			patterns, err := store.ListPatterns(ctx, userID, filter)
			if err != nil {
				return fmt.Errorf("failed to list patterns: %w", err)
			}
			if len(patterns) == 0 {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("No patterns learned yet"))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tPATTERN\tCATEGORY\tCONFIDENCE\tMATCHES\tLAST MATCHED")
			_, _ = fmt.Fprintln(w, "──\t───────\t────────\t──────────\t───────\t────────────")
			for _, p := range patterns {
				lastMatched := "never"
				if p.LastMatched != nil {
					lastMatched = p.LastMatched.Format("2006-01-02")
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%d\t%s\n",
					p.ID,
					p.Pattern,
					patternCategoryName(p),
					p.ConfidenceScore,
					p.MatchCount,
					lastMatched)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&categoryRef, "category", "c", "", "Filter by category name or id")
	cmd.Flags().StringVar(&categoryType, "type", "", "Filter by category type")
	return cmd
}

func patternsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show pattern details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			p, err := store.GetPattern(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get pattern: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Pattern:      /%s/\n", p.Pattern)
			fmt.Fprintf(&b, "Category:     %s\n", patternCategoryName(*p))
			fmt.Fprintf(&b, "User:         %s\n", p.UserID)
			fmt.Fprintf(&b, "Confidence:   %d%%\n", p.ConfidenceScore)
			fmt.Fprintf(&b, "Matches:      %d\n", p.MatchCount)
			if p.LastMatched != nil {
				fmt.Fprintf(&b, "Last matched: %s\n", p.LastMatched.Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(&b, "Created:      %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(&b, "Updated:      %s", p.UpdatedAt.Format("2006-01-02 15:04"))

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Pattern "+p.ID, b.String()))
			return nil
		},
	}
}

func patternsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeletePattern(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete pattern: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted pattern "+args[0]))
			return nil
		},
	}
}

func patternsReassignCmd() *cobra.Command {
	var categoryRef string

	cmd := &cobra.Command{
		Use:   "reassign <id>",
		Short: "Bind a pattern to a different category",
		Long: `Bind a pattern to a different category. Learning never rebinds a
pattern on its own; this is the manual correction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := resolveCategory(ctx, store, categoryRef)
			if err != nil {
				return err
			}

			if err := store.ReassignPattern(ctx, args[0], category.ID); err != nil {
				return fmt.Errorf("failed to reassign pattern: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(),
				cli.FormatSuccess(fmt.Sprintf("Pattern %s now points at %q", args[0], category.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryRef, "category", "c", "", "Category name or id")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func printMatches(out io.Writer, matches model.PatternMatches) error {
	if len(matches) == 0 {
		_, _ = fmt.Fprintln(out, cli.FormatInfo("No stored pattern matches"))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PATTERN\tCATEGORY\tCONFIDENCE")
	for _, m := range matches {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.0f%%\n", m.Pattern, categoryLabel(m), m.Confidence*100)
	}
	return w.Flush()
}

func categoryLabel(m model.PatternMatch) string {
	if m.Category != nil {
		return m.Category.Name
	}
	return m.CategoryID
}

func patternCategoryName(p model.Pattern) string {
	if p.Category != nil {
		return p.Category.Name
	}
	return p.CategoryID
}
