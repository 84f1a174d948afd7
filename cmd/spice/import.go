package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/spice-patterns/internal/cli"
	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/Veraticus/spice-patterns/internal/ofx"
	"github.com/Veraticus/spice-patterns/internal/pattern"
	"github.com/Veraticus/spice-patterns/internal/service"
	"github.com/spf13/cobra"
)

type importOptions struct {
	learnAbove  float64
	interactive bool
}

// importSummary counts what happened to each imported transaction.
type importSummary struct {
	Total           int
	Matched         int
	Learned         int
	Reviewed        int
	Skipped         int
	DirectionIssues int
	LearnFailures   int
}

func importCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Suggest categories for transactions in OFX/QFX files",
		Long: `Read transactions from OFX or QFX files exported from your bank and
suggest a category for each one from your learned patterns.

With --learn-above, suggestions at or above that confidence are accepted
and fed back to the learner. With --interactive, every other transaction
is shown for review and your choice is learned.

Examples:
  # Preview suggestions for one file
  spice import ~/Downloads/chase_jan_2024.qfx

  # Accept confident suggestions and review the rest
  spice import --learn-above 0.9 --interactive ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.learnAbove, "learn-above", 0, "Accept and learn suggestions with at least this confidence (0 disables)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Review transactions without a confident suggestion")

	return cmd
}

func runImport(cmd *cobra.Command, args []string, opts importOptions) error {
	if opts.learnAbove < 0 || opts.learnAbove > 1 {
		return fmt.Errorf("--learn-above must be between 0 and 1, got %.2f", opts.learnAbove)
	}

	files, err := expandFiles(args)
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

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import", "Patterns learned so far are kept.")
	ctx := interrupts.HandleInterrupts(cmd.Context())
	defer interrupts.Stop()

	transactions, err := readTransactions(ctx, ofx.NewParser(), files)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No transactions found"))
		return nil
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	learner, err := newLearner(cfg, store)
	if err != nil {
		return err
	}

	imp := &importer{
		store:          store,
		learner:        learner,
		userID:         userID,
		opts:           opts,
		maxSuggestions: cfg.Patterns.MaxSuggestions,
		out:            cmd.OutOrStdout(),
	}
	if opts.interactive {
		imp.in = cmd.InOrStdin()
	}

	summary, err := imp.run(ctx, transactions)
	printImportSummary(cmd.OutOrStdout(), summary)
	if interrupts.WasInterrupted() {
		return nil
	}
	return err
}

// expandFiles resolves globs, keeping plain paths that exist.
func expandFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("no files found matching %s", arg)
			}
			matches = []string{arg}
		}
		files = append(files, matches...)
	}
	return files, nil
}

func readTransactions(ctx context.Context, source service.TransactionSource, files []string) ([]model.Transaction, error) {
	var all []model.Transaction
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}

		txns, err := source.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		slog.Info("Read transactions", "file", path, "count", len(txns))
		all = append(all, txns...)
	}
	return all, nil
}

type importer struct {
	store          service.Storage
	learner        *pattern.Learner
	in             io.Reader
	out            io.Writer
	suggester      *pattern.Suggester
	categories     []model.Category
	userID         string
	opts           importOptions
	maxSuggestions int
}

// reload rebuilds the suggester so patterns learned during the run take effect.
func (imp *importer) reload(ctx context.Context) error {
	matcher, err := loadMatcher(ctx, imp.store, imp.userID, model.PatternFilter{})
	if err != nil {
		return err
	}
	categories, err := imp.store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to get categories: %w", err)
	}
	imp.suggester = pattern.NewSuggester(matcher, categories)
	imp.categories = categories
	return nil
}

func (imp *importer) run(ctx context.Context, transactions []model.Transaction) (importSummary, error) {
	summary := importSummary{Total: len(transactions)}

	if err := imp.reload(ctx); err != nil {
		return summary, err
	}

	var reviewer *cli.Reviewer
	if imp.in != nil {
		reviewer = cli.NewReviewer(imp.in, imp.out, imp.categories)
	}

	// The bar and the review prompts would fight over the terminal.
	var bar interface{ Add(int) error }
	if reviewer == nil {
		bar = cli.NewProgressBar(imp.out, len(transactions), "Suggesting categories...")
	}

	for _, txn := range transactions {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		suggestions := imp.suggester.Suggest(txn, imp.maxSuggestions)
		if len(suggestions) > 0 {
			summary.Matched++
			if suggestions[0].DirectionErr != nil {
				summary.DirectionIssues++
				slog.Debug("Suggestion conflicts with transaction direction",
					"transaction", txn.ID,
					"error", suggestions[0].DirectionErr)
			}
		}

		var chosen string
		switch {
		case imp.confident(suggestions):
			chosen = suggestions[0].CategoryID
		case reviewer != nil:
			category, err := reviewer.Review(ctx, txn, suggestions)
			if errors.Is(err, cli.ErrReviewQuit) {
				return summary, nil
			}
			if err != nil {
				return summary, err
			}
			if category != nil {
				summary.Reviewed++
				chosen = category.ID
			}
		}

		if chosen == "" {
			summary.Skipped++
		} else if err := imp.learn(ctx, txn, chosen, &summary); err != nil {
			return summary, err
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	return summary, nil
}

func (imp *importer) confident(suggestions []pattern.Suggestion) bool {
	if imp.opts.learnAbove <= 0 || len(suggestions) == 0 {
		return false
	}
	top := suggestions[0]
	return top.DirectionErr == nil && top.Confidence >= imp.opts.learnAbove
}

func (imp *importer) learn(ctx context.Context, txn model.Transaction, categoryID string, summary *importSummary) error {
	result, err := imp.learner.Learn(ctx, txn.MatchText(), categoryID, imp.userID)
	if err != nil {
		return err
	}
	summary.Learned++
	if failed := result.Count(pattern.OutcomeFailed); failed > 0 {
		summary.LearnFailures += failed
	}
	if result.Count(pattern.OutcomeCreated) > 0 {
		return imp.reload(ctx)
	}
	return nil
}

func printImportSummary(out io.Writer, s importSummary) {
	_, _ = fmt.Fprintln(out, cli.FormatTitle("Import summary"))
	_, _ = fmt.Fprintf(out, "  Transactions:      %d\n", s.Total)
	_, _ = fmt.Fprintf(out, "  With suggestions:  %d\n", s.Matched)
	_, _ = fmt.Fprintf(out, "  Learned:           %d\n", s.Learned)
	_, _ = fmt.Fprintf(out, "  Reviewed by you:   %d\n", s.Reviewed)
	_, _ = fmt.Fprintf(out, "  Left uncategorized: %d\n", s.Skipped)
	if s.DirectionIssues > 0 {
		_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d top suggestions conflict with the transaction direction", s.DirectionIssues)))
	}
	if s.LearnFailures > 0 {
		_, _ = fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d candidate patterns could not be saved; see logs", s.LearnFailures)))
	}
}
