package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/Veraticus/spice-patterns/internal/pattern"
)

// ErrReviewQuit is returned when the user ends a review session.
var ErrReviewQuit = errors.New("review ended by user")

// Reviewer asks the user to confirm or pick a category for a transaction.
type Reviewer struct {
	writer     io.Writer
	reader     *NonBlockingReader
	categories []model.Category
}

// NewReviewer creates a reviewer reading answers from r and writing prompts to w.
func NewReviewer(r io.Reader, w io.Writer, categories []model.Category) *Reviewer {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &Reviewer{
		writer:     w,
		reader:     NewNonBlockingReader(r),
		categories: categories,
	}
}

// Review shows txn with its suggestions and returns the chosen category.
// A nil category means the user skipped the transaction.
//
// Answers: Enter accepts the first suggestion, a number picks a suggestion,
// a category name picks that category, "s" skips and "q" quits.
func (rv *Reviewer) Review(ctx context.Context, txn model.Transaction, suggestions []pattern.Suggestion) (*model.Category, error) {
	rv.showTransaction(txn, suggestions)

	for {
		rv.printf("%s", FormatPrompt("Category [Enter/1-9/name/s/q]"))

		answer, err := rv.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrReviewQuit
			}
			return nil, err
		}

		category, done, err := rv.resolve(answer, suggestions)
		if err != nil {
			return nil, err
		}
		if done {
			return category, nil
		}
	}
}

func (rv *Reviewer) resolve(answer string, suggestions []pattern.Suggestion) (*model.Category, bool, error) {
	switch strings.ToLower(answer) {
	case "q", "quit":
		return nil, false, ErrReviewQuit
	case "s", "skip":
		return nil, true, nil
	case "":
		if len(suggestions) == 0 {
			return nil, true, nil
		}
		return rv.suggestionCategory(suggestions[0]), true, nil
	}

	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(suggestions) {
			rv.println(FormatError(fmt.Sprintf("Pick a suggestion between 1 and %d", len(suggestions))))
			return nil, false, nil
		}
		return rv.suggestionCategory(suggestions[n-1]), true, nil
	}

	for i := range rv.categories {
		if strings.EqualFold(rv.categories[i].Name, answer) {
			cat := rv.categories[i]
			return &cat, true, nil
		}
	}

	rv.println(FormatError(fmt.Sprintf("Unknown category %q", answer)))
	return nil, false, nil
}

func (rv *Reviewer) suggestionCategory(s pattern.Suggestion) *model.Category {
	if s.Category != nil {
		cat := *s.Category
		return &cat
	}
	for i := range rv.categories {
		if rv.categories[i].ID == s.CategoryID {
			cat := rv.categories[i]
			return &cat
		}
	}
	return &model.Category{ID: s.CategoryID, Name: s.CategoryID}
}

func (rv *Reviewer) showTransaction(txn model.Transaction, suggestions []pattern.Suggestion) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", txn.Date.Format("2006-01-02"), BoldStyle.Render(txn.MatchText()))
	fmt.Fprintf(&b, "Amount: %s", txn.Amount.StringFixed(2))

	if len(suggestions) == 0 {
		b.WriteString("\n" + SubtleStyle.Render("No learned patterns match this transaction."))
	}
	for i, s := range suggestions {
		name := s.CategoryID
		if s.Category != nil {
			name = s.Category.Name
		}
		fmt.Fprintf(&b, "\n%d. %s %s  %s", i+1, FormatConfidence(s.Confidence), name, SubtleStyle.Render("/"+s.Pattern+"/"))
		if s.DirectionErr != nil {
			b.WriteString("\n   " + FormatWarning(s.DirectionErr.Error()))
		}
	}

	rv.println(RenderBox("Review transaction", b.String()))
}

func (rv *Reviewer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(rv.writer, format, args...)
}

func (rv *Reviewer) println(s string) {
	_, _ = fmt.Fprintln(rv.writer, s)
}
