package pattern

import (
	"testing"

	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggester_Suggest(t *testing.T) {
	groceries := model.Category{ID: "groceries", Name: "Groceries", Type: model.CategoryTypeExpenditure}
	refunds := model.Category{ID: "refunds", Name: "Refunds", Type: model.CategoryTypeIncome}

	patterns := []model.Pattern{
		{ID: "p1", Pattern: `\btesco\b`, CategoryID: "groceries", ConfidenceScore: 70},
		{ID: "p2", Pattern: `tesco\s+stores`, CategoryID: "groceries", ConfidenceScore: 85},
		{ID: "p3", Pattern: `\bstores\b`, CategoryID: "refunds", ConfidenceScore: 40},
	}

	s := NewSuggester(NewMatcher(patterns), []model.Category{groceries, refunds})

	txn := model.Transaction{
		Description: "TESCO STORES 3321",
		Amount:      decimal.RequireFromString("-23.40"),
	}

	got := s.Suggest(txn, 5)
	require.Len(t, got, 2, "one suggestion per category")

	assert.Equal(t, "p2", got[0].PatternID)
	assert.Equal(t, "groceries", got[0].CategoryID)
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "Groceries", got[0].Category.Name)
	assert.NoError(t, got[0].DirectionErr)
	assert.Equal(t, `Description matches /tesco\s+stores/ which is usually categorized as Groceries (85% confidence)`, got[0].Reason)

	assert.Equal(t, "refunds", got[1].CategoryID)
	assert.Error(t, got[1].DirectionErr, "income category on a debit should be flagged")

	assert.Len(t, s.Suggest(txn, 1), 1)
}

func TestSuggester_UsesPayee(t *testing.T) {
	patterns := []model.Pattern{
		{ID: "p1", Pattern: `\bnetflix\b`, CategoryID: "subs", ConfidenceScore: 70},
	}
	s := NewSuggester(NewMatcher(patterns), nil)

	got := s.Suggest(model.Transaction{Description: "DIRECT DEBIT 8812", Payee: "Netflix"}, 3)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Category)
	assert.Contains(t, got[0].Reason, "categorized as subs")
}

func TestValidateDirection(t *testing.T) {
	income := model.Category{Name: "Salary", Type: model.CategoryTypeIncome}
	expenditure := model.Category{Name: "Rent", Type: model.CategoryTypeExpenditure}
	capital := model.Category{Name: "Equipment", Type: model.CategoryTypeCapital}

	debit := model.Transaction{Amount: decimal.RequireFromString("-950.00")}
	credit := model.Transaction{Amount: decimal.RequireFromString("2500.00")}
	zero := model.Transaction{Amount: decimal.Zero}

	assert.NoError(t, ValidateDirection(debit, expenditure))
	assert.NoError(t, ValidateDirection(credit, income))
	assert.NoError(t, ValidateDirection(debit, capital))
	assert.NoError(t, ValidateDirection(credit, capital))
	assert.NoError(t, ValidateDirection(zero, income))

	err := ValidateDirection(debit, income)
	require.Error(t, err)
	assert.Equal(t, `category "Salary" has type income but transaction amount -950.00 implies expenditure`, err.Error())
	assert.Error(t, ValidateDirection(credit, expenditure))
}
