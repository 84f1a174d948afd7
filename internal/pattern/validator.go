package pattern

import (
	"fmt"

	"github.com/Veraticus/spice-patterns/internal/model"
)

// ValidateDirection checks that a category's type agrees with the sign of the
// transaction amount. Capital categories are valid in both directions.
func ValidateDirection(txn model.Transaction, category model.Category) error {
	if category.Type == model.CategoryTypeCapital || txn.Amount.IsZero() {
		return nil
	}

	expected := model.CategoryTypeIncome
	if txn.IsDebit() {
		expected = model.CategoryTypeExpenditure
	}

	if category.Type != expected {
		return fmt.Errorf("category %q has type %s but transaction amount %s implies %s",
			category.Name, category.Type, txn.Amount.StringFixed(2), expected)
	}

	return nil
}
