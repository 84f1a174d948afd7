package categories

import "github.com/Veraticus/spice-patterns/internal/model"

// FixtureCategory is one entry of a fixture.
type FixtureCategory struct {
	Name CategoryName
	Type model.CategoryType
}

// Fixture is a predefined, reusable set of categories.
type Fixture struct {
	Name       string
	Categories []FixtureCategory
}

func expenditure(names ...CategoryName) []FixtureCategory {
	out := make([]FixtureCategory, len(names))
	for i, n := range names {
		out[i] = FixtureCategory{Name: n, Type: model.CategoryTypeExpenditure}
	}
	return out
}

// Predefined fixtures for common test scenarios.
var (
	// FixtureMinimal provides the absolute minimum categories for basic tests.
	FixtureMinimal = Fixture{
		Name:       "Minimal",
		Categories: expenditure(CategoryGroceries, CategoryOnlineShopping, CategoryBooks),
	}

	// FixtureStandard covers every category type.
	FixtureStandard = Fixture{
		Name: "Standard",
		Categories: append(
			expenditure(
				CategoryGroceries,
				CategoryFoodDining,
				CategoryOnlineShopping,
				CategoryBooks,
				CategoryTransportation,
				CategorySubscriptions,
				CategoryUtilities,
				CategoryTravel,
			),
			FixtureCategory{Name: CategorySalary, Type: model.CategoryTypeIncome},
			FixtureCategory{Name: CategoryRefunds, Type: model.CategoryTypeIncome},
			FixtureCategory{Name: CategoryTransfers, Type: model.CategoryTypeCapital},
		),
	}
)
