// Package model defines the core data structures for the spice pattern engine.
package model

import (
	"fmt"
	"strings"
	"time"
)

// CategoryType indicates whether a category records income, expenditure, or capital movements.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for money coming in.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpenditure represents categories for money going out.
	CategoryTypeExpenditure CategoryType = "expenditure"
	// CategoryTypeCapital represents capital transactions (asset purchases, loans, owner drawings).
	CategoryTypeCapital CategoryType = "capital"
)

// Valid reports whether t is one of the known category types.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpenditure, CategoryTypeCapital:
		return true
	}
	return false
}

// ParseCategoryType converts user input into a CategoryType.
func ParseCategoryType(s string) (CategoryType, error) {
	t := CategoryType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid category type %q (valid: income, expenditure, capital)", s)
	}
	return t, nil
}

// Category is a user-defined bucket that transactions and patterns point at.
type Category struct {
	CreatedAt time.Time    `json:"created_at"`
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	Color     string       `json:"color,omitempty"`
}
