package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single bank-statement line handed to the pattern engine.
type Transaction struct {
	Date        time.Time
	Amount      decimal.Decimal
	ID          string
	Description string // Raw description as it appears on the statement
	Payee       string // Cleaned payee name when the source provides one
	AccountID   string
	Type        string // Source transaction type (e.g., DEBIT, CHECK, PAYMENT, ATM)
}

// MatchText returns the text the matcher should look at.
// The payee is preferred when the raw description is empty or generic.
func (t *Transaction) MatchText() string {
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return strings.TrimSpace(t.Payee)
	}
	if t.Payee != "" && !strings.Contains(strings.ToLower(desc), strings.ToLower(t.Payee)) {
		return t.Payee + " " + desc
	}
	return desc
}

// IsDebit reports whether money left the account.
func (t *Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}
