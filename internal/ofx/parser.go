// Package ofx reads OFX/QFX bank statements into transactions for categorization.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/spice-patterns/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line with no closing bracket.
	unclosedTagRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	leadingDateRegex = regexp.MustCompile(`^\d{2}/\d{2}\s+`)
)

// Prefixes card processors put in front of the merchant name.
var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTagRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX document and returns its transactions in statement order.
// Transactions repeated across statements (same account and FITID) are returned once.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var (
		transactions []model.Transaction
		bankStmts    int
		ccStmts      int
		duplicates   int
	)
	seen := make(map[string]struct{})

	add := func(accountID string, list *ofxgo.TransactionList) error {
		if list == nil {
			return nil
		}
		for _, ofxTx := range list.Transactions {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := accountID + "/" + string(ofxTx.FiTID)
			if _, dup := seen[key]; dup {
				duplicates++
				continue
			}
			seen[key] = struct{}{}

			tx, err := convertTransaction(ofxTx, accountID)
			if err != nil {
				slog.Warn("Skipping OFX transaction",
					"account", accountID,
					"fitid", ofxTx.FiTID,
					"error", err)
				continue
			}
			transactions = append(transactions, tx)
		}
		return nil
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if err := add(string(stmt.BankAcctFrom.AcctID), stmt.BankTranList); err != nil {
				return nil, err
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if err := add(string(stmt.CCAcctFrom.AcctID), stmt.BankTranList); err != nil {
				return nil, err
			}
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts,
		"duplicates", duplicates)

	return transactions, nil
}

// convertTransaction converts an OFX transaction to our model. Debits keep their negative sign.
func convertTransaction(ofxTx ofxgo.Transaction, accountID string) (model.Transaction, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount %q: %w", ofxTx.TrnAmt.String(), err)
	}

	description := strings.TrimSpace(string(ofxTx.Name))
	if description == "" || isGenericDescription(description) {
		if memo := strings.TrimSpace(string(ofxTx.Memo)); memo != "" {
			description = memo
		}
	}

	return model.Transaction{
		ID:          string(ofxTx.FiTID),
		Date:        ofxTx.DtPosted.Time,
		Amount:      amount,
		Description: description,
		Payee:       extractMerchantName(ofxTx),
		AccountID:   accountID,
		Type:        fmt.Sprintf("%v", ofxTx.TrnType), // e.g., DEBIT, CHECK, PAYMENT, ATM
	}, nil
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	upper := strings.ToUpper(name)
	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	return leadingDateRegex.ReplaceAllString(name, "")
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// Accounts lists the account ids the document carries statements for.
func (p *Parser) Accounts(reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var accounts []string
	seen := make(map[string]bool)
	addAccount := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			accounts = append(accounts, id)
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			addAccount(string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			addAccount(string(stmt.CCAcctFrom.AcctID))
		}
	}

	return accounts, nil
}
