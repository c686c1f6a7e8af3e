// Package model defines the core domain models used throughout the application.
package model

import "github.com/shopspring/decimal"

// AccountType classifies an account by its financial function.
type AccountType string

const (
	// AccountTypeChecking represents a transactional deposit account.
	AccountTypeChecking AccountType = "checking"
	// AccountTypeSavings represents an interest-bearing deposit account.
	AccountTypeSavings AccountType = "savings"
	// AccountTypeCredit represents a revolving credit account.
	AccountTypeCredit AccountType = "credit"
	// AccountTypeLoan represents an installment loan account.
	AccountTypeLoan AccountType = "loan"
	// AccountTypeInvestment represents a brokerage or retirement account.
	AccountTypeInvestment AccountType = "investment"
)

// Account represents a single financial account in a user's snapshot.
type Account struct {
	ID          string
	Name        string
	Type        AccountType
	Subtype     string // Institution-specific refinement (e.g., "money_market", "cd")
	Currency    string
	Balance     decimal.Decimal // Current balance; positive for credit accounts means amount owed
	CreditLimit decimal.Decimal // Zero or negative means no usable limit
}

// IsDeposit reports whether the account holds user deposits that count
// toward savings analysis.
func (a Account) IsDeposit() bool {
	if a.Type == AccountTypeSavings {
		return true
	}
	return a.Type == AccountTypeChecking && (a.Subtype == "money_market" || a.Subtype == "cd")
}
