package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single financial transaction from any source.
// Amounts are signed: negative for money leaving the account, positive
// for deposits.
type Transaction struct {
	Date         time.Time
	ID           string
	AccountID    string
	MerchantName string
	Category     string // Category hint from the data provider, if any
	Amount       decimal.Decimal
	Pending      bool
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.MerchantName,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
