package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Liability captures the repayment terms attached to a credit or loan account.
type Liability struct {
	NextDueDate    time.Time
	AccountID      string
	MinimumPayment decimal.Decimal
	APR            float64 // Annual percentage rate, e.g. 24.99
	IsOverdue      bool
}
