package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SignalType identifies a kind of derived behavioral signal.
type SignalType string

const (
	// SignalCreditUtilization reports the highest utilization ratio across credit accounts.
	SignalCreditUtilization SignalType = "credit_utilization"
	// SignalSavingsGrowth reports the average monthly net flow into deposit accounts.
	SignalSavingsGrowth SignalType = "savings_growth"
	// SignalSubscription reports one recurring merchant charge, normalized to a monthly cost.
	SignalSubscription SignalType = "subscription_detected"
	// SignalIncomeStability reports the median gap in days between recurring deposits.
	SignalIncomeStability SignalType = "income_stability"
)

// RecurrencePeriod is the cadence detected for a recurring charge or deposit.
type RecurrencePeriod string

const (
	// PeriodWeekly repeats roughly every 7 days.
	PeriodWeekly RecurrencePeriod = "weekly"
	// PeriodMonthly repeats roughly every 30 days.
	PeriodMonthly RecurrencePeriod = "monthly"
	// PeriodQuarterly repeats roughly every 91 days.
	PeriodQuarterly RecurrencePeriod = "quarterly"
	// PeriodYearly repeats roughly every 365 days.
	PeriodYearly RecurrencePeriod = "yearly"
)

// Days returns the nominal length of the period in days.
func (p RecurrencePeriod) Days() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	case PeriodQuarterly:
		return 91
	case PeriodYearly:
		return 365
	}
	return 0
}

// MonthlyFactor returns how many payments of this period fall in one month.
func (p RecurrencePeriod) MonthlyFactor() decimal.Decimal {
	switch p {
	case PeriodWeekly:
		return decimal.NewFromInt(52).Div(decimal.NewFromInt(12))
	case PeriodMonthly:
		return decimal.NewFromInt(1)
	case PeriodQuarterly:
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	case PeriodYearly:
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(12))
	}
	return decimal.Zero
}

// SignalDetail is the typed evidence payload attached to a Signal. Each
// signal type has its own variant so callers get compile-time shape
// checking instead of a generic map.
type SignalDetail interface {
	// DetailType reports which signal type the payload belongs to.
	DetailType() SignalType
	// Discriminator distinguishes multiple signals of the same type for
	// one user within a single detection run.
	Discriminator() string
}

// UtilizationDetail is the evidence behind a credit_utilization signal.
type UtilizationDetail struct {
	TopAccountID string          `json:"top_account_id"`
	AccountIDs   []string        `json:"account_ids"`
	Balance      decimal.Decimal `json:"balance"`
	Limit        decimal.Decimal `json:"limit"`
}

// DetailType implements SignalDetail.
func (UtilizationDetail) DetailType() SignalType { return SignalCreditUtilization }

// Discriminator implements SignalDetail.
func (d UtilizationDetail) Discriminator() string {
	ids := append([]string(nil), d.AccountIDs...)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// SavingsGrowthDetail is the evidence behind a savings_growth signal.
type SavingsGrowthDetail struct {
	AccountIDs []string        `json:"account_ids"`
	NetChange  decimal.Decimal `json:"net_change"`
	Months     int             `json:"months"`
}

// DetailType implements SignalDetail.
func (SavingsGrowthDetail) DetailType() SignalType { return SignalSavingsGrowth }

// Discriminator implements SignalDetail.
func (d SavingsGrowthDetail) Discriminator() string {
	ids := append([]string(nil), d.AccountIDs...)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// SubscriptionDetail is the evidence behind one subscription_detected signal.
type SubscriptionDetail struct {
	Merchant    string           `json:"merchant"`
	Period      RecurrencePeriod `json:"period"`
	Occurrences int              `json:"occurrences"`
	Amount      decimal.Decimal  `json:"amount"`
	MonthlyCost decimal.Decimal  `json:"monthly_cost"`
}

// DetailType implements SignalDetail.
func (SubscriptionDetail) DetailType() SignalType { return SignalSubscription }

// Discriminator implements SignalDetail.
func (d SubscriptionDetail) Discriminator() string {
	return fmt.Sprintf("%s|%s", d.Merchant, d.Period)
}

// IncomeStabilityDetail is the evidence behind an income_stability signal.
type IncomeStabilityDetail struct {
	Sources       []string `json:"sources"`
	DepositCount  int      `json:"deposit_count"`
	GapDays       []int    `json:"gap_days"`
	MedianGapDays float64  `json:"median_gap_days"`
}

// DetailType implements SignalDetail.
func (IncomeStabilityDetail) DetailType() SignalType { return SignalIncomeStability }

// Discriminator implements SignalDetail.
func (IncomeStabilityDetail) Discriminator() string { return "" }

// Signal is one derived behavioral measurement for a user. Value is
// always a finite real number; type-specific evidence lives in Detail.
type Signal struct {
	ComputedAt time.Time
	UserID     string
	Type       SignalType
	Detail     SignalDetail
	Value      float64
}

// DedupKey identifies a signal within one detection run. Two signals with
// the same key describe the same observation and must not both survive.
func (s Signal) DedupKey() string {
	return fmt.Sprintf("%s|%s|%s", s.UserID, s.Type, s.Detail.Discriminator())
}
