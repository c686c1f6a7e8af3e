package model

import (
	"crypto/sha256"
	"fmt"

	"github.com/shopspring/decimal"
)

// RecommendationKind identifies one kind of actionable recommendation.
type RecommendationKind string

const (
	// KindPaydownPlan suggests a structured paydown of revolving balances.
	KindPaydownPlan RecommendationKind = "paydown_plan"
	// KindBalanceTransfer suggests moving a balance to a lower-APR product.
	KindBalanceTransfer RecommendationKind = "balance_transfer"
	// KindEmergencyBuffer suggests building a cash buffer against income gaps.
	KindEmergencyBuffer RecommendationKind = "emergency_buffer"
	// KindFlexibleBudget suggests a percentage-based budget for uneven income.
	KindFlexibleBudget RecommendationKind = "flexible_budget"
	// KindSubscriptionReview suggests auditing recurring charges.
	KindSubscriptionReview RecommendationKind = "subscription_review"
	// KindSavingsBoost suggests raising an automatic savings contribution.
	KindSavingsBoost RecommendationKind = "savings_boost"
	// KindCreditLineIncrease suggests requesting a higher credit limit.
	KindCreditLineIncrease RecommendationKind = "credit_line_increase"
)

// IsCreditProduct reports whether acting on the recommendation would add
// or expand a credit product. Credit products carry extra guardrails.
func (k RecommendationKind) IsCreditProduct() bool {
	return k == KindBalanceTransfer || k == KindCreditLineIncrease
}

// RecommendationParams carries the numeric parameters bound into a
// recommendation from its triggering signal evidence. Unused fields stay
// at their zero values.
type RecommendationParams struct {
	AccountIDs      []string        `json:"account_ids,omitempty"`
	Merchants       []string        `json:"merchants,omitempty"`
	Utilization     float64         `json:"utilization,omitempty"`
	MedianGapDays   float64         `json:"median_gap_days,omitempty"`
	MonthlyAmount   decimal.Decimal `json:"monthly_amount"`
	SuggestedAmount decimal.Decimal `json:"suggested_amount"`
}

// RecommendationCandidate is one recommendation proposed for a user,
// before guardrail filtering.
type RecommendationCandidate struct {
	ID        string
	UserID    string
	Kind      RecommendationKind
	Persona   PersonaType // The persona assignment that produced this candidate
	Rationale string
	Params    RecommendationParams
}

// GenerateID derives a stable content hash so identical inputs always
// produce identical candidate ids across runs.
func (c *RecommendationCandidate) GenerateID() string {
	data := fmt.Sprintf("%s:%s:%s", c.UserID, c.Kind, c.Persona)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:8])
}
