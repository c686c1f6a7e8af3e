package model

import "time"

// IncomeLevel is a coarse income band used by guardrail predicates.
type IncomeLevel string

const (
	// IncomeLow is the lowest income band.
	IncomeLow IncomeLevel = "low"
	// IncomeMedium is the middle income band.
	IncomeMedium IncomeLevel = "medium"
	// IncomeHigh is the highest income band.
	IncomeHigh IncomeLevel = "high"
)

// UserProfile holds the demographic facts guardrail predicates consult.
// Nil Age or empty IncomeLevel means the fact is unknown; predicates that
// need a missing fact return needs_review rather than guessing.
type UserProfile struct {
	UserID      string
	Age         *int
	IncomeLevel IncomeLevel
}

// Feedback records a user's reaction to a delivered recommendation.
type Feedback struct {
	RecordedAt  time.Time
	UserID      string
	CandidateID string
	Kind        RecommendationKind
	Helpful     bool
}
