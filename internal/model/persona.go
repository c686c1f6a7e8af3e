package model

import "time"

// PersonaType identifies a behavioral persona a user can be classified into.
type PersonaType string

const (
	// PersonaHighUtilization flags users carrying high revolving credit balances.
	PersonaHighUtilization PersonaType = "high_utilization"
	// PersonaVariableIncome flags users with irregular deposit cadence.
	PersonaVariableIncome PersonaType = "variable_income"
	// PersonaSubscriptionHeavy flags users with many recurring charges.
	PersonaSubscriptionHeavy PersonaType = "subscription_heavy"
	// PersonaSavingsBuilder flags users steadily growing deposits with low credit exposure.
	PersonaSavingsBuilder PersonaType = "savings_builder"
)

// SeverityWeight orders personas by urgency for priority ranking. Higher
// weight sorts first.
func (p PersonaType) SeverityWeight() int {
	switch p {
	case PersonaHighUtilization:
		return 40
	case PersonaVariableIncome:
		return 30
	case PersonaSubscriptionHeavy:
		return 20
	case PersonaSavingsBuilder:
		return 10
	}
	return 0
}

// Criterion records one satisfied classification rule and the value that
// satisfied it, for auditability.
type Criterion struct {
	Name      string  `json:"name"`
	Measured  float64 `json:"measured"`
	Threshold float64 `json:"threshold"`
}

// PersonaAssignment is the result of classifying a user into one persona.
type PersonaAssignment struct {
	AssignedAt   time.Time
	UserID       string
	Type         PersonaType
	Criteria     []Criterion
	WindowDays   int
	PriorityRank int // 1 = highest priority; dense 1..N across a user's assignments
}
