package model

import "time"

// UserOutputs is the complete persisted result of one pipeline run for
// one user, as consumed by the evaluation harness.
type UserOutputs struct {
	UserID         string
	WindowDays     int
	ConsentGranted bool
	Signals        []Signal
	Assignments    []PersonaAssignment
	Results        []CandidateDecision
	Feedback       []Feedback
}

// DeliveredKinds returns the kinds of recommendations that cleared the
// guardrail filter, in output order.
func (u UserOutputs) DeliveredKinds() []RecommendationKind {
	var kinds []RecommendationKind
	for _, r := range u.Results {
		if r.Delivered() {
			kinds = append(kinds, r.Candidate.Kind)
		}
	}
	return kinds
}

// RunRecord is audit bookkeeping for one persisted pipeline run. The ID
// is a fresh UUID per run and is never part of the comparable output set.
type RunRecord struct {
	StartedAt   time.Time
	CompletedAt time.Time
	ID          string
	UserID      string
	WindowDays  int
}

// MetricsRecord is the aggregate quality report produced by the
// evaluation harness. Every rate is 0 when its denominator is 0.
type MetricsRecord struct {
	GeneratedAt     time.Time
	Population      int
	Relevance       float64
	Diversity       float64
	Coverage        float64
	Personalization float64
	EligibilityRate float64
	ConsentRate     float64
	SignalRate      float64
}
