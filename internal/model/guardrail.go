package model

// GuardrailOutcome is the result of running eligibility predicates
// against one recommendation candidate.
type GuardrailOutcome string

const (
	// OutcomeEligible means every predicate passed.
	OutcomeEligible GuardrailOutcome = "eligible"
	// OutcomeIneligible means a predicate definitively failed.
	OutcomeIneligible GuardrailOutcome = "ineligible"
	// OutcomeNeedsReview means a predicate could not be decided from the
	// available profile data.
	OutcomeNeedsReview GuardrailOutcome = "needs_review"
)

// GuardrailDecision records why a candidate was allowed or suppressed.
type GuardrailDecision struct {
	CandidateID string
	Outcome     GuardrailOutcome
	Rule        string // Name of the predicate that decided the outcome
	Explanation string
}

// CandidateDecision pairs a candidate with its guardrail decision.
// Ineligible candidates are retained here for audit; only eligible ones
// are surfaced to end users.
type CandidateDecision struct {
	Candidate RecommendationCandidate
	Decision  GuardrailDecision
}

// Delivered reports whether the candidate may be shown to the user.
func (cd CandidateDecision) Delivered() bool {
	return cd.Decision.Outcome == OutcomeEligible
}
