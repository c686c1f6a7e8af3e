// Package guardrail applies eligibility and compliance predicates to
// recommendation candidates before they reach users.
package guardrail

import (
	"fmt"

	"github.com/calluna/finsight/internal/config"
	"github.com/calluna/finsight/internal/model"
)

// Filter evaluates an ordered predicate list per recommendation kind.
// Candidates are never dropped: every input candidate comes back exactly
// once, annotated with a decision, so suppressed recommendations remain
// auditable.
type Filter struct {
	cfg config.Guardrail
}

// NewFilter creates a guardrail filter with the given limits.
func NewFilter(cfg config.Guardrail) *Filter {
	return &Filter{cfg: cfg}
}

// verdict is the outcome of one predicate. A zero verdict means pass.
type verdict struct {
	outcome     model.GuardrailOutcome
	rule        string
	explanation string
}

// predicate checks one eligibility rule against a candidate and profile.
type predicate func(c model.RecommendationCandidate, p model.UserProfile) verdict

// Filter runs every candidate through its kind's predicate chain. The
// first failing predicate decides; if all pass, the candidate is
// eligible. A predicate that cannot be decided from the available
// profile data yields needs_review, never a silent pass or fail.
func (f *Filter) Filter(candidates []model.RecommendationCandidate, profile model.UserProfile) []model.CandidateDecision {
	out := make([]model.CandidateDecision, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, model.CandidateDecision{
			Candidate: c,
			Decision:  f.decide(c, profile),
		})
	}
	return out
}

func (f *Filter) decide(c model.RecommendationCandidate, profile model.UserProfile) model.GuardrailDecision {
	for _, p := range f.predicatesFor(c.Kind) {
		if v := p(c, profile); v.outcome != "" {
			return model.GuardrailDecision{
				CandidateID: c.ID,
				Outcome:     v.outcome,
				Rule:        v.rule,
				Explanation: v.explanation,
			}
		}
	}
	return model.GuardrailDecision{
		CandidateID: c.ID,
		Outcome:     model.OutcomeEligible,
		Explanation: "all eligibility checks passed",
	}
}

// predicatesFor returns the ordered rule chain for a recommendation
// kind. Kinds without entries have no restrictions.
func (f *Filter) predicatesFor(kind model.RecommendationKind) []predicate {
	var chain []predicate
	if kind.IsCreditProduct() {
		chain = append(chain, f.minimumAge, f.utilizationCeiling)
	}
	if kind == model.KindCreditLineIncrease {
		chain = append(chain, f.incomeMinimum)
	}
	return chain
}

func (f *Filter) minimumAge(_ model.RecommendationCandidate, p model.UserProfile) verdict {
	if p.Age == nil {
		return verdict{
			outcome:     model.OutcomeNeedsReview,
			rule:        "minimum_age",
			explanation: "age is not on file; credit product eligibility cannot be confirmed",
		}
	}
	if *p.Age < f.cfg.MinCreditAge {
		return verdict{
			outcome:     model.OutcomeIneligible,
			rule:        "minimum_age",
			explanation: fmt.Sprintf("credit products require age %d or older", f.cfg.MinCreditAge),
		}
	}
	return verdict{}
}

func (f *Filter) utilizationCeiling(c model.RecommendationCandidate, _ model.UserProfile) verdict {
	if c.Params.Utilization >= f.cfg.UtilizationCeiling {
		return verdict{
			outcome: model.OutcomeIneligible,
			rule:    "utilization_ceiling",
			explanation: fmt.Sprintf("utilization %.0f%% is at or above the %.0f%% ceiling for additional credit",
				c.Params.Utilization*100, f.cfg.UtilizationCeiling*100),
		}
	}
	return verdict{}
}

func (f *Filter) incomeMinimum(_ model.RecommendationCandidate, p model.UserProfile) verdict {
	switch p.IncomeLevel {
	case "":
		return verdict{
			outcome:     model.OutcomeNeedsReview,
			rule:        "income_minimum",
			explanation: "income level is not on file; limit increase eligibility cannot be confirmed",
		}
	case model.IncomeLow:
		return verdict{
			outcome:     model.OutcomeIneligible,
			rule:        "income_minimum",
			explanation: "limit increases are not recommended in the lowest income band",
		}
	}
	return verdict{}
}
