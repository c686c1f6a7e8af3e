// Package evaluate computes aggregate quality metrics over a
// population's pipeline outputs for monitoring and regression testing.
package evaluate

import (
	"time"

	"github.com/calluna/finsight/internal/model"
)

// allKinds enumerates every recommendation kind the generator can emit,
// used to normalize the diversity score.
var allKinds = []model.RecommendationKind{
	model.KindPaydownPlan,
	model.KindBalanceTransfer,
	model.KindEmergencyBuffer,
	model.KindFlexibleBudget,
	model.KindSubscriptionReview,
	model.KindSavingsBoost,
	model.KindCreditLineIncrease,
}

// Evaluate aggregates a batch of per-user pipeline outputs into a
// metrics record. It is read-only over the batch and safe to run while
// new pipeline runs execute, provided callers hand it a consistent
// snapshot of outputs. Every ratio is 0 when its denominator is 0.
func Evaluate(batch []model.UserOutputs) model.MetricsRecord {
	rec := model.MetricsRecord{
		GeneratedAt: time.Now().UTC(),
		Population:  len(batch),
	}
	if len(batch) == 0 {
		return rec
	}

	var (
		delivered        int
		deliveredHelpful int
		candidates       int
		eligible         int
		usersCovered     int
		usersWithSignals int
		usersWithConsent int
		distinctKinds    = make(map[model.RecommendationKind]bool)
	)

	for _, u := range batch {
		helpful := make(map[string]bool, len(u.Feedback))
		for _, fb := range u.Feedback {
			if fb.Helpful {
				helpful[fb.CandidateID] = true
			}
		}

		covered := false
		for _, r := range u.Results {
			candidates++
			if !r.Delivered() {
				continue
			}
			eligible++
			delivered++
			covered = true
			distinctKinds[r.Candidate.Kind] = true
			if helpful[r.Candidate.ID] {
				deliveredHelpful++
			}
		}

		if covered {
			usersCovered++
		}
		if len(u.Signals) > 0 {
			usersWithSignals++
		}
		if u.ConsentGranted {
			usersWithConsent++
		}
	}

	rec.Relevance = ratio(deliveredHelpful, delivered)
	rec.Diversity = ratio(len(distinctKinds), len(allKinds))
	rec.Coverage = ratio(usersCovered, len(batch))
	rec.Personalization = personalization(batch)
	rec.EligibilityRate = ratio(eligible, candidates)
	rec.ConsentRate = ratio(usersWithConsent, len(batch))
	rec.SignalRate = ratio(usersWithSignals, len(batch))
	return rec
}

// personalization measures how differently recommendation kinds are
// distributed across persona groups: the weighted mean total-variation
// distance between each group's kind distribution and the population's.
// 0 means every persona group sees the same mix; higher values mean the
// groups receive more differentiated recommendations.
func personalization(batch []model.UserOutputs) float64 {
	type dist struct {
		kinds map[model.RecommendationKind]int
		total int
	}
	global := dist{kinds: make(map[model.RecommendationKind]int)}
	groups := make(map[model.PersonaType]*dist)

	for _, u := range batch {
		group := topPersona(u.Assignments)
		g, ok := groups[group]
		if !ok {
			g = &dist{kinds: make(map[model.RecommendationKind]int)}
			groups[group] = g
		}
		for _, kind := range u.DeliveredKinds() {
			g.kinds[kind]++
			g.total++
			global.kinds[kind]++
			global.total++
		}
	}

	if global.total == 0 || len(groups) < 2 {
		return 0
	}

	var weighted, weights float64
	for _, g := range groups {
		if g.total == 0 {
			continue
		}
		var tv float64
		for kind, n := range global.kinds {
			pGlobal := float64(n) / float64(global.total)
			pGroup := float64(g.kinds[kind]) / float64(g.total)
			if d := pGroup - pGlobal; d > 0 {
				tv += d
			} else {
				tv -= d
			}
		}
		tv /= 2
		w := float64(g.total)
		weighted += w * tv
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return weighted / weights
}

// topPersona returns the rank-1 persona, or "" for unclassified users.
func topPersona(assignments []model.PersonaAssignment) model.PersonaType {
	for _, a := range assignments {
		if a.PriorityRank == 1 {
			return a.Type
		}
	}
	return ""
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
