// Package persona classifies users into behavioral personas from their
// detected signal set.
package persona

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calluna/finsight/internal/config"
	"github.com/calluna/finsight/internal/model"
)

// Classifier evaluates persona rules against a signal set. It is a pure
// function of its inputs: identical signals always produce identical,
// identically-ordered assignments.
type Classifier struct {
	cfg config.Persona
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(cfg config.Persona) *Classifier {
	return &Classifier{cfg: cfg}
}

// match is one satisfied persona rule before ranking.
type match struct {
	assignment    model.PersonaAssignment
	definingValue float64
}

// Classify returns every persona the signal set matches, ranked by
// severity. Ranks are reassigned as a dense 1..N sequence after ordering.
func (c *Classifier) Classify(signals []model.Signal, windowDays int) []model.PersonaAssignment {
	if len(signals) == 0 {
		return nil
	}

	userID := signals[0].UserID
	assignedAt := latestComputedAt(signals)
	latest := latestByType(signals)
	subs := ofType(signals, model.SignalSubscription)

	var matches []match

	// All threshold checks are closed boundary comparisons: a value
	// exactly at the threshold matches.
	if s, ok := latest[model.SignalCreditUtilization]; ok && s.Value >= c.cfg.UtilizationThreshold {
		matches = append(matches, match{
			definingValue: s.Value,
			assignment: model.PersonaAssignment{
				UserID:     userID,
				WindowDays: windowDays,
				Type:       model.PersonaHighUtilization,
				AssignedAt: assignedAt,
				Criteria: []model.Criterion{
					{Name: "credit_utilization_at_least", Measured: s.Value, Threshold: c.cfg.UtilizationThreshold},
				},
			},
		})
	}

	if s, ok := latest[model.SignalIncomeStability]; ok && s.Value > c.cfg.IncomeGapDays {
		matches = append(matches, match{
			definingValue: s.Value,
			assignment: model.PersonaAssignment{
				UserID:     userID,
				WindowDays: windowDays,
				Type:       model.PersonaVariableIncome,
				AssignedAt: assignedAt,
				Criteria: []model.Criterion{
					{Name: "median_deposit_gap_above", Measured: s.Value, Threshold: c.cfg.IncomeGapDays},
				},
			},
		})
	}

	if len(subs) >= c.cfg.SubscriptionCount {
		monthlySum := decimal.Zero
		for _, s := range subs {
			if d, ok := s.Detail.(model.SubscriptionDetail); ok {
				monthlySum = monthlySum.Add(d.MonthlyCost)
			}
		}
		if monthlySum.GreaterThanOrEqual(decimal.NewFromFloat(c.cfg.SubscriptionMonthly)) {
			sumValue := monthlySum.InexactFloat64()
			matches = append(matches, match{
				definingValue: sumValue,
				assignment: model.PersonaAssignment{
					UserID:     userID,
					WindowDays: windowDays,
					Type:       model.PersonaSubscriptionHeavy,
					AssignedAt: assignedAt,
					Criteria: []model.Criterion{
						{Name: "subscription_count_at_least", Measured: float64(len(subs)), Threshold: float64(c.cfg.SubscriptionCount)},
						{Name: "subscription_monthly_at_least", Measured: sumValue, Threshold: c.cfg.SubscriptionMonthly},
					},
				},
			})
		}
	}

	if s, ok := latest[model.SignalSavingsGrowth]; ok && s.Value >= c.cfg.SavingsMonthly {
		// Missing utilization counts as low: no credit exposure is not
		// penalized.
		util, hasUtil := 0.0, false
		if u, ok := latest[model.SignalCreditUtilization]; ok {
			util, hasUtil = u.Value, true
		}
		if !hasUtil || util < c.cfg.SavingsUtilizationCap {
			matches = append(matches, match{
				definingValue: s.Value,
				assignment: model.PersonaAssignment{
					UserID:     userID,
					WindowDays: windowDays,
					Type:       model.PersonaSavingsBuilder,
					AssignedAt: assignedAt,
					Criteria: []model.Criterion{
						{Name: "savings_growth_at_least", Measured: s.Value, Threshold: c.cfg.SavingsMonthly},
						{Name: "credit_utilization_below", Measured: util, Threshold: c.cfg.SavingsUtilizationCap},
					},
				},
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		wi := matches[i].assignment.Type.SeverityWeight()
		wj := matches[j].assignment.Type.SeverityWeight()
		if wi != wj {
			return wi > wj
		}
		return matches[i].definingValue > matches[j].definingValue
	})

	out := make([]model.PersonaAssignment, 0, len(matches))
	for i, m := range matches {
		m.assignment.PriorityRank = i + 1
		out = append(out, m.assignment)
	}
	return out
}

// latestByType picks the most recent signal of each type. Subscription
// signals are excluded since they are legitimately plural.
func latestByType(signals []model.Signal) map[model.SignalType]model.Signal {
	latest := make(map[model.SignalType]model.Signal)
	for _, s := range signals {
		if s.Type == model.SignalSubscription {
			continue
		}
		if cur, ok := latest[s.Type]; !ok || s.ComputedAt.After(cur.ComputedAt) {
			latest[s.Type] = s
		}
	}
	return latest
}

func ofType(signals []model.Signal, t model.SignalType) []model.Signal {
	var out []model.Signal
	for _, s := range signals {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

func latestComputedAt(signals []model.Signal) time.Time {
	var latest time.Time
	for _, s := range signals {
		if s.ComputedAt.After(latest) {
			latest = s.ComputedAt
		}
	}
	return latest
}
