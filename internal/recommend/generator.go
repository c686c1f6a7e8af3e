// Package recommend maps persona assignments and their signal evidence
// to candidate recommendations.
package recommend

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/calluna/finsight/internal/model"
)

// Generator produces recommendation candidates from persona assignments.
// Candidates carry deterministic content-hash ids so reruns over the
// same input are byte-identical.
type Generator struct{}

// NewGenerator creates a recommendation generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the candidate set for a user. Assignments are walked
// in priority order; when two personas propose the same kind, the
// higher-priority persona's version wins. Output order follows persona
// rank, then template declaration order within a persona.
func (g *Generator) Generate(userID string, assignments []model.PersonaAssignment, signals []model.Signal) []model.RecommendationCandidate {
	ordered := append([]model.PersonaAssignment(nil), assignments...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].PriorityRank < ordered[j].PriorityRank })

	ev := gatherEvidence(signals)
	seen := make(map[model.RecommendationKind]bool)
	var out []model.RecommendationCandidate

	for _, a := range ordered {
		for _, c := range templatesFor(a, ev) {
			if seen[c.Kind] {
				continue
			}
			seen[c.Kind] = true
			c.UserID = userID
			c.Persona = a.Type
			c.ID = c.GenerateID()
			out = append(out, c)
		}
	}
	return out
}

// evidence is the signal detail relevant to template parameter binding.
type evidence struct {
	utilization   *model.UtilizationDetail
	savings       *model.SavingsGrowthDetail
	income        *model.IncomeStabilityDetail
	subscriptions []model.SubscriptionDetail
	utilValue     float64
	savingsValue  float64
	incomeValue   float64
}

func gatherEvidence(signals []model.Signal) evidence {
	var ev evidence
	for _, s := range signals {
		switch d := s.Detail.(type) {
		case model.UtilizationDetail:
			ev.utilization = &d
			ev.utilValue = s.Value
		case model.SavingsGrowthDetail:
			ev.savings = &d
			ev.savingsValue = s.Value
		case model.IncomeStabilityDetail:
			ev.income = &d
			ev.incomeValue = s.Value
		case model.SubscriptionDetail:
			ev.subscriptions = append(ev.subscriptions, d)
		}
	}
	return ev
}

// templatesFor is the static persona-to-recommendation mapping. The
// switch is exhaustive over the persona enumeration; a new persona will
// not compile its way past this silently since it produces no templates
// and the generator tests pin the mapping.
func templatesFor(a model.PersonaAssignment, ev evidence) []model.RecommendationCandidate {
	switch a.Type {
	case model.PersonaHighUtilization:
		return highUtilizationTemplates(ev)
	case model.PersonaVariableIncome:
		return variableIncomeTemplates(ev)
	case model.PersonaSubscriptionHeavy:
		return subscriptionHeavyTemplates(ev)
	case model.PersonaSavingsBuilder:
		return savingsBuilderTemplates(ev)
	}
	return nil
}

func highUtilizationTemplates(ev evidence) []model.RecommendationCandidate {
	params := model.RecommendationParams{Utilization: ev.utilValue}
	if ev.utilization != nil {
		params.AccountIDs = ev.utilization.AccountIDs
		// Pay down to 30% utilization on the riskiest account.
		target := ev.utilization.Limit.Mul(decimal.NewFromFloat(0.30))
		if paydown := ev.utilization.Balance.Sub(target); paydown.IsPositive() {
			params.SuggestedAmount = paydown.Round(2)
		}
	}

	transfer := model.RecommendationParams{Utilization: ev.utilValue}
	if ev.utilization != nil {
		transfer.AccountIDs = []string{ev.utilization.TopAccountID}
	}

	return []model.RecommendationCandidate{
		{
			Kind:      model.KindPaydownPlan,
			Rationale: fmt.Sprintf("Credit utilization is at %.0f%%; paying balances down below 30%% reduces interest cost and credit risk.", ev.utilValue*100),
			Params:    params,
		},
		{
			Kind:      model.KindBalanceTransfer,
			Rationale: "A lower-APR balance transfer could cut the interest paid while the balance is paid down.",
			Params:    transfer,
		},
	}
}

func variableIncomeTemplates(ev evidence) []model.RecommendationCandidate {
	params := model.RecommendationParams{MedianGapDays: ev.incomeValue}
	return []model.RecommendationCandidate{
		{
			Kind:      model.KindEmergencyBuffer,
			Rationale: fmt.Sprintf("Deposits arrive roughly every %.0f days; a cash buffer smooths the gaps between them.", ev.incomeValue),
			Params:    params,
		},
		{
			Kind:      model.KindFlexibleBudget,
			Rationale: "With irregular income, budgeting by percentage of each deposit works better than fixed monthly amounts.",
			Params:    params,
		},
	}
}

func subscriptionHeavyTemplates(ev evidence) []model.RecommendationCandidate {
	var (
		merchants []string
		monthly   = decimal.Zero
	)
	for _, s := range ev.subscriptions {
		merchants = append(merchants, s.Merchant)
		monthly = monthly.Add(s.MonthlyCost)
	}
	sort.Strings(merchants)

	return []model.RecommendationCandidate{
		{
			Kind: model.KindSubscriptionReview,
			Rationale: fmt.Sprintf("%d recurring charges total %s per month; reviewing them usually finds something to cancel.",
				len(merchants), monthly.Round(2).StringFixed(2)),
			Params: model.RecommendationParams{
				Merchants:     merchants,
				MonthlyAmount: monthly.Round(2),
			},
		},
	}
}

func savingsBuilderTemplates(ev evidence) []model.RecommendationCandidate {
	var rate decimal.Decimal
	if ev.savings != nil {
		rate = ev.savings.NetChange.Div(decimal.NewFromInt(int64(maxInt(ev.savings.Months, 1))))
	}
	boost := model.RecommendationParams{
		MonthlyAmount:   rate.Round(2),
		SuggestedAmount: rate.Mul(decimal.NewFromFloat(0.10)).Round(2),
	}
	if ev.savings != nil {
		boost.AccountIDs = ev.savings.AccountIDs
	}

	return []model.RecommendationCandidate{
		{
			Kind:      model.KindSavingsBoost,
			Rationale: fmt.Sprintf("Savings are growing by %s per month; raising automatic contributions locks the habit in.", rate.Round(2).StringFixed(2)),
			Params:    boost,
		},
		{
			Kind:      model.KindCreditLineIncrease,
			Rationale: "With steady savings and low utilization, a higher credit limit lowers utilization further at no cost.",
			Params:    model.RecommendationParams{Utilization: ev.utilValue},
		},
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
