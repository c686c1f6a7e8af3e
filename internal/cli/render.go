package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/calluna/finsight/internal/model"
)

// RenderOutputs writes a styled summary of one user's pipeline results.
func RenderOutputs(w io.Writer, out *model.UserOutputs) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Results for %s (%d-day window)", out.UserID, out.WindowDays)))

	fmt.Fprintln(w, BoldStyle.Render("Signals"))
	if len(out.Signals) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("  none detected"))
	}
	for _, s := range out.Signals {
		fmt.Fprintf(w, "  %-22s %10.2f  %s\n", s.Type, s.Value, SubtleStyle.Render(describeDetail(s.Detail)))
	}

	fmt.Fprintln(w, BoldStyle.Render("Personas"))
	if len(out.Assignments) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("  no personas matched"))
	}
	for _, a := range out.Assignments {
		fmt.Fprintf(w, "  %d. %s\n", a.PriorityRank, a.Type)
	}

	fmt.Fprintln(w, BoldStyle.Render("Recommendations"))
	if len(out.Results) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("  none generated"))
	}
	for _, r := range out.Results {
		fmt.Fprintf(w, "  %s %s\n", styleOutcome(r.Decision.Outcome), r.Candidate.Kind)
		fmt.Fprintf(w, "     %s\n", SubtleStyle.Render(r.Candidate.Rationale))
		if r.Decision.Outcome != model.OutcomeEligible {
			fmt.Fprintf(w, "     %s\n", SubtleStyle.Render(fmt.Sprintf("%s: %s", r.Decision.Rule, r.Decision.Explanation)))
		}
	}
}

// RenderMetrics writes a styled evaluation report.
func RenderMetrics(w io.Writer, m model.MetricsRecord) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("Evaluation over %d users", m.Population)))
	rows := []struct {
		name  string
		value float64
	}{
		{"Relevance", m.Relevance},
		{"Diversity", m.Diversity},
		{"Coverage", m.Coverage},
		{"Personalization", m.Personalization},
		{"Eligibility rate", m.EligibilityRate},
		{"Consent rate", m.ConsentRate},
		{"Signal rate", m.SignalRate},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-18s %6.1f%%\n", r.name, r.value*100)
	}
}

func styleOutcome(o model.GuardrailOutcome) string {
	switch o {
	case model.OutcomeEligible:
		return SuccessStyle.Render("✓")
	case model.OutcomeNeedsReview:
		return WarningStyle.Render("?")
	case model.OutcomeIneligible:
		return ErrorStyle.Render("✗")
	}
	return "·"
}

func describeDetail(d model.SignalDetail) string {
	switch v := d.(type) {
	case model.UtilizationDetail:
		return fmt.Sprintf("account %s, balance %s of %s", v.TopAccountID, v.Balance.StringFixed(2), v.Limit.StringFixed(2))
	case model.SavingsGrowthDetail:
		return fmt.Sprintf("net %s over %d months", v.NetChange.StringFixed(2), v.Months)
	case model.SubscriptionDetail:
		return fmt.Sprintf("%s, %s, %d charges of %s", v.Merchant, v.Period, v.Occurrences, v.Amount.StringFixed(2))
	case model.IncomeStabilityDetail:
		return fmt.Sprintf("%d deposits from %s", v.DepositCount, strings.Join(v.Sources, ", "))
	}
	return ""
}
