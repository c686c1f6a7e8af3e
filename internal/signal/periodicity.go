package signal

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calluna/finsight/internal/model"
)

var (
	storeNumberRegex = regexp.MustCompile(`[#*]?\d{2,}$`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
)

// NormalizeMerchant reduces a raw merchant string to a stable grouping
// key: lowercase, punctuation stripped, trailing store numbers removed.
func NormalizeMerchant(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '\'', '"', '-', '_', '/':
			return ' '
		}
		return r
	}, n)
	n = storeNumberRegex.ReplaceAllString(strings.TrimSpace(n), "")
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(n), " ")
}

// occurrence is one dated amount inside a merchant group. Amounts are
// stored as absolute values; direction is decided by the caller.
type occurrence struct {
	date   time.Time
	amount decimal.Decimal
}

// candidatePeriods is the order in which cadences are tried. Shorter
// periods first so a weekly charge is never misread as monthly.
var candidatePeriods = []model.RecurrencePeriod{
	model.PeriodWeekly,
	model.PeriodMonthly,
	model.PeriodQuarterly,
	model.PeriodYearly,
}

// detectPeriod returns the cadence the occurrence gaps cluster around,
// or "" when no candidate period fits within toleranceDays.
func detectPeriod(occ []occurrence, toleranceDays int) model.RecurrencePeriod {
	if len(occ) < 2 {
		return ""
	}

	sorted := append([]occurrence(nil), occ...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].date.Before(sorted[j].date) })

	gaps := make([]int, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, daysBetween(sorted[i-1].date, sorted[i].date))
	}

	for _, period := range candidatePeriods {
		nominal := period.Days()
		fits := true
		for _, g := range gaps {
			if g < nominal-toleranceDays || g > nominal+toleranceDays {
				fits = false
				break
			}
		}
		if fits {
			return period
		}
	}

	return ""
}

// stableAmount returns the representative (median absolute) amount of a
// group and whether every member is within relTolerance of it.
func stableAmount(occ []occurrence, relTolerance float64) (decimal.Decimal, bool) {
	amounts := make([]decimal.Decimal, 0, len(occ))
	for _, o := range occ {
		amounts = append(amounts, o.amount.Abs())
	}
	median := medianDecimal(amounts)
	if median.IsZero() {
		return median, false
	}

	tol := median.Mul(decimal.NewFromFloat(relTolerance))
	for _, a := range amounts {
		if a.Sub(median).Abs().GreaterThan(tol) {
			return median, false
		}
	}
	return median, true
}

// consecutiveGaps returns the day gaps between consecutive occurrences
// in date order.
func consecutiveGaps(occ []occurrence) []int {
	sorted := append([]occurrence(nil), occ...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].date.Before(sorted[j].date) })

	gaps := make([]int, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, daysBetween(sorted[i-1].date, sorted[i].date))
	}
	return gaps
}

func daysBetween(a, b time.Time) int {
	d := b.Sub(a).Hours() / 24
	if d < 0 {
		d = -d
	}
	return int(d + 0.5)
}

func medianDecimal(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}

func medianInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}
