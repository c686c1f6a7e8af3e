// Package signal computes behavioral signals from a user's raw financial
// snapshot over a trailing analysis window.
package signal

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calluna/finsight/internal/common"
	"github.com/calluna/finsight/internal/config"
	"github.com/calluna/finsight/internal/model"
)

// Detector derives signals from snapshots. It is stateless apart from
// its tolerances and safe for concurrent use.
type Detector struct {
	cfg config.Detector
}

// NewDetector creates a detector with the given tolerances.
func NewDetector(cfg config.Detector) *Detector {
	return &Detector{cfg: cfg}
}

// Detect computes every signal type the snapshot supports. Insufficient
// data omits a signal type; only malformed input is an error, and a
// malformed snapshot produces no signals at all.
//
// Detection is deterministic: timestamps derive from the snapshot, not
// the wall clock, so identical input yields identical output.
func (d *Detector) Detect(snapshot model.Snapshot, windowDays int) ([]model.Signal, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("%w: window of %d days", common.ErrInvalidWindow, windowDays)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, common.NewMalformedInputError(err)
	}

	asOf := snapshot.AsOf
	if asOf.IsZero() {
		asOf = latestTransactionDate(snapshot.Transactions)
	}
	windowStart := asOf.AddDate(0, 0, -windowDays)
	txns := settledWithin(snapshot.Transactions, windowStart, asOf)

	var signals []model.Signal
	if s := d.creditUtilization(snapshot, asOf); s != nil {
		signals = append(signals, *s)
	}
	if s := d.savingsGrowth(snapshot, txns, windowDays, asOf); s != nil {
		signals = append(signals, *s)
	}
	signals = append(signals, d.subscriptions(snapshot.UserID, txns, asOf)...)
	if s := d.incomeStability(snapshot.UserID, txns, asOf); s != nil {
		signals = append(signals, *s)
	}

	return dedupe(signals), nil
}

func (d *Detector) creditUtilization(snapshot model.Snapshot, asOf time.Time) *model.Signal {
	credit := snapshot.AccountsByType(model.AccountTypeCredit)
	sort.Slice(credit, func(i, j int) bool { return credit[i].ID < credit[j].ID })

	var (
		ids  []string
		top  *model.Account
		best float64
	)
	for i, a := range credit {
		if !a.CreditLimit.IsPositive() {
			continue
		}
		ids = append(ids, a.ID)
		util := a.Balance.Div(a.CreditLimit).InexactFloat64()
		// The riskiest account drives classification, not the average.
		if top == nil || util > best {
			top = &credit[i]
			best = util
		}
	}
	if top == nil {
		return nil
	}

	return &model.Signal{
		UserID:     snapshot.UserID,
		Type:       model.SignalCreditUtilization,
		Value:      best,
		ComputedAt: asOf,
		Detail: model.UtilizationDetail{
			TopAccountID: top.ID,
			AccountIDs:   ids,
			Balance:      top.Balance,
			Limit:        top.CreditLimit,
		},
	}
}

func (d *Detector) savingsGrowth(snapshot model.Snapshot, txns []model.Transaction, windowDays int, asOf time.Time) *model.Signal {
	deposit := make(map[string]bool)
	var ids []string
	for _, a := range snapshot.Accounts {
		if a.IsDeposit() {
			deposit[a.ID] = true
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	net := decimal.Zero
	for _, t := range txns {
		if deposit[t.AccountID] {
			net = net.Add(t.Amount)
		}
	}

	months := windowDays / 30
	if months < 1 {
		months = 1
	}
	rate := net.Div(decimal.NewFromInt(int64(months)))

	return &model.Signal{
		UserID:     snapshot.UserID,
		Type:       model.SignalSavingsGrowth,
		Value:      rate.InexactFloat64(),
		ComputedAt: asOf,
		Detail: model.SavingsGrowthDetail{
			AccountIDs: ids,
			NetChange:  net,
			Months:     months,
		},
	}
}

func (d *Detector) subscriptions(userID string, txns []model.Transaction, asOf time.Time) []model.Signal {
	groups := make(map[string][]occurrence)
	for _, t := range txns {
		if !t.Amount.IsNegative() || t.MerchantName == "" {
			continue
		}
		key := NormalizeMerchant(t.MerchantName)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], occurrence{date: t.Date, amount: t.Amount.Abs()})
	}

	var signals []model.Signal
	for merchant, occ := range groups {
		if len(occ) < d.cfg.MinOccurrences {
			continue
		}
		period := detectPeriod(occ, d.cfg.DateToleranceDays)
		if period == "" {
			continue
		}
		amount, ok := stableAmount(occ, d.cfg.AmountTolerance)
		if !ok {
			continue
		}

		monthly := amount.Mul(period.MonthlyFactor())
		signals = append(signals, model.Signal{
			UserID:     userID,
			Type:       model.SignalSubscription,
			Value:      monthly.InexactFloat64(),
			ComputedAt: asOf,
			Detail: model.SubscriptionDetail{
				Merchant:    merchant,
				Period:      period,
				Occurrences: len(occ),
				Amount:      amount,
				MonthlyCost: monthly,
			},
		})
	}

	return signals
}

func (d *Detector) incomeStability(userID string, txns []model.Transaction, asOf time.Time) *model.Signal {
	minAmount := decimal.NewFromFloat(d.cfg.MinDepositAmount)
	groups := make(map[string][]occurrence)
	for _, t := range txns {
		if !t.Amount.IsPositive() || t.Amount.LessThan(minAmount) {
			continue
		}
		key := NormalizeMerchant(t.MerchantName)
		if key == "" {
			key = "deposit"
		}
		groups[key] = append(groups[key], occurrence{date: t.Date, amount: t.Amount})
	}

	// Paycheck amounts drift more than subscription charges, so the
	// amount tolerance is doubled for deposits.
	var (
		qualifying []occurrence
		sources    []string
	)
	for source, occ := range groups {
		if len(occ) < 2 {
			continue
		}
		if detectPeriod(occ, d.cfg.DateToleranceDays) == "" {
			continue
		}
		if _, ok := stableAmount(occ, 2*d.cfg.AmountTolerance); !ok {
			continue
		}
		qualifying = append(qualifying, occ...)
		sources = append(sources, source)
	}
	if len(qualifying) < d.cfg.MinDeposits {
		return nil
	}
	sort.Strings(sources)

	gaps := consecutiveGaps(qualifying)
	median := medianInt(gaps)

	return &model.Signal{
		UserID:     userID,
		Type:       model.SignalIncomeStability,
		Value:      median,
		ComputedAt: asOf,
		Detail: model.IncomeStabilityDetail{
			Sources:       sources,
			DepositCount:  len(qualifying),
			GapDays:       gaps,
			MedianGapDays: median,
		},
	}
}

// dedupe removes signals sharing a dedup key (first kept) and fixes the
// output order so detection runs are reproducible.
func dedupe(signals []model.Signal) []model.Signal {
	seen := make(map[string]bool, len(signals))
	out := make([]model.Signal, 0, len(signals))
	for _, s := range signals {
		key := s.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Detail.Discriminator() < out[j].Detail.Discriminator()
	})
	return out
}

func settledWithin(txns []model.Transaction, start, end time.Time) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if t.Pending {
			continue
		}
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func latestTransactionDate(txns []model.Transaction) time.Time {
	var latest time.Time
	for _, t := range txns {
		if t.Date.After(latest) {
			latest = t.Date
		}
	}
	return latest
}
