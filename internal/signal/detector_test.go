package signal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calluna/finsight/internal/common"
	"github.com/calluna/finsight/internal/config"
	"github.com/calluna/finsight/internal/model"
)

func testDetector() *Detector {
	return NewDetector(config.Default().Detector)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDetect_CreditUtilization(t *testing.T) {
	tests := []struct {
		name      string
		accounts  []model.Account
		wantValue float64
		wantTop   string
		wantNone  bool
	}{
		{
			name: "single credit account",
			accounts: []model.Account{
				{ID: "cc-1", Type: model.AccountTypeCredit, Balance: dec("650"), CreditLimit: dec("1000")},
			},
			wantValue: 0.65,
			wantTop:   "cc-1",
		},
		{
			name: "riskiest account wins over average",
			accounts: []model.Account{
				{ID: "cc-1", Type: model.AccountTypeCredit, Balance: dec("100"), CreditLimit: dec("1000")},
				{ID: "cc-2", Type: model.AccountTypeCredit, Balance: dec("900"), CreditLimit: dec("1000")},
			},
			wantValue: 0.9,
			wantTop:   "cc-2",
		},
		{
			name: "zero limit account excluded",
			accounts: []model.Account{
				{ID: "cc-1", Type: model.AccountTypeCredit, Balance: dec("650"), CreditLimit: decimal.Zero},
			},
			wantNone: true,
		},
		{
			name: "no credit accounts",
			accounts: []model.Account{
				{ID: "chk-1", Type: model.AccountTypeChecking, Balance: dec("1200")},
			},
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := model.Snapshot{
				UserID:   "user-1",
				AsOf:     day(2026, time.June, 1),
				Accounts: tt.accounts,
			}
			signals, err := testDetector().Detect(snap, 90)
			require.NoError(t, err)

			utilization := filterType(signals, model.SignalCreditUtilization)
			if tt.wantNone {
				assert.Empty(t, utilization)
				return
			}
			require.Len(t, utilization, 1)
			assert.InDelta(t, tt.wantValue, utilization[0].Value, 1e-9)

			detail, ok := utilization[0].Detail.(model.UtilizationDetail)
			require.True(t, ok)
			assert.Equal(t, tt.wantTop, detail.TopAccountID)
		})
	}
}

func TestDetect_UtilizationScenario(t *testing.T) {
	// One credit account, limit $1000, balance $650, nothing else.
	snap := model.Snapshot{
		UserID: "user-1",
		AsOf:   day(2026, time.June, 1),
		Accounts: []model.Account{
			{ID: "cc-1", Type: model.AccountTypeCredit, Balance: dec("650"), CreditLimit: dec("1000")},
		},
	}
	signals, err := testDetector().Detect(snap, 90)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, model.SignalCreditUtilization, signals[0].Type)
	assert.InDelta(t, 0.65, signals[0].Value, 1e-9)
}

func TestDetect_SavingsGrowth(t *testing.T) {
	snap := model.Snapshot{
		UserID: "user-1",
		AsOf:   day(2026, time.June, 1),
		Accounts: []model.Account{
			{ID: "sav-1", Type: model.AccountTypeSavings, Balance: dec("5000")},
			{ID: "chk-1", Type: model.AccountTypeChecking, Balance: dec("800")},
		},
		Transactions: []model.Transaction{
			{ID: "t1", AccountID: "sav-1", Date: day(2026, time.March, 15), Amount: dec("300")},
			{ID: "t2", AccountID: "sav-1", Date: day(2026, time.April, 15), Amount: dec("300")},
			{ID: "t3", AccountID: "sav-1", Date: day(2026, time.May, 15), Amount: dec("-150")},
			// Checking flow does not count toward savings growth.
			{ID: "t4", AccountID: "chk-1", Date: day(2026, time.May, 16), Amount: dec("999")},
		},
	}

	signals, err := testDetector().Detect(snap, 90)
	require.NoError(t, err)

	growth := filterType(signals, model.SignalSavingsGrowth)
	require.Len(t, growth, 1)
	// Net +450 over 3 whole months.
	assert.InDelta(t, 150, growth[0].Value, 1e-9)

	detail, ok := growth[0].Detail.(model.SavingsGrowthDetail)
	require.True(t, ok)
	assert.Equal(t, 3, detail.Months)
	assert.True(t, detail.NetChange.Equal(dec("450")), "net change was %s", detail.NetChange)
}

func TestDetect_SavingsGrowthOmittedWithoutDepositAccounts(t *testing.T) {
	snap := model.Snapshot{
		UserID: "user-1",
		AsOf:   day(2026, time.June, 1),
		Accounts: []model.Account{
			{ID: "cc-1", Type: model.AccountTypeCredit, Balance: dec("10"), CreditLimit: dec("100")},
		},
	}
	signals, err := testDetector().Detect(snap, 90)
	require.NoError(t, err)
	assert.Empty(t, filterType(signals, model.SignalSavingsGrowth))
}

func TestDetect_SubscriptionScenario(t *testing.T) {
	// Three distinct merchants, each billed monthly at $20.
	snap := model.Snapshot{
		UserID: "user-1",
		AsOf:   day(2026, time.June, 1),
		Accounts: []model.Account{
			{ID: "chk-1", Type: model.AccountTypeChecking, Balance: dec("800")},
		},
	}
	merchants := []string{"Streamly", "Musicbox", "Cloudbin"}
	id := 0
	for _, m := range merchants {
		for _, d := range []time.Time{day(2026, time.March, 10), day(2026, time.April, 9), day(2026, time.May, 10)} {
			id++
			snap.Transactions = append(snap.Transactions, model.Transaction{
				ID:           string(rune('a' + id)),
				AccountID:    "chk-1",
				Date:         d,
				Amount:       dec("-20"),
				MerchantName: m,
			})
		}
	}

	signals, err := testDetector().Detect(snap, 90)
	require.NoError(t, err)

	subs := filterType(signals, model.SignalSubscription)
	require.Len(t, subs, 3)

	var total float64
	for _, s := range subs {
		detail, ok := s.Detail.(model.SubscriptionDetail)
		require.True(t, ok)
		assert.Equal(t, model.PeriodMonthly, detail.Period)
		assert.Equal(t, 3, detail.Occurrences)
		total += s.Value
	}
	assert.InDelta(t, 60, total, 1e-9)
}

func TestDetect_SubscriptionRejectsUnstableAmounts(t *testing.T) {
	snap := model.Snapshot{
		UserID: "user-1",
		AsOf:   day(2026, time.June, 1),
		Accounts: []model.Account{
			{ID: "chk-1", Type: model.AccountTypeChecking},
		},
		Transactions: []model.Transaction{
			{ID: "t1", AccountID: "chk-1", Date: day(2026, time.March, 10), Amount: dec("-20"), MerchantName: "Grocer"},
			{ID: "t2", AccountID: "chk-1", Date: day(2026, time.April, 10), Amount: dec("-95"), MerchantName: "Grocer"},
			{ID: "t3", AccountID: "chk-1", Date: day(2026, time.May, 10), Amount: dec("-41"), MerchantName: "Grocer"},
		},
	}
	signals, err := testDetector().Detect(snap, 90)
	require.NoError(t, err)
	assert.Empty(t, filterType(signals, model.SignalSubscription))
}

func TestDetect_IncomeStability(t *testing.T) {
	snap := model.Snapshot{
		UserID: "user-1",
		AsOf:   day(2026, time.June, 1),
		Accounts: []model.Account{
			{ID: "chk-1", Type: model.AccountTypeChecking},
		},
	}
	// Weekly paychecks from one employer.
	date := day(2026, time.April, 3)
	for i := 0; i < 6; i++ {
		snap.Transactions = append(snap.Transactions, model.Transaction{
			ID:           string(rune('a' + i)),
			AccountID:    "chk-1",
			Date:         date,
			Amount:       dec("950"),
			MerchantName: "ACME Payroll",
		})
		date = date.AddDate(0, 0, 7)
	}

	signals, err := testDetector().Detect(snap, 90)
	require.NoError(t, err)

	income := filterType(signals, model.SignalIncomeStability)
	require.Len(t, income, 1)
	assert.InDelta(t, 7, income[0].Value, 1e-9)

	detail, ok := income[0].Detail.(model.IncomeStabilityDetail)
	require.True(t, ok)
	assert.Equal(t, 6, detail.DepositCount)
	assert.Equal(t, []string{"acme payroll"}, detail.Sources)
}

func TestDetect_IncomeStabilityOmittedBelowMinimumDeposits(t *testing.T) {
	snap := model.Snapshot{
		UserID: "user-1",
		AsOf:   day(2026, time.June, 1),
		Accounts: []model.Account{
			{ID: "chk-1", Type: model.AccountTypeChecking},
		},
		Transactions: []model.Transaction{
			{ID: "t1", AccountID: "chk-1", Date: day(2026, time.May, 1), Amount: dec("950"), MerchantName: "ACME Payroll"},
			{ID: "t2", AccountID: "chk-1", Date: day(2026, time.May, 8), Amount: dec("950"), MerchantName: "ACME Payroll"},
		},
	}
	signals, err := testDetector().Detect(snap, 90)
	require.NoError(t, err)
	assert.Empty(t, filterType(signals, model.SignalIncomeStability))
}

func TestDetect_MalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		snap    model.Snapshot
		window  int
		wantErr error
	}{
		{
			name: "transaction references unknown account",
			snap: model.Snapshot{
				UserID: "user-1",
				AsOf:   day(2026, time.June, 1),
				Transactions: []model.Transaction{
					{ID: "t1", AccountID: "ghost", Amount: dec("10"), Date: day(2026, time.May, 1)},
				},
			},
			window:  90,
			wantErr: common.ErrMalformedInput,
		},
		{
			name: "liability references unknown account",
			snap: model.Snapshot{
				UserID:      "user-1",
				AsOf:        day(2026, time.June, 1),
				Liabilities: []model.Liability{{AccountID: "ghost"}},
			},
			window:  90,
			wantErr: common.ErrMalformedInput,
		},
		{
			name:    "non-positive window",
			snap:    model.Snapshot{UserID: "user-1", AsOf: day(2026, time.June, 1)},
			window:  0,
			wantErr: common.ErrInvalidWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals, err := testDetector().Detect(tt.snap, tt.window)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, signals, "a malformed run must produce no output")
		})
	}
}

func TestDetect_PendingAndOutOfWindowExcluded(t *testing.T) {
	snap := model.Snapshot{
		UserID: "user-1",
		AsOf:   day(2026, time.June, 1),
		Accounts: []model.Account{
			{ID: "sav-1", Type: model.AccountTypeSavings},
		},
		Transactions: []model.Transaction{
			{ID: "t1", AccountID: "sav-1", Date: day(2026, time.May, 1), Amount: dec("100")},
			{ID: "t2", AccountID: "sav-1", Date: day(2026, time.May, 2), Amount: dec("500"), Pending: true},
			{ID: "t3", AccountID: "sav-1", Date: day(2025, time.May, 1), Amount: dec("500")},
		},
	}

	signals, err := testDetector().Detect(snap, 90)
	require.NoError(t, err)

	growth := filterType(signals, model.SignalSavingsGrowth)
	require.Len(t, growth, 1)
	detail := growth[0].Detail.(model.SavingsGrowthDetail)
	assert.True(t, detail.NetChange.Equal(dec("100")), "net change was %s", detail.NetChange)
}

func TestDetect_Idempotent(t *testing.T) {
	snap := model.Snapshot{
		UserID: "user-1",
		AsOf:   day(2026, time.June, 1),
		Accounts: []model.Account{
			{ID: "cc-1", Type: model.AccountTypeCredit, Balance: dec("650"), CreditLimit: dec("1000")},
			{ID: "sav-1", Type: model.AccountTypeSavings},
			{ID: "chk", Type: model.AccountTypeChecking},
		},
		Transactions: []model.Transaction{
			{ID: "t1", AccountID: "sav-1", Date: day(2026, time.April, 1), Amount: dec("250")},
			{ID: "t2", AccountID: "chk", Date: day(2026, time.April, 2), Amount: dec("-15"), MerchantName: "Streamly"},
		},
	}

	d := testDetector()
	first, err := d.Detect(snap, 90)
	require.NoError(t, err)
	second, err := d.Detect(snap, 90)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func filterType(signals []model.Signal, t model.SignalType) []model.Signal {
	var out []model.Signal
	for _, s := range signals {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}
