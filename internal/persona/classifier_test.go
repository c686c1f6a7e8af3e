package persona

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calluna/finsight/internal/config"
	"github.com/calluna/finsight/internal/model"
)

func testClassifier() *Classifier {
	return NewClassifier(config.Default().Persona)
}

var testTime = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

func utilizationSignal(value float64) model.Signal {
	return model.Signal{
		UserID:     "user-1",
		Type:       model.SignalCreditUtilization,
		Value:      value,
		ComputedAt: testTime,
		Detail:     model.UtilizationDetail{TopAccountID: "cc-1", AccountIDs: []string{"cc-1"}},
	}
}

func savingsSignal(value float64) model.Signal {
	return model.Signal{
		UserID:     "user-1",
		Type:       model.SignalSavingsGrowth,
		Value:      value,
		ComputedAt: testTime,
		Detail:     model.SavingsGrowthDetail{AccountIDs: []string{"sav-1"}, Months: 3},
	}
}

func incomeSignal(value float64) model.Signal {
	return model.Signal{
		UserID:     "user-1",
		Type:       model.SignalIncomeStability,
		Value:      value,
		ComputedAt: testTime,
		Detail:     model.IncomeStabilityDetail{MedianGapDays: value},
	}
}

func subscriptionSignal(merchant string, monthly float64) model.Signal {
	return model.Signal{
		UserID:     "user-1",
		Type:       model.SignalSubscription,
		Value:      monthly,
		ComputedAt: testTime,
		Detail: model.SubscriptionDetail{
			Merchant:    merchant,
			Period:      model.PeriodMonthly,
			MonthlyCost: decimal.NewFromFloat(monthly),
		},
	}
}

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		name    string
		signals []model.Signal
		want    []model.PersonaType
	}{
		{
			name:    "utilization at the boundary matches",
			signals: []model.Signal{utilizationSignal(0.50)},
			want:    []model.PersonaType{model.PersonaHighUtilization},
		},
		{
			name:    "utilization just below the boundary does not match",
			signals: []model.Signal{utilizationSignal(0.499999)},
			want:    nil,
		},
		{
			name:    "variable income above gap threshold",
			signals: []model.Signal{incomeSignal(60)},
			want:    []model.PersonaType{model.PersonaVariableIncome},
		},
		{
			name:    "gap exactly at threshold does not match",
			signals: []model.Signal{incomeSignal(45)},
			want:    nil,
		},
		{
			name: "subscription heavy needs count and sum",
			signals: []model.Signal{
				subscriptionSignal("streamly", 20),
				subscriptionSignal("musicbox", 20),
				subscriptionSignal("cloudbin", 20),
			},
			want: []model.PersonaType{model.PersonaSubscriptionHeavy},
		},
		{
			name: "fractional costs summing exactly to the boundary match",
			signals: []model.Signal{
				subscriptionSignal("streamly", 16.67),
				subscriptionSignal("musicbox", 16.67),
				subscriptionSignal("cloudbin", 16.66),
			},
			want: []model.PersonaType{model.PersonaSubscriptionHeavy},
		},
		{
			name: "three cheap subscriptions miss the sum threshold",
			signals: []model.Signal{
				subscriptionSignal("streamly", 5),
				subscriptionSignal("musicbox", 5),
				subscriptionSignal("cloudbin", 5),
			},
			want: nil,
		},
		{
			name: "two expensive subscriptions miss the count threshold",
			signals: []model.Signal{
				subscriptionSignal("streamly", 40),
				subscriptionSignal("musicbox", 40),
			},
			want: nil,
		},
		{
			name:    "savings builder without credit exposure",
			signals: []model.Signal{savingsSignal(250)},
			want:    []model.PersonaType{model.PersonaSavingsBuilder},
		},
		{
			name:    "savings builder with low utilization",
			signals: []model.Signal{savingsSignal(250), utilizationSignal(0.10)},
			want:    []model.PersonaType{model.PersonaSavingsBuilder},
		},
		{
			name:    "high utilization disqualifies savings builder",
			signals: []model.Signal{savingsSignal(250), utilizationSignal(0.65)},
			want:    []model.PersonaType{model.PersonaHighUtilization},
		},
		{
			name:    "utilization at savings cap disqualifies",
			signals: []model.Signal{savingsSignal(250), utilizationSignal(0.30)},
			want:    nil,
		},
		{
			name:    "empty signal set",
			signals: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assignments := testClassifier().Classify(tt.signals, 90)
			got := make([]model.PersonaType, 0, len(assignments))
			for _, a := range assignments {
				got = append(got, a.Type)
			}
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassify_SeverityOrderingAndDenseRanks(t *testing.T) {
	signals := []model.Signal{
		savingsSignal(250),
		utilizationSignal(0.10),
		incomeSignal(60),
		subscriptionSignal("streamly", 20),
		subscriptionSignal("musicbox", 20),
		subscriptionSignal("cloudbin", 20),
	}

	assignments := testClassifier().Classify(signals, 90)
	require.Len(t, assignments, 3)

	assert.Equal(t, model.PersonaVariableIncome, assignments[0].Type)
	assert.Equal(t, model.PersonaSubscriptionHeavy, assignments[1].Type)
	assert.Equal(t, model.PersonaSavingsBuilder, assignments[2].Type)

	for i, a := range assignments {
		assert.Equal(t, i+1, a.PriorityRank, "ranks must be a dense 1..N sequence")
		assert.Equal(t, "user-1", a.UserID)
		assert.Equal(t, 90, a.WindowDays)
		assert.NotEmpty(t, a.Criteria)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	signals := []model.Signal{
		utilizationSignal(0.72),
		savingsSignal(300),
		incomeSignal(50),
		subscriptionSignal("streamly", 30),
		subscriptionSignal("musicbox", 30),
		subscriptionSignal("cloudbin", 30),
	}

	c := testClassifier()
	first := c.Classify(signals, 90)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(signals, 90))
	}
}

func TestClassify_UsesMostRecentSignal(t *testing.T) {
	stale := utilizationSignal(0.90)
	stale.ComputedAt = testTime.AddDate(0, -1, 0)
	fresh := utilizationSignal(0.10)

	assignments := testClassifier().Classify([]model.Signal{stale, fresh}, 90)
	assert.Empty(t, assignments, "the stale high reading must not drive classification")
}

func TestClassify_CriteriaRecordMeasuredValues(t *testing.T) {
	assignments := testClassifier().Classify([]model.Signal{utilizationSignal(0.65)}, 90)
	require.Len(t, assignments, 1)
	require.Len(t, assignments[0].Criteria, 1)

	crit := assignments[0].Criteria[0]
	assert.Equal(t, "credit_utilization_at_least", crit.Name)
	assert.InDelta(t, 0.65, crit.Measured, 1e-9)
	assert.InDelta(t, 0.50, crit.Threshold, 1e-9)
}
