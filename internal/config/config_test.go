package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3, cfg.Detector.DateToleranceDays)
	assert.Equal(t, 0.05, cfg.Detector.AmountTolerance)
	assert.Equal(t, 2, cfg.Detector.MinOccurrences)
	assert.Equal(t, 3, cfg.Detector.MinDeposits)

	assert.Equal(t, 0.50, cfg.Persona.UtilizationThreshold)
	assert.Equal(t, 45.0, cfg.Persona.IncomeGapDays)
	assert.Equal(t, 0.30, cfg.Persona.SavingsUtilizationCap)

	assert.Equal(t, 0.80, cfg.Guardrail.UtilizationCeiling)
	assert.Equal(t, 18, cfg.Guardrail.MinCreditAge)

	assert.Equal(t, "memory", cfg.Consent.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Consent.TTL)
}

func TestFromViper_DefaultsWhenUnset(t *testing.T) {
	cfg := FromViper(viper.New())
	want := Default()
	want.DatabasePath = ExpandPath(want.DatabasePath)
	assert.Equal(t, want, cfg)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("database.path", "/tmp/finsight-test.db")
	v.Set("detector.date_tolerance_days", 5)
	v.Set("detector.amount_tolerance", 0.10)
	v.Set("persona.utilization_threshold", 0.60)
	v.Set("guardrail.utilization_ceiling", 0.90)
	v.Set("consent.backend", "redis")
	v.Set("consent.redis_addr", "localhost:6379")
	v.Set("consent.ttl", "1h")

	cfg := FromViper(v)

	assert.Equal(t, "/tmp/finsight-test.db", cfg.DatabasePath)
	assert.Equal(t, 5, cfg.Detector.DateToleranceDays)
	assert.Equal(t, 0.10, cfg.Detector.AmountTolerance)
	assert.Equal(t, 0.60, cfg.Persona.UtilizationThreshold)
	assert.Equal(t, 0.90, cfg.Guardrail.UtilizationCeiling)
	assert.Equal(t, "redis", cfg.Consent.Backend)
	assert.Equal(t, "localhost:6379", cfg.Consent.RedisAddr)
	assert.Equal(t, time.Hour, cfg.Consent.TTL)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Persona.SavingsMonthly, cfg.Persona.SavingsMonthly)
	assert.Equal(t, Default().Guardrail.MinCreditAge, cfg.Guardrail.MinCreditAge)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("FINSIGHT_TEST_DIR", "/var/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"absolute untouched", "/var/lib/finsight.db", "/var/lib/finsight.db"},
		{"tilde prefix", "~/finsight.db", filepath.Join(home, "finsight.db")},
		{"bare tilde", "~", home},
		{"env var", "$FINSIGHT_TEST_DIR/finsight.db", "/var/data/finsight.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
