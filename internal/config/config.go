// Package config provides configuration loading for the pipeline. Every
// behavioral threshold the pipeline uses lives here rather than in code,
// since the tolerances are the most likely source of drift between
// deployments.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Detector holds the tolerances for signal detection, most importantly
// the periodicity-clustering heuristic shared by subscription and income
// detection.
type Detector struct {
	DateToleranceDays int     // Allowed drift around a nominal period, in days
	AmountTolerance   float64 // Allowed relative spread between recurring amounts
	MinOccurrences    int     // Minimum charges before a merchant counts as recurring
	MinDeposits       int     // Minimum recurring deposits before income stability is reported
	MinDepositAmount  float64 // Deposits below this are ignored as paycheck candidates
}

// Persona holds the classification thresholds.
type Persona struct {
	UtilizationThreshold  float64 // credit_utilization at or above this matches high_utilization
	IncomeGapDays         float64 // median deposit gap above this matches variable_income
	SubscriptionCount     int     // minimum subscription signals for subscription_heavy
	SubscriptionMonthly   float64 // minimum summed monthly cost for subscription_heavy
	SavingsMonthly        float64 // minimum monthly savings growth for savings_builder
	SavingsUtilizationCap float64 // utilization at or above this disqualifies savings_builder
}

// Guardrail holds the eligibility limits.
type Guardrail struct {
	UtilizationCeiling float64 // no credit products at or above this utilization
	MinCreditAge       int     // minimum age for credit product recommendations
}

// Consent selects and tunes the consent store backend.
type Consent struct {
	Backend   string // "memory" or "redis"
	RedisAddr string
	TTL       time.Duration
}

// Config is the full application configuration.
type Config struct {
	DatabasePath string
	Detector     Detector
	Persona      Persona
	Guardrail    Guardrail
	Consent      Consent
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		DatabasePath: "~/.local/share/finsight/finsight.db",
		Detector: Detector{
			DateToleranceDays: 3,
			AmountTolerance:   0.05,
			MinOccurrences:    2,
			MinDeposits:       3,
			MinDepositAmount:  25,
		},
		Persona: Persona{
			UtilizationThreshold:  0.50,
			IncomeGapDays:         45,
			SubscriptionCount:     3,
			SubscriptionMonthly:   50,
			SavingsMonthly:        200,
			SavingsUtilizationCap: 0.30,
		},
		Guardrail: Guardrail{
			UtilizationCeiling: 0.80,
			MinCreditAge:       18,
		},
		Consent: Consent{
			Backend: "memory",
			TTL:     24 * time.Hour,
		},
	}
}

// FromViper hydrates a Config from viper, falling back to defaults for
// any key not present.
func FromViper(v *viper.Viper) Config {
	cfg := Default()

	v.SetDefault("database.path", cfg.DatabasePath)
	v.SetDefault("detector.date_tolerance_days", cfg.Detector.DateToleranceDays)
	v.SetDefault("detector.amount_tolerance", cfg.Detector.AmountTolerance)
	v.SetDefault("detector.min_occurrences", cfg.Detector.MinOccurrences)
	v.SetDefault("detector.min_deposits", cfg.Detector.MinDeposits)
	v.SetDefault("detector.min_deposit_amount", cfg.Detector.MinDepositAmount)
	v.SetDefault("persona.utilization_threshold", cfg.Persona.UtilizationThreshold)
	v.SetDefault("persona.income_gap_days", cfg.Persona.IncomeGapDays)
	v.SetDefault("persona.subscription_count", cfg.Persona.SubscriptionCount)
	v.SetDefault("persona.subscription_monthly", cfg.Persona.SubscriptionMonthly)
	v.SetDefault("persona.savings_monthly", cfg.Persona.SavingsMonthly)
	v.SetDefault("persona.savings_utilization_cap", cfg.Persona.SavingsUtilizationCap)
	v.SetDefault("guardrail.utilization_ceiling", cfg.Guardrail.UtilizationCeiling)
	v.SetDefault("guardrail.min_credit_age", cfg.Guardrail.MinCreditAge)
	v.SetDefault("consent.backend", cfg.Consent.Backend)
	v.SetDefault("consent.redis_addr", cfg.Consent.RedisAddr)
	v.SetDefault("consent.ttl", cfg.Consent.TTL)

	cfg.DatabasePath = ExpandPath(v.GetString("database.path"))
	cfg.Detector.DateToleranceDays = v.GetInt("detector.date_tolerance_days")
	cfg.Detector.AmountTolerance = v.GetFloat64("detector.amount_tolerance")
	cfg.Detector.MinOccurrences = v.GetInt("detector.min_occurrences")
	cfg.Detector.MinDeposits = v.GetInt("detector.min_deposits")
	cfg.Detector.MinDepositAmount = v.GetFloat64("detector.min_deposit_amount")
	cfg.Persona.UtilizationThreshold = v.GetFloat64("persona.utilization_threshold")
	cfg.Persona.IncomeGapDays = v.GetFloat64("persona.income_gap_days")
	cfg.Persona.SubscriptionCount = v.GetInt("persona.subscription_count")
	cfg.Persona.SubscriptionMonthly = v.GetFloat64("persona.subscription_monthly")
	cfg.Persona.SavingsMonthly = v.GetFloat64("persona.savings_monthly")
	cfg.Persona.SavingsUtilizationCap = v.GetFloat64("persona.savings_utilization_cap")
	cfg.Guardrail.UtilizationCeiling = v.GetFloat64("guardrail.utilization_ceiling")
	cfg.Guardrail.MinCreditAge = v.GetInt("guardrail.min_credit_age")
	cfg.Consent.Backend = v.GetString("consent.backend")
	cfg.Consent.RedisAddr = v.GetString("consent.redis_addr")
	cfg.Consent.TTL = v.GetDuration("consent.ttl")

	return cfg
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
