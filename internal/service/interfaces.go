// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/calluna/finsight/internal/model"
)

// Storage defines the contract for persisting pipeline outputs. The
// pipeline hands records over verbatim; callers own the storage format.
type Storage interface {
	// SaveRun replaces any prior results for (user, window) with the
	// given output set, atomically. Reruns supersede, never merge.
	SaveRun(ctx context.Context, run model.RunRecord, outputs model.UserOutputs) error

	// GetUserOutputs loads the most recent persisted output set for a user.
	GetUserOutputs(ctx context.Context, userID string, windowDays int) (*model.UserOutputs, error)

	// ListUserOutputs loads the persisted output sets for every user with
	// a run at the given window, for offline evaluation.
	ListUserOutputs(ctx context.Context, windowDays int) ([]model.UserOutputs, error)

	// SaveFeedback records a user's reaction to a delivered recommendation.
	SaveFeedback(ctx context.Context, fb model.Feedback) error

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// ConsentChecker is the external consent gate. Every pipeline entry
// point requires a granted consent before it may touch a user's data.
type ConsentChecker interface {
	// HasConsent reports whether the user has granted analysis consent.
	// Returns common.ErrNoConsentRecord when no decision is on file.
	HasConsent(ctx context.Context, userID string) (bool, error)
}

// ConsentStore extends ConsentChecker with administration operations.
type ConsentStore interface {
	ConsentChecker
	SetConsent(ctx context.Context, userID string, granted bool) error
	RevokeConsent(ctx context.Context, userID string) error
}

// RetryOptions configures retry behavior for external calls.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
