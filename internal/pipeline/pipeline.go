// Package pipeline orchestrates the four-stage decision pipeline:
// signal detection, persona classification, recommendation generation,
// and guardrail filtering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calluna/finsight/internal/common"
	"github.com/calluna/finsight/internal/config"
	"github.com/calluna/finsight/internal/guardrail"
	"github.com/calluna/finsight/internal/model"
	"github.com/calluna/finsight/internal/persona"
	"github.com/calluna/finsight/internal/recommend"
	"github.com/calluna/finsight/internal/service"
	"github.com/calluna/finsight/internal/signal"
)

// Engine wires the pipeline stages together behind the consent gate.
// The stages themselves are pure; the engine owns the only side effects
// (consent lookup and result persistence).
type Engine struct {
	detector   *signal.Detector
	classifier *persona.Classifier
	generator  *recommend.Generator
	filter     *guardrail.Filter
	consent    service.ConsentChecker
	storage    service.Storage
}

// New creates an engine. Storage may be nil for callers that only want
// in-memory results.
func New(cfg config.Config, consent service.ConsentChecker, storage service.Storage) *Engine {
	return &Engine{
		detector:   signal.NewDetector(cfg.Detector),
		classifier: persona.NewClassifier(cfg.Persona),
		generator:  recommend.NewGenerator(),
		filter:     guardrail.NewFilter(cfg.Guardrail),
		consent:    consent,
		storage:    storage,
	}
}

// DetectSignals runs signal detection for one user's snapshot.
func (e *Engine) DetectSignals(ctx context.Context, snapshot model.Snapshot, windowDays int) ([]model.Signal, error) {
	if err := e.requireConsent(ctx, snapshot.UserID); err != nil {
		return nil, err
	}
	return e.detector.Detect(snapshot, windowDays)
}

// ClassifyPersonas evaluates persona rules over a detected signal set.
// The user is identified by the signals themselves; an empty set
// classifies nobody.
func (e *Engine) ClassifyPersonas(ctx context.Context, signals []model.Signal, windowDays int) ([]model.PersonaAssignment, error) {
	if len(signals) == 0 {
		return nil, nil
	}
	if err := e.requireConsent(ctx, signals[0].UserID); err != nil {
		return nil, err
	}
	return e.classifier.Classify(signals, windowDays), nil
}

// Recommend generates candidates for the user's assignments and runs
// them through the guardrail filter. Every candidate is returned with
// its decision; only eligible ones should reach the end user.
func (e *Engine) Recommend(ctx context.Context, userID string, assignments []model.PersonaAssignment, signals []model.Signal, profile model.UserProfile) ([]model.CandidateDecision, error) {
	if err := e.requireConsent(ctx, userID); err != nil {
		return nil, err
	}
	candidates := e.generator.Generate(userID, assignments, signals)
	return e.filter.Filter(candidates, profile), nil
}

// Run executes the full per-user pipeline and, when storage is
// configured, persists the results, superseding any prior run for the
// same user and window. A failure aborts only this user's run and
// leaves previously persisted results untouched.
func (e *Engine) Run(ctx context.Context, snapshot model.Snapshot, profile model.UserProfile, windowDays int) (*model.UserOutputs, error) {
	started := time.Now().UTC()

	if err := e.requireConsent(ctx, snapshot.UserID); err != nil {
		return nil, err
	}

	signals, err := e.detector.Detect(snapshot, windowDays)
	if err != nil {
		return nil, fmt.Errorf("signal detection failed for user %s: %w", snapshot.UserID, err)
	}
	assignments := e.classifier.Classify(signals, windowDays)
	candidates := e.generator.Generate(snapshot.UserID, assignments, signals)
	results := e.filter.Filter(candidates, profile)

	outputs := &model.UserOutputs{
		UserID:         snapshot.UserID,
		WindowDays:     windowDays,
		ConsentGranted: true,
		Signals:        signals,
		Assignments:    assignments,
		Results:        results,
	}

	if e.storage != nil {
		run := model.RunRecord{
			ID:          uuid.NewString(),
			UserID:      snapshot.UserID,
			WindowDays:  windowDays,
			StartedAt:   started,
			CompletedAt: time.Now().UTC(),
		}
		if err := e.storage.SaveRun(ctx, run, *outputs); err != nil {
			return nil, fmt.Errorf("failed to persist run for user %s: %w", snapshot.UserID, err)
		}
	}

	slog.Info("Pipeline run complete",
		"user_id", snapshot.UserID,
		"window_days", windowDays,
		"signals", len(signals),
		"personas", len(assignments),
		"recommendations", len(results))

	return outputs, nil
}

func (e *Engine) requireConsent(ctx context.Context, userID string) error {
	granted, err := e.consent.HasConsent(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNoConsentRecord) {
			return fmt.Errorf("%w: user %s has no consent on file", common.ErrConsentRequired, userID)
		}
		return fmt.Errorf("consent check failed for user %s: %w", userID, err)
	}
	if !granted {
		return fmt.Errorf("%w: user %s declined analysis", common.ErrConsentRequired, userID)
	}
	return nil
}
