package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/calluna/finsight/internal/common"
	"github.com/calluna/finsight/internal/model"
)

// SaveRun atomically replaces any prior results for (user, window) with
// the given output set. Reruns supersede previous results, never merge
// with them.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run model.RunRecord, outputs model.UserOutputs) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run.UserID == "" || run.UserID != outputs.UserID {
		return fmt.Errorf("run user %q does not match outputs user %q", run.UserID, outputs.UserID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM runs WHERE user_id = ? AND window_days = ?`,
		`DELETE FROM signals WHERE user_id = ? AND window_days = ?`,
		`DELETE FROM persona_assignments WHERE user_id = ? AND window_days = ?`,
		`DELETE FROM recommendations WHERE user_id = ? AND window_days = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, run.UserID, run.WindowDays); err != nil {
			return fmt.Errorf("failed to supersede prior results: %w", err)
		}
	}

	consent := 0
	if outputs.ConsentGranted {
		consent = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, user_id, window_days, consent_granted, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.UserID, run.WindowDays, consent, run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, sig := range outputs.Signals {
		detail, err := json.Marshal(sig.Detail)
		if err != nil {
			return fmt.Errorf("failed to encode signal detail: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO signals (user_id, window_days, signal_type, discriminator, value, detail, computed_at, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sig.UserID, run.WindowDays, sig.Type, sig.Detail.Discriminator(), sig.Value, string(detail), sig.ComputedAt, i)
		if err != nil {
			return fmt.Errorf("failed to save signal: %w", err)
		}
	}

	for _, a := range outputs.Assignments {
		criteria, err := json.Marshal(a.Criteria)
		if err != nil {
			return fmt.Errorf("failed to encode criteria: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO persona_assignments (user_id, window_days, persona_type, priority_rank, criteria, assigned_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, a.UserID, a.WindowDays, a.Type, a.PriorityRank, string(criteria), a.AssignedAt)
		if err != nil {
			return fmt.Errorf("failed to save persona assignment: %w", err)
		}
	}

	for i, r := range outputs.Results {
		params, err := json.Marshal(r.Candidate.Params)
		if err != nil {
			return fmt.Errorf("failed to encode recommendation params: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recommendations (candidate_id, user_id, window_days, kind, persona, rationale, params, outcome, rule, explanation, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.Candidate.ID, r.Candidate.UserID, run.WindowDays, r.Candidate.Kind, r.Candidate.Persona,
			r.Candidate.Rationale, string(params), r.Decision.Outcome, r.Decision.Rule, r.Decision.Explanation, i)
		if err != nil {
			return fmt.Errorf("failed to save recommendation: %w", err)
		}
	}

	return tx.Commit()
}

// GetUserOutputs loads the persisted output set for a user and window.
// Returns common.ErrNotFound when no run exists.
func (s *SQLiteStorage) GetUserOutputs(ctx context.Context, userID string, windowDays int) (*model.UserOutputs, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var consent int
	err := s.db.QueryRowContext(ctx, `
		SELECT consent_granted FROM runs WHERE user_id = ? AND window_days = ?
	`, userID, windowDays).Scan(&consent)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no run for user %s at %d days", common.ErrNotFound, userID, windowDays)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	out := &model.UserOutputs{
		UserID:         userID,
		WindowDays:     windowDays,
		ConsentGranted: consent == 1,
	}
	if out.Signals, err = s.loadSignals(ctx, userID, windowDays); err != nil {
		return nil, err
	}
	if out.Assignments, err = s.loadAssignments(ctx, userID, windowDays); err != nil {
		return nil, err
	}
	if out.Results, err = s.loadResults(ctx, userID, windowDays); err != nil {
		return nil, err
	}
	if out.Feedback, err = s.loadFeedback(ctx, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUserOutputs loads the output set of every user with a run at the
// given window, for offline evaluation.
func (s *SQLiteStorage) ListUserOutputs(ctx context.Context, windowDays int) ([]model.UserOutputs, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM runs WHERE window_days = ? ORDER BY user_id
	`, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	outputs := make([]model.UserOutputs, 0, len(userIDs))
	for _, id := range userIDs {
		out, err := s.GetUserOutputs(ctx, id, windowDays)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, *out)
	}
	return outputs, nil
}

// SaveFeedback records a user's reaction to a delivered recommendation,
// replacing any prior reaction to the same candidate.
func (s *SQLiteStorage) SaveFeedback(ctx context.Context, fb model.Feedback) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if fb.UserID == "" || fb.CandidateID == "" {
		return fmt.Errorf("feedback requires user and candidate ids")
	}
	if fb.RecordedAt.IsZero() {
		fb.RecordedAt = time.Now().UTC()
	}

	helpful := 0
	if fb.Helpful {
		helpful = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (user_id, candidate_id, kind, helpful, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, candidate_id) DO UPDATE SET
			kind = excluded.kind,
			helpful = excluded.helpful,
			recorded_at = excluded.recorded_at
	`, fb.UserID, fb.CandidateID, fb.Kind, helpful, fb.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) loadSignals(ctx context.Context, userID string, windowDays int) ([]model.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signal_type, value, detail, computed_at
		FROM signals WHERE user_id = ? AND window_days = ?
		ORDER BY position
	`, userID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load signals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var signals []model.Signal
	for rows.Next() {
		var (
			sig    model.Signal
			detail string
		)
		if err := rows.Scan(&sig.Type, &sig.Value, &detail, &sig.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		sig.UserID = userID
		if sig.Detail, err = decodeDetail(sig.Type, []byte(detail)); err != nil {
			return nil, err
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func (s *SQLiteStorage) loadAssignments(ctx context.Context, userID string, windowDays int) ([]model.PersonaAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT persona_type, priority_rank, criteria, assigned_at
		FROM persona_assignments WHERE user_id = ? AND window_days = ?
		ORDER BY priority_rank
	`, userID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load persona assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []model.PersonaAssignment
	for rows.Next() {
		a := model.PersonaAssignment{UserID: userID, WindowDays: windowDays}
		var criteria string
		if err := rows.Scan(&a.Type, &a.PriorityRank, &criteria, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan persona assignment: %w", err)
		}
		if err := json.Unmarshal([]byte(criteria), &a.Criteria); err != nil {
			return nil, fmt.Errorf("failed to decode criteria: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *SQLiteStorage) loadResults(ctx context.Context, userID string, windowDays int) ([]model.CandidateDecision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT candidate_id, kind, persona, rationale, params, outcome, rule, explanation
		FROM recommendations WHERE user_id = ? AND window_days = ?
		ORDER BY position
	`, userID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []model.CandidateDecision
	for rows.Next() {
		var (
			cd     model.CandidateDecision
			params string
		)
		cd.Candidate.UserID = userID
		if err := rows.Scan(&cd.Candidate.ID, &cd.Candidate.Kind, &cd.Candidate.Persona,
			&cd.Candidate.Rationale, &params, &cd.Decision.Outcome, &cd.Decision.Rule, &cd.Decision.Explanation); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		cd.Decision.CandidateID = cd.Candidate.ID
		if err := json.Unmarshal([]byte(params), &cd.Candidate.Params); err != nil {
			return nil, fmt.Errorf("failed to decode recommendation params: %w", err)
		}
		results = append(results, cd)
	}
	return results, rows.Err()
}

func (s *SQLiteStorage) loadFeedback(ctx context.Context, userID string) ([]model.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT candidate_id, kind, helpful, recorded_at
		FROM feedback WHERE user_id = ?
		ORDER BY candidate_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var feedback []model.Feedback
	for rows.Next() {
		fb := model.Feedback{UserID: userID}
		var helpful int
		if err := rows.Scan(&fb.CandidateID, &fb.Kind, &helpful, &fb.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		fb.Helpful = helpful == 1
		feedback = append(feedback, fb)
	}
	return feedback, rows.Err()
}

// decodeDetail reconstructs the typed evidence payload from its stored
// JSON, dispatching on the signal type column.
func decodeDetail(t model.SignalType, data []byte) (model.SignalDetail, error) {
	switch t {
	case model.SignalCreditUtilization:
		var d model.UtilizationDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to decode utilization detail: %w", err)
		}
		return d, nil
	case model.SignalSavingsGrowth:
		var d model.SavingsGrowthDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to decode savings detail: %w", err)
		}
		return d, nil
	case model.SignalSubscription:
		var d model.SubscriptionDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to decode subscription detail: %w", err)
		}
		return d, nil
	case model.SignalIncomeStability:
		var d model.IncomeStabilityDetail
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to decode income detail: %w", err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown signal type %q", t)
}
