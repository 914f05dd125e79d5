package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Interaction is one recorded assistant turn.
type Interaction struct {
	ID             int64
	Timestamp      time.Time
	TurnID         string
	SessionID      string
	UserInput      string
	Intent         string
	Confidence     float64
	UsedFallback   bool
	FallbackStage  string
	ExpectedIntent string
	IsCorrect      sql.NullBool
	Emotion        string
	Response       string
	ErrorMessage   sql.NullString
}

// WriteInteraction records a completed turn
func (s *Store) WriteInteraction(ctx context.Context, rec *Interaction) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (ts, turn_id, session_id, user_input, intent, confidence,
			used_fallback, fallback_stage, expected_intent, is_correct, emotion, response, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ts, rec.TurnID, rec.SessionID, rec.UserInput, rec.Intent, rec.Confidence,
		rec.UsedFallback, rec.FallbackStage, rec.ExpectedIntent, rec.IsCorrect,
		rec.Emotion, rec.Response, rec.ErrorMessage)

	if err != nil {
		return fmt.Errorf("failed to write interaction: %w", err)
	}

	return nil
}

// GetInteractions retrieves recent interactions, newest first
func (s *Store) GetInteractions(ctx context.Context, limit int) ([]*Interaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, turn_id, session_id, user_input, intent, confidence,
			used_fallback, fallback_stage, expected_intent, is_correct, emotion, response, error_message
		FROM interactions
		ORDER BY ts DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

// GetInteractionsBySession retrieves all interactions for a session, oldest first
func (s *Store) GetInteractionsBySession(ctx context.Context, sessionID string) ([]*Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, turn_id, session_id, user_input, intent, confidence,
			used_fallback, fallback_stage, expected_intent, is_correct, emotion, response, error_message
		FROM interactions
		WHERE session_id = ?
		ORDER BY ts ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions by session: %w", err)
	}
	defer rows.Close()

	return scanInteractions(rows)
}

func scanInteractions(rows *sql.Rows) ([]*Interaction, error) {
	var recs []*Interaction
	for rows.Next() {
		rec := &Interaction{}
		err := rows.Scan(
			&rec.ID, &rec.Timestamp, &rec.TurnID, &rec.SessionID,
			&rec.UserInput, &rec.Intent, &rec.Confidence,
			&rec.UsedFallback, &rec.FallbackStage, &rec.ExpectedIntent,
			&rec.IsCorrect, &rec.Emotion, &rec.Response, &rec.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}

	return recs, nil
}
