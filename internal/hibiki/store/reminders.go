package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("store: not found")

// Reminder is a scheduled one-shot reminder.
type Reminder struct {
	ID        int64
	SessionID string
	Task      string
	RemindAt  time.Time
	JobID     string
	CreatedAt time.Time
	Fired     bool
}

// Alarm is a scheduled alarm ring.
type Alarm struct {
	ID        int64
	SessionID string
	RingAt    time.Time
	Label     string
	JobID     string
	CreatedAt time.Time
	Active    bool
}

// CreateReminder inserts a reminder and returns its id
func (s *Store) CreateReminder(ctx context.Context, sessionID, task string, remindAt time.Time, jobID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (session_id, task, remind_at, job_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, task, remindAt, jobID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to create reminder: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get reminder id: %w", err)
	}

	return id, nil
}

// ListReminders returns pending reminders for a session, soonest first
func (s *Store) ListReminders(ctx context.Context, sessionID string) ([]*Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, task, remind_at, job_id, created_at, fired
		FROM reminders
		WHERE session_id = ? AND fired = 0
		ORDER BY remind_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		r := &Reminder{}
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Task, &r.RemindAt, &r.JobID, &r.CreatedAt, &r.Fired); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

// GetReminder fetches one reminder by id
func (s *Store) GetReminder(ctx context.Context, id int64) (*Reminder, error) {
	r := &Reminder{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, task, remind_at, job_id, created_at, fired
		FROM reminders
		WHERE id = ?
	`, id).Scan(&r.ID, &r.SessionID, &r.Task, &r.RemindAt, &r.JobID, &r.CreatedAt, &r.Fired)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}

	return r, nil
}

// DeleteReminder removes a pending reminder by id within a session
func (s *Store) DeleteReminder(ctx context.Context, sessionID string, id int64) (*Reminder, error) {
	r := &Reminder{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, task, remind_at, job_id, created_at, fired
		FROM reminders
		WHERE id = ? AND session_id = ? AND fired = 0
	`, id, sessionID).Scan(&r.ID, &r.SessionID, &r.Task, &r.RemindAt, &r.JobID, &r.CreatedAt, &r.Fired)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reminder: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", r.ID); err != nil {
		return nil, fmt.Errorf("failed to delete reminder: %w", err)
	}

	return r, nil
}

// DeleteReminderByTask removes the first pending reminder whose task contains
// the given phrase, case-insensitively.
func (s *Store) DeleteReminderByTask(ctx context.Context, sessionID, phrase string) (*Reminder, error) {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return nil, ErrNotFound
	}

	reminders, err := s.ListReminders(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, r := range reminders {
		if strings.Contains(strings.ToLower(r.Task), phrase) {
			if _, err := s.db.ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", r.ID); err != nil {
				return nil, fmt.Errorf("failed to delete reminder: %w", err)
			}
			return r, nil
		}
	}

	return nil, ErrNotFound
}

// MarkReminderFired flags a reminder as delivered
func (s *Store) MarkReminderFired(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE reminders SET fired = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to mark reminder fired: %w", err)
	}
	return nil
}

// CreateAlarm inserts an alarm and returns its id
func (s *Store) CreateAlarm(ctx context.Context, sessionID string, ringAt time.Time, label, jobID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alarms (session_id, ring_at, label, job_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, ringAt, label, jobID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to create alarm: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get alarm id: %w", err)
	}

	return id, nil
}

// ListAlarms returns active alarms for a session, soonest first
func (s *Store) ListAlarms(ctx context.Context, sessionID string) ([]*Alarm, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, ring_at, label, job_id, created_at, active
		FROM alarms
		WHERE session_id = ? AND active = 1
		ORDER BY ring_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer rows.Close()

	var alarms []*Alarm
	for rows.Next() {
		a := &Alarm{}
		if err := rows.Scan(&a.ID, &a.SessionID, &a.RingAt, &a.Label, &a.JobID, &a.CreatedAt, &a.Active); err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		alarms = append(alarms, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alarms: %w", err)
	}

	return alarms, nil
}

// NextAlarm returns the soonest active alarm strictly after now
func (s *Store) NextAlarm(ctx context.Context, sessionID string, now time.Time) (*Alarm, error) {
	a := &Alarm{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, ring_at, label, job_id, created_at, active
		FROM alarms
		WHERE session_id = ? AND active = 1 AND ring_at > ?
		ORDER BY ring_at ASC
		LIMIT 1
	`, sessionID, now).Scan(&a.ID, &a.SessionID, &a.RingAt, &a.Label, &a.JobID, &a.CreatedAt, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next alarm: %w", err)
	}

	return a, nil
}

// DeactivateAlarm stops an alarm by id within a session
func (s *Store) DeactivateAlarm(ctx context.Context, sessionID string, id int64) (*Alarm, error) {
	a := &Alarm{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, ring_at, label, job_id, created_at, active
		FROM alarms
		WHERE id = ? AND session_id = ? AND active = 1
	`, id, sessionID).Scan(&a.ID, &a.SessionID, &a.RingAt, &a.Label, &a.JobID, &a.CreatedAt, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find alarm: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE alarms SET active = 0 WHERE id = ?", a.ID); err != nil {
		return nil, fmt.Errorf("failed to deactivate alarm: %w", err)
	}
	a.Active = false

	return a, nil
}
