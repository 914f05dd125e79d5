// Package flow owns the multi-turn interactions: the reminder flow that
// gathers a task and a time across turns, and the trivia
// question/answer exchange.  Each flow advances the session's state
// machine one turn at a time and clears it on completion.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bdobrica/Hibiki/common/trace"
	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
	"github.com/bdobrica/Hibiki/internal/hibiki/session"
)

// Field names stored in session flow state.
const (
	fieldTask = "task"
	fieldTime = "datetime"
)

// Prompts for the reminder flow's missing fields.
const (
	promptTask = "What should I remind you about?"
	promptTime = "What time should I remind you?"
)

// ReminderScheduler persists a reminder and registers its future
// trigger.  It returns the stored reminder's id for the confirmation
// message.
type ReminderScheduler interface {
	Schedule(ctx context.Context, sessionID, task string, at time.Time) (int64, error)
}

// Reminder is the two-field reminder flow.  A turn directed at the flow
// extracts whatever fields it can, merges them into the session (first
// extraction wins per field), and either completes the reminder or
// prompts for what is still missing.
type Reminder struct {
	sessions  *session.Store
	scheduler ReminderScheduler
	now       func() time.Time
}

// NewReminder creates the reminder flow controller.  now may be nil for
// the wall clock.
func NewReminder(sessions *session.Store, scheduler ReminderScheduler, now func() time.Time) *Reminder {
	if now == nil {
		now = time.Now
	}
	return &Reminder{sessions: sessions, scheduler: scheduler, now: now}
}

// Handle advances the reminder flow by one turn.
func (r *Reminder) Handle(ctx context.Context, sessionID, rawText string, ents entity.Bag) (string, error) {
	r.sessions.SetFlow(sessionID, session.FlowReminder)

	now := r.now()
	if task := extractTask(rawText, ents); task != "" {
		r.sessions.SetFieldIfAbsent(sessionID, fieldTask, task)
	}
	if at, ok := extractTime(rawText, ents, now); ok {
		r.sessions.SetFieldIfAbsent(sessionID, fieldTime, at.Format(time.RFC3339))
	}

	state := r.sessions.GetOrCreate(sessionID)
	task := state.Fields[fieldTask]
	stamp := state.Fields[fieldTime]

	switch {
	case task == "":
		// Task is prompted for first even when both are missing.
		return promptTask, nil
	case stamp == "":
		return promptTime, nil
	}

	at, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		// A corrupt stored value should not wedge the flow.
		r.sessions.ClearFlow(sessionID)
		return "", fmt.Errorf("flow: stored reminder time %q: %w", stamp, err)
	}

	id, err := r.scheduler.Schedule(ctx, sessionID, task, at)
	if err != nil {
		return "", fmt.Errorf("flow: schedule reminder: %w", err)
	}
	r.sessions.ClearFlow(sessionID)

	slog.Info("reminder flow completed",
		"turn_id", trace.FromContext(ctx),
		"session_id", sessionID,
		"reminder_id", id,
		"at", at.Format(time.RFC3339),
	)
	return fmt.Sprintf("Reminder #%d set: I'll remind you to %s on %s.",
		id, task, at.Format("Monday at 3:04 PM")), nil
}

// Pending reports whether the session is mid-reminder-flow, used by the
// dispatcher to route continuation turns back here.
func (r *Reminder) Pending(sessionID string) bool {
	return r.sessions.GetOrCreate(sessionID).PendingFlow == session.FlowReminder
}
