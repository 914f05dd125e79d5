// Package reminders ties persisted reminders and alarms to the trigger
// scheduler: rows are created alongside one-shot jobs, and a fired job
// marks its row and notifies the session.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bdobrica/Hibiki/internal/hibiki/scheduler"
	"github.com/bdobrica/Hibiki/internal/hibiki/store"
)

const (
	jobReminder = "reminder"
	jobAlarm    = "alarm"
)

// Notifier delivers an unsolicited message to a session when a trigger
// fires.
type Notifier func(sessionID, text string)

// Engine persists reminders and alarms and schedules their triggers.
type Engine struct {
	store  *store.Store
	sched  *scheduler.Service
	notify Notifier
}

// New creates an Engine and installs it as the scheduler's fire handler.
func New(st *store.Store, sched *scheduler.Service, notify Notifier) *Engine {
	e := &Engine{store: st, sched: sched, notify: notify}
	sched.OnFire = e.handleFired
	return e
}

// Schedule persists a reminder and registers its one-shot trigger,
// returning the reminder id.
func (e *Engine) Schedule(ctx context.Context, sessionID, task string, at time.Time) (int64, error) {
	jobID := uuid.New().String()

	id, err := e.store.CreateReminder(ctx, sessionID, task, at, jobID)
	if err != nil {
		return 0, err
	}

	e.sched.Add(scheduler.Job{
		ID:        jobID,
		Name:      jobReminder,
		Kind:      scheduler.KindAt,
		At:        at,
		SessionID: sessionID,
		Payload:   strconv.FormatInt(id, 10),
	})

	return id, nil
}

// List returns the session's pending reminders, soonest first.
func (e *Engine) List(ctx context.Context, sessionID string) ([]*store.Reminder, error) {
	return e.store.ListReminders(ctx, sessionID)
}

// Delete removes a pending reminder by id and cancels its trigger.
func (e *Engine) Delete(ctx context.Context, sessionID string, id int64) (*store.Reminder, error) {
	r, err := e.store.DeleteReminder(ctx, sessionID, id)
	if err != nil {
		return nil, err
	}
	e.sched.Cancel(r.JobID)
	return r, nil
}

// DeleteByTask removes the first pending reminder whose task contains the
// phrase and cancels its trigger.
func (e *Engine) DeleteByTask(ctx context.Context, sessionID, phrase string) (*store.Reminder, error) {
	r, err := e.store.DeleteReminderByTask(ctx, sessionID, phrase)
	if err != nil {
		return nil, err
	}
	e.sched.Cancel(r.JobID)
	return r, nil
}

// SetAlarm persists an alarm and registers its one-shot trigger,
// returning the alarm id.
func (e *Engine) SetAlarm(ctx context.Context, sessionID string, ringAt time.Time, label string) (int64, error) {
	jobID := uuid.New().String()

	id, err := e.store.CreateAlarm(ctx, sessionID, ringAt, label, jobID)
	if err != nil {
		return 0, err
	}

	e.sched.Add(scheduler.Job{
		ID:        jobID,
		Name:      jobAlarm,
		Kind:      scheduler.KindAt,
		At:        ringAt,
		SessionID: sessionID,
		Payload:   strconv.FormatInt(id, 10),
	})

	return id, nil
}

// ListAlarms returns the session's active alarms, soonest first.
func (e *Engine) ListAlarms(ctx context.Context, sessionID string) ([]*store.Alarm, error) {
	return e.store.ListAlarms(ctx, sessionID)
}

// StopNextAlarm deactivates the soonest upcoming alarm and cancels its
// trigger. Returns store.ErrNotFound when no alarm is pending.
func (e *Engine) StopNextAlarm(ctx context.Context, sessionID string, now time.Time) (*store.Alarm, error) {
	next, err := e.store.NextAlarm(ctx, sessionID, now)
	if err != nil {
		return nil, err
	}

	stopped, err := e.store.DeactivateAlarm(ctx, sessionID, next.ID)
	if err != nil {
		return nil, err
	}
	e.sched.Cancel(stopped.JobID)
	return stopped, nil
}

// handleFired runs on the scheduler goroutine when a trigger is due.
func (e *Engine) handleFired(job scheduler.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := strconv.ParseInt(job.Payload, 10, 64)
	if err != nil {
		slog.Error("reminders: bad job payload", "job_id", job.ID, "payload", job.Payload)
		return
	}

	switch job.Name {
	case jobReminder:
		r, err := e.store.GetReminder(ctx, id)
		if err != nil {
			slog.Error("reminders: fired reminder not found", "reminder_id", id, "error", err)
			return
		}
		if err := e.store.MarkReminderFired(ctx, id); err != nil {
			slog.Error("reminders: failed to mark fired", "reminder_id", id, "error", err)
		}
		if e.notify != nil {
			e.notify(job.SessionID, fmt.Sprintf("Reminder: %s", r.Task))
		}

	case jobAlarm:
		if _, err := e.store.DeactivateAlarm(ctx, job.SessionID, id); err != nil {
			slog.Error("reminders: failed to deactivate fired alarm", "alarm_id", id, "error", err)
		}
		if e.notify != nil {
			e.notify(job.SessionID, "Alarm ringing! Say 'stop alarm' to silence it.")
		}

	default:
		slog.Warn("reminders: unknown job kind fired", "job_id", job.ID, "name", job.Name)
	}
}
