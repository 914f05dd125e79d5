// Package scheduler registers deferred triggers for reminders and
// alarms.  One-shot jobs fire at an absolute time; recurring jobs run on
// a cron expression.  A job can be cancelled by id until it fires, and a
// cancelled job firing is a no-op.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	rcron "github.com/robfig/cron/v3"
)

// Kind discriminates job schedules.
type Kind string

const (
	// KindAt fires once at an absolute time.
	KindAt Kind = "at"
	// KindCron fires on a cron expression until cancelled.
	KindCron Kind = "cron"
)

// Job is one scheduled trigger.
type Job struct {
	ID        string
	Name      string
	Kind      Kind
	At        time.Time // KindAt only
	Expr      string    // KindCron only
	SessionID string
	Payload   string
}

// Config holds Service configuration.
type Config struct {
	// Tick is the due-job poll interval for one-shot jobs.
	// Defaults to one second.
	Tick time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service runs the trigger loop.  OnFire is invoked from the scheduler
// goroutine; handlers that block should hand off to their own worker.
type Service struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	cron     *rcron.Cron
	entryMap map[string]rcron.EntryID

	OnFire func(job Job)

	tick   time.Duration
	now    func() time.Time
	cancel context.CancelFunc
}

// NewService creates a stopped Service; call Start to begin firing.
func NewService(cfg Config) *Service {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		jobs:     make(map[string]*Job),
		entryMap: make(map[string]rcron.EntryID),
		tick:     cfg.Tick,
		now:      cfg.Now,
	}
}

// Start launches the cron runner and the one-shot tick loop.  It returns
// immediately; the loops stop when ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.cron = rcron.New()
	for _, job := range s.jobs {
		if job.Kind == KindCron {
			s.registerCron(job)
		}
	}
	s.mu.Unlock()

	s.cron.Start()
	go s.tickLoop(runCtx)

	slog.Info("scheduler started", "tick", s.tick)
}

// Stop halts both loops; running handlers finish.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	cron := s.cron
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cron != nil {
		<-cron.Stop().Done()
	}
	slog.Info("scheduler stopped")
}

// Add registers a job and returns its id (generated when empty).
// KindAt jobs already due fire on the next tick.
func (s *Service) Add(job Job) string {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	jc := job
	s.jobs[job.ID] = &jc
	if job.Kind == KindCron && s.cron != nil {
		s.registerCron(&jc)
	}

	slog.Debug("scheduler: job added",
		"job_id", job.ID, "name", job.Name, "kind", job.Kind)
	return job.ID
}

// Cancel removes the job with the given id before it fires.  It reports
// whether a job was removed; cancelling an unknown or already-fired id
// is a harmless no-op.
func (s *Service) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

// Pending reports the number of registered jobs.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Service) registerCron(job *Job) {
	jc := *job
	entry, err := s.cron.AddFunc(job.Expr, func() { s.fire(jc) })
	if err != nil {
		slog.Error("scheduler: bad cron expression",
			"job_id", job.ID, "expr", job.Expr, "err", err)
		return
	}
	s.entryMap[job.ID] = entry
}

// removeLocked drops a job and its cron entry.  Caller holds s.mu.
func (s *Service) removeLocked(id string) bool {
	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	if entry, ok := s.entryMap[id]; ok {
		if s.cron != nil {
			s.cron.Remove(entry)
		}
		delete(s.entryMap, id)
	}
	return true
}

func (s *Service) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.fireDue(s.now())
		case <-ctx.Done():
			return
		}
	}
}

// fireDue fires every one-shot job whose time has come, removing each
// before its handler runs so a concurrent Cancel cannot race a second
// firing.
func (s *Service) fireDue(now time.Time) {
	s.mu.Lock()
	var due []Job
	for id, job := range s.jobs {
		if job.Kind == KindAt && !job.At.After(now) {
			due = append(due, *job)
			s.removeLocked(id)
		}
	}
	s.mu.Unlock()

	for _, job := range due {
		s.fire(job)
	}
}

func (s *Service) fire(job Job) {
	slog.Info("scheduler: firing job",
		"job_id", job.ID, "name", job.Name, "session_id", job.SessionID)
	if s.OnFire != nil {
		s.OnFire(job)
	}
}
