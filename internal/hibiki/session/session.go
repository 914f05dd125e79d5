// Package session tracks ephemeral per-conversation state: entities
// collected across turns, the flow currently awaiting input, and the
// pending trivia question.
//
// State lives in memory only.  A session that stays quiet past the TTL is
// discarded lazily on its next access, so an abandoned reminder flow
// simply evaporates and the user starts fresh.
package session

import (
	"sync"
	"time"

	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
)

// DefaultTTL is the inactivity window after which a session is discarded.
const DefaultTTL = 15 * time.Minute

// Flow identifies the multi-turn flow a session is currently inside.
type Flow string

const (
	FlowNone     Flow = ""
	FlowReminder Flow = "reminder"
	FlowTrivia   Flow = "trivia"
)

// PendingQuestion is the trivia question a session is waiting on.
// Options keep bank order; letters A, B, C, ... are assigned by index.
type PendingQuestion struct {
	Prompt       string
	Options      []string
	CorrectIndex int
}

// Context is the state accumulated for one conversation.  All fields are
// snapshots; mutations go through the Store so per-session serialization
// holds.
type Context struct {
	ID          string
	StartedAt   time.Time
	LastTouched time.Time

	// Entities collected across the turns of this session, merged
	// append-only in arrival order.
	Entities entity.Bag

	// Fields are flow slot values (task, datetime) resolved so far.
	// A field is written once; later extractions never overwrite it.
	Fields map[string]string

	PendingFlow     Flow
	PendingQuestion *PendingQuestion
}

// Config holds Store configuration.
type Config struct {
	// TTL is the inactivity window; DefaultTTL when zero.
	TTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// keyLock is a per-session mutex with a holder/waiter count, so the
// entry can be dropped from the map once the last turn releases it.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Store holds all live sessions.  Safe for concurrent use; operations on
// distinct session ids do not contend beyond the brief map lookup.
type Store struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]*Context
	keys map[string]*keyLock
}

// NewStore creates a Store with the given configuration.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{
		ttl:  cfg.TTL,
		now:  cfg.Now,
		data: make(map[string]*Context),
		keys: make(map[string]*keyLock),
	}
}

// Acquire takes the per-session lock for id and returns its release
// function.  Turn processing holds this for the whole turn so concurrent
// requests for the same session serialize while other sessions proceed.
// The lock entry is reference-counted: the last release removes it, so
// idle sessions leave nothing behind in the map.
func (s *Store) Acquire(id string) (release func()) {
	s.mu.Lock()
	kl, ok := s.keys[id]
	if !ok {
		kl = &keyLock{}
		s.keys[id] = kl
	}
	kl.refs++
	s.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		s.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(s.keys, id)
		}
		s.mu.Unlock()
	}
}

// expired reports whether ctx has outlived the TTL at time now.
func (s *Store) expired(ctx *Context, now time.Time) bool {
	return now.Sub(ctx.LastTouched) > s.ttl
}

// live returns the non-expired context for id, discarding a stale one.
// Caller must hold s.mu.
func (s *Store) live(id string, now time.Time) *Context {
	ctx := s.data[id]
	if ctx == nil {
		return nil
	}
	if s.expired(ctx, now) {
		delete(s.data, id)
		return nil
	}
	return ctx
}

// GetOrCreate returns a snapshot of the session for id, creating a fresh
// empty one if none exists or the existing one has expired.
func (s *Store) GetOrCreate(id string) Context {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.live(id, now)
	if ctx == nil {
		ctx = &Context{
			ID:          id,
			StartedAt:   now,
			LastTouched: now,
			Fields:      make(map[string]string),
		}
		s.data[id] = ctx
	}
	return snapshot(ctx)
}

// Touch refreshes the session's last-activity time.  A Touch on an
// expired or missing session recreates it empty.
func (s *Store) Touch(id string) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.live(id, now)
	if ctx == nil {
		s.data[id] = &Context{
			ID:          id,
			StartedAt:   now,
			LastTouched: now,
			Fields:      make(map[string]string),
		}
		return
	}
	ctx.LastTouched = now
}

// MergeEntities appends bag's values into the session's collected
// entities, preserving arrival order per kind.
func (s *Store) MergeEntities(id string, bag entity.Bag) {
	if len(bag) == 0 {
		return
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.mustLive(id, now)
	ctx.Entities = ctx.Entities.Merge(bag)
	ctx.LastTouched = now
}

// SetFieldIfAbsent records a flow field value the first time it is seen.
// It reports whether the value was stored; an already-known field keeps
// its original value.
func (s *Store) SetFieldIfAbsent(id, name, value string) bool {
	if value == "" {
		return false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.mustLive(id, now)
	if _, ok := ctx.Fields[name]; ok {
		return false
	}
	ctx.Fields[name] = value
	ctx.LastTouched = now
	return true
}

// SetFlow marks the session as awaiting input for flow.
func (s *Store) SetFlow(id string, flow Flow) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.mustLive(id, now)
	ctx.PendingFlow = flow
	ctx.LastTouched = now
}

// SetQuestion stores the pending trivia question and enters the trivia
// flow.
func (s *Store) SetQuestion(id string, q PendingQuestion) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.mustLive(id, now)
	qc := q
	qc.Options = append([]string(nil), q.Options...)
	ctx.PendingQuestion = &qc
	ctx.PendingFlow = FlowTrivia
	ctx.LastTouched = now
}

// TakeQuestion removes and returns the pending trivia question.  An
// answer attempt consumes the question whether or not it is correct, so
// retrieval and clearing are a single step.
func (s *Store) TakeQuestion(id string) (PendingQuestion, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.live(id, now)
	if ctx == nil || ctx.PendingQuestion == nil {
		return PendingQuestion{}, false
	}
	q := *ctx.PendingQuestion
	ctx.PendingQuestion = nil
	if ctx.PendingFlow == FlowTrivia {
		ctx.PendingFlow = FlowNone
	}
	ctx.LastTouched = now
	return q, true
}

// ClearFlow removes pending flow state (flow marker, question, and flow
// fields) without discarding the session itself.
func (s *Store) ClearFlow(id string) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.live(id, now)
	if ctx == nil {
		return
	}
	ctx.PendingFlow = FlowNone
	ctx.PendingQuestion = nil
	ctx.Fields = make(map[string]string)
	ctx.LastTouched = now
}

// Len reports the number of live sessions without pruning.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// mustLive returns the live context for id, creating an empty one when
// missing or expired.  Caller must hold s.mu.
func (s *Store) mustLive(id string, now time.Time) *Context {
	ctx := s.live(id, now)
	if ctx == nil {
		ctx = &Context{
			ID:          id,
			StartedAt:   now,
			LastTouched: now,
			Fields:      make(map[string]string),
		}
		s.data[id] = ctx
	}
	return ctx
}

// snapshot copies ctx so callers cannot mutate store state directly.
func snapshot(ctx *Context) Context {
	out := *ctx
	out.Entities = ctx.Entities.Clone()
	out.Fields = make(map[string]string, len(ctx.Fields))
	for k, v := range ctx.Fields {
		out.Fields[k] = v
	}
	if ctx.PendingQuestion != nil {
		q := *ctx.PendingQuestion
		q.Options = append([]string(nil), ctx.PendingQuestion.Options...)
		out.PendingQuestion = &q
	}
	return out
}
