// Package logsink writes interaction records to the database from a
// background worker so that logging never blocks or fails a turn.
package logsink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bdobrica/Hibiki/internal/hibiki/store"
)

// DefaultQueueSize bounds the in-flight record queue.
const DefaultQueueSize = 256

// writeTimeout caps how long a single database write may take.
const writeTimeout = 5 * time.Second

// Writer is the subset of the store the sink needs.
type Writer interface {
	WriteInteraction(ctx context.Context, rec *store.Interaction) error
}

// Sink queues interaction records and persists them asynchronously.
// When the queue is full the oldest queued record is dropped so that
// Record never blocks the caller.
type Sink struct {
	writer Writer
	queue  chan *store.Interaction

	mu      sync.Mutex
	closed  bool
	dropped int64

	done chan struct{}
}

// New creates a Sink and starts its worker. queueSize <= 0 uses the default.
func New(writer Writer, queueSize int) *Sink {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	s := &Sink{
		writer: writer,
		queue:  make(chan *store.Interaction, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Record enqueues a record without blocking. On a full queue the oldest
// record is discarded to make room.
func (s *Sink) Record(rec *store.Interaction) {
	if rec == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	for {
		select {
		case s.queue <- rec:
			return
		default:
		}

		select {
		case old := <-s.queue:
			s.dropped++
			slog.Warn("interaction log queue full, dropping oldest record",
				"turn_id", old.TurnID,
				"dropped_total", s.dropped)
		default:
		}
	}
}

// Dropped returns how many records have been discarded so far.
func (s *Sink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops accepting records, drains the queue, and waits for the
// worker to finish.
func (s *Sink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)

	for rec := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := s.writer.WriteInteraction(ctx, rec); err != nil {
			// A failed write is logged and forgotten; the turn already
			// completed and must not be affected.
			slog.Error("failed to persist interaction",
				"turn_id", rec.TurnID,
				"session_id", rec.SessionID,
				"error", err)
		}
		cancel()
	}
}
