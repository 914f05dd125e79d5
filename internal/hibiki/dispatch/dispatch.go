// Package dispatch routes one resolved turn to its handler: canned
// conversation, content engines, list and reminder operations, flows,
// or the open-domain responder.  HandleTurn is the transport-agnostic
// entry point of the whole engine; it never returns an error, because a
// voice assistant must always say something.
package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bdobrica/Hibiki/common/trace"
	"github.com/bdobrica/Hibiki/internal/hibiki/convo"
	"github.com/bdobrica/Hibiki/internal/hibiki/corpus"
	"github.com/bdobrica/Hibiki/internal/hibiki/emotion"
	"github.com/bdobrica/Hibiki/internal/hibiki/engines"
	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
	"github.com/bdobrica/Hibiki/internal/hibiki/fallback"
	"github.com/bdobrica/Hibiki/internal/hibiki/flow"
	"github.com/bdobrica/Hibiki/internal/hibiki/generic"
	"github.com/bdobrica/Hibiki/internal/hibiki/intent"
	"github.com/bdobrica/Hibiki/internal/hibiki/logsink"
	"github.com/bdobrica/Hibiki/internal/hibiki/nlu"
	"github.com/bdobrica/Hibiki/internal/hibiki/reminders"
	"github.com/bdobrica/Hibiki/internal/hibiki/session"
	"github.com/bdobrica/Hibiki/internal/hibiki/shopping"
	"github.com/bdobrica/Hibiki/internal/hibiki/store"
)

const rateLimitedReply = "I've been chatting a lot! Give me a moment before asking more open questions."

const calendarReply = "I can't manage your calendar just yet, but reminders work great. Try saying 'remind me to...'."

// Turn is the outcome of one dispatched utterance.
type Turn struct {
	Response     string
	Intent       intent.Intent
	Confidence   float64
	UsedFallback bool
}

// Recorder receives the interaction record for a completed turn.
// *logsink.Sink satisfies it.
type Recorder interface {
	Record(rec *store.Interaction)
}

// Config wires the dispatcher's collaborators.  Sessions, Aliases,
// Cascade, and Convo are required; nil engines degrade their intents to
// a contained apology.
type Config struct {
	Sessions   *session.Store
	Classifier nlu.Classifier
	Aliases    *intent.Table
	Cascade    *fallback.Cascade
	Corpus     *corpus.Corpus
	Convo      *convo.Responder
	Emotions   *emotion.Detector

	ReminderFlow *flow.Reminder
	TriviaFlow   *flow.Trivia

	Reminders *reminders.Engine
	Shopping  *shopping.Engine
	Weather   *engines.WeatherClient
	News      *engines.NewsClient
	Knowledge *engines.KnowledgeClient
	Cooking   *engines.CookingClient
	Calories  *engines.CalorieClient

	Generic        generic.Responder
	GenericLimiter *generic.RateLimiter

	Sink Recorder

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// handler answers one intent.  capability names what the apology says
// could not be done when the handler fails.
type handler struct {
	capability string
	run        func(ctx context.Context, d *Dispatcher, sessionID, text string, ents entity.Bag) (string, error)
}

// Dispatcher owns the turn pipeline.
type Dispatcher struct {
	cfg      Config
	now      func() time.Time
	handlers map[intent.Intent]handler
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Classifier == nil {
		cfg.Classifier = noClassifier{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	d := &Dispatcher{cfg: cfg, now: now}
	d.handlers = intentHandlers()
	return d
}

// noClassifier stands in when no NLU endpoint is configured; every turn
// goes through the cascade.
type noClassifier struct{}

func (noClassifier) Classify(context.Context, string) (nlu.Result, error) {
	return nlu.None, nil
}

// HandleTurn runs the full pipeline for one utterance.  It never
// returns an error: collaborator failures surface as apologies and are
// recorded on the interaction log.
func (d *Dispatcher) HandleTurn(ctx context.Context, rawText, sessionID string) Turn {
	ctx, turnID := trace.Ensure(ctx)
	started := d.now()

	text := strings.TrimSpace(rawText)
	if text == "" {
		turn := Turn{Response: convo.EmptyInput, Intent: intent.Unknown}
		d.record(started, turnID, sessionID, rawText, turn, "", "", nil)
		return turn
	}

	release := d.cfg.Sessions.Acquire(sessionID)
	defer release()
	d.cfg.Sessions.Touch(sessionID)

	// --- classification -----------------------------------------------
	var turnErr error
	res, err := d.cfg.Classifier.Classify(ctx, text)
	if err != nil {
		// A dead classifier must not kill the turn; the cascade covers.
		slog.Warn("dispatch: classifier unavailable, degrading",
			"turn_id", turnID, "error", err)
		res = nlu.None
		turnErr = err
	}
	classified := d.cfg.Aliases.Normalize(res.Label)
	if len(res.Entities) > 0 {
		d.cfg.Sessions.MergeEntities(sessionID, res.Entities)
	}
	ents := res.Entities

	// --- emotion override ---------------------------------------------
	mood := d.cfg.Emotions.Detect(text)
	if emotion.Overriding(mood) {
		turn := Turn{
			Response: d.cfg.Emotions.Respond(mood),
			Intent:   intent.SentimentReport,
		}
		slog.Info("dispatch: emotion override",
			"turn_id", turnID, "session_id", sessionID, "emotion", mood)
		d.record(started, turnID, sessionID, text, turn, string(mood), "", turnErr)
		return turn
	}

	// --- pending multi-turn flows -------------------------------------
	if d.cfg.ReminderFlow != nil && d.cfg.ReminderFlow.Pending(sessionID) {
		resp, err := d.cfg.ReminderFlow.Handle(ctx, sessionID, text, ents)
		if err != nil {
			slog.Error("dispatch: reminder flow failed",
				"turn_id", turnID, "session_id", sessionID, "error", err)
			resp = "Sorry, I couldn't set that reminder right now."
			turnErr = errors.Join(turnErr, err)
		}
		turn := Turn{Response: resp, Intent: intent.SetReminder, Confidence: res.Confidence}
		d.record(started, turnID, sessionID, text, turn, string(mood), "", turnErr)
		return turn
	}
	if d.cfg.TriviaFlow != nil && d.cfg.TriviaFlow.Pending(sessionID) {
		turn := Turn{Response: d.cfg.TriviaFlow.Answer(sessionID, text), Intent: intent.AnswerTrivia}
		d.record(started, turnID, sessionID, text, turn, string(mood), "", turnErr)
		return turn
	}

	// --- cascade -------------------------------------------------------
	resolution := d.cfg.Cascade.Resolve(classified, res.Confidence, text)
	slog.Info("dispatch: resolved",
		"turn_id", turnID, "session_id", sessionID,
		"intent", resolution.Intent, "stage", resolution.Stage,
		"confidence", resolution.Confidence, "used_fallback", resolution.UsedFallback)

	turn := Turn{
		Intent:       resolution.Intent,
		Confidence:   resolution.Confidence,
		UsedFallback: resolution.UsedFallback,
	}

	switch {
	case resolution.Generic:
		turn.Response, err = d.answerGeneric(ctx, sessionID, text)
		if err != nil {
			slog.Error("dispatch: generic responder failed",
				"turn_id", turnID, "error", err)
			turn.Response = convo.Apology
			turnErr = errors.Join(turnErr, err)
		}

	default:
		h, ok := d.handlers[resolution.Intent]
		if !ok {
			// Canned conversation, or the apology for anything else.
			turn.Response = d.cfg.Convo.Respond(resolution.Intent)
			break
		}
		turn.Response, err = h.run(ctx, d, sessionID, text, ents)
		if err != nil {
			slog.Error("dispatch: handler failed",
				"turn_id", turnID, "intent", resolution.Intent, "error", err)
			turn.Response = fmt.Sprintf("Sorry, I couldn't %s right now.", h.capability)
			turnErr = errors.Join(turnErr, err)
		}
	}

	d.record(started, turnID, sessionID, text, turn, string(mood), string(resolution.Stage), turnErr)
	return turn
}

// answerGeneric runs the rate-limited open-domain responder.
func (d *Dispatcher) answerGeneric(ctx context.Context, sessionID, text string) (string, error) {
	if d.cfg.Generic == nil {
		return convo.Apology, nil
	}
	if d.cfg.GenericLimiter != nil && !d.cfg.GenericLimiter.Allow(sessionID) {
		return rateLimitedReply, nil
	}
	return d.cfg.Generic.Answer(ctx, text)
}

// record hands the turn to the async interaction log.  The expected
// intent comes from an exact labeled-corpus hit, giving each record an
// offline correctness marker.
func (d *Dispatcher) record(ts time.Time, turnID, sessionID, input string, turn Turn, mood, stage string, turnErr error) {
	if d.cfg.Sink == nil {
		return
	}

	rec := &store.Interaction{
		Timestamp:     ts,
		TurnID:        turnID,
		SessionID:     sessionID,
		UserInput:     input,
		Intent:        string(turn.Intent),
		Confidence:    turn.Confidence,
		UsedFallback:  turn.UsedFallback,
		FallbackStage: stage,
		Emotion:       mood,
		Response:      turn.Response,
	}
	if turnErr != nil {
		rec.ErrorMessage = sql.NullString{String: turnErr.Error(), Valid: true}
	}
	if d.cfg.Corpus != nil && input != "" {
		if expected, score, ok := d.cfg.Corpus.Lookup(corpus.Clean(input)); ok && score == 1.0 {
			rec.ExpectedIntent = string(expected)
			rec.IsCorrect = sql.NullBool{Bool: expected == turn.Intent, Valid: true}
		}
	}
	d.cfg.Sink.Record(rec)
}

// Close flushes the interaction log when the sink supports it.
func (d *Dispatcher) Close() {
	if s, ok := d.cfg.Sink.(*logsink.Sink); ok {
		s.Close()
	}
}
