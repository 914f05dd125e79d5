package dispatch_test

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bdobrica/Hibiki/internal/hibiki/convo"
	"github.com/bdobrica/Hibiki/internal/hibiki/corpus"
	"github.com/bdobrica/Hibiki/internal/hibiki/dispatch"
	"github.com/bdobrica/Hibiki/internal/hibiki/emotion"
	"github.com/bdobrica/Hibiki/internal/hibiki/engines"
	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
	"github.com/bdobrica/Hibiki/internal/hibiki/fallback"
	"github.com/bdobrica/Hibiki/internal/hibiki/flow"
	"github.com/bdobrica/Hibiki/internal/hibiki/generic"
	"github.com/bdobrica/Hibiki/internal/hibiki/intent"
	"github.com/bdobrica/Hibiki/internal/hibiki/nlu"
	"github.com/bdobrica/Hibiki/internal/hibiki/reminders"
	"github.com/bdobrica/Hibiki/internal/hibiki/scheduler"
	"github.com/bdobrica/Hibiki/internal/hibiki/session"
	"github.com/bdobrica/Hibiki/internal/hibiki/shopping"
	"github.com/bdobrica/Hibiki/internal/hibiki/store"
	"github.com/bdobrica/Hibiki/internal/hibiki/trivia"
)

// --- stubs ---

type stubClassifier struct {
	mu     sync.Mutex
	result nlu.Result
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (nlu.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nlu.None, s.err
	}
	return s.result, nil
}

func (s *stubClassifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type captureSink struct {
	mu   sync.Mutex
	recs []*store.Interaction
}

func (c *captureSink) Record(rec *store.Interaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
}

func (c *captureSink) last() *store.Interaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.recs) == 0 {
		return nil
	}
	return c.recs[len(c.recs)-1]
}

type stubGeneric struct {
	answer string
	err    error
	calls  int
}

func (s *stubGeneric) Answer(context.Context, string) (string, error) {
	s.calls++
	return s.answer, s.err
}

// --- fixture ---

type fixture struct {
	dispatcher *dispatch.Dispatcher
	classifier *stubClassifier
	sink       *captureSink
	store      *store.Store
	generic    *stubGeneric
}

func newFixture(t *testing.T, mutate func(cfg *dispatch.Config)) *fixture {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "hibiki-dispatch-test-*.db")
	if err != nil {
		t.Fatalf("create temp db file: %v", err)
	}
	f.Close()

	st, err := store.New(f.Name())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	corp, err := corpus.Load()
	if err != nil {
		t.Fatalf("corpus.Load: %v", err)
	}
	bank, err := trivia.Load()
	if err != nil {
		t.Fatalf("trivia.Load: %v", err)
	}

	sessions := session.NewStore(session.Config{})
	sched := scheduler.NewService(scheduler.Config{Tick: time.Hour})
	engine := reminders.New(st, sched, nil)

	rng := rand.New(rand.NewSource(1))
	cls := &stubClassifier{result: nlu.None}
	sink := &captureSink{}
	gen := &stubGeneric{answer: "That's a fun question to think about."}

	cfg := dispatch.Config{
		Sessions:       sessions,
		Classifier:     cls,
		Aliases:        intent.MustTable(intent.DefaultAliases()),
		Cascade:        fallback.New(fallback.DefaultThresholds(), corp, true),
		Corpus:         corp,
		Convo:          convo.NewResponder(rng, nil),
		Emotions:       emotion.NewDetector(rng),
		ReminderFlow:   flow.NewReminder(sessions, engine, nil),
		TriviaFlow:     flow.NewTrivia(sessions, bank, rng),
		Reminders:      engine,
		Shopping:       shopping.New(st),
		Generic:        gen,
		GenericLimiter: generic.NewRateLimiter(generic.DefaultRateLimit, 0),
		Sink:           sink,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	return &fixture{
		dispatcher: dispatch.New(cfg),
		classifier: cls,
		sink:       sink,
		store:      st,
		generic:    gen,
	}
}

// --- tests ---

func TestEmptyInputShortCircuits(t *testing.T) {
	fx := newFixture(t, nil)

	turn := fx.dispatcher.HandleTurn(context.Background(), "   ", "user-a")
	if turn.Response != convo.EmptyInput {
		t.Errorf("got %q, want empty-input prompt", turn.Response)
	}
	if turn.Intent != intent.Unknown {
		t.Errorf("got intent %q, want unknown", turn.Intent)
	}
	if fx.classifier.callCount() != 0 {
		t.Errorf("classifier called %d times for empty input", fx.classifier.callCount())
	}
}

func TestConfidentClassifierIntentAnswersCanned(t *testing.T) {
	fx := newFixture(t, nil)
	fx.classifier.result = nlu.Result{Label: "greeting", Confidence: 0.95}

	turn := fx.dispatcher.HandleTurn(context.Background(), "hello there", "user-a")
	if turn.Intent != intent.Greeting {
		t.Fatalf("got intent %q, want greeting", turn.Intent)
	}
	if turn.UsedFallback {
		t.Error("confident classifier turn must not be marked as fallback")
	}
	if turn.Response == "" || turn.Response == convo.Apology {
		t.Errorf("expected a canned greeting, got %q", turn.Response)
	}
}

func TestReminderOneShot(t *testing.T) {
	fx := newFixture(t, nil)

	turn := fx.dispatcher.HandleTurn(context.Background(), "remind me to call mom in 10 minutes", "user-a")
	if turn.Intent != intent.SetReminder {
		t.Fatalf("got intent %q, want set_reminder", turn.Intent)
	}
	if !strings.Contains(turn.Response, "call mom") {
		t.Errorf("confirmation does not name the task: %q", turn.Response)
	}

	rows, err := fx.store.ListReminders(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(rows) != 1 || rows[0].Task != "call mom" {
		t.Fatalf("unexpected reminders: %+v", rows)
	}
	until := time.Until(rows[0].RemindAt)
	if until < 9*time.Minute || until > 11*time.Minute {
		t.Errorf("reminder scheduled %v out, want about 10 minutes", until)
	}
}

func TestReminderMultiTurn(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	turn := fx.dispatcher.HandleTurn(ctx, "remind me", "user-a")
	if !strings.Contains(turn.Response, "remind you about") {
		t.Fatalf("expected task prompt, got %q", turn.Response)
	}

	turn = fx.dispatcher.HandleTurn(ctx, "buy milk", "user-a")
	if !strings.Contains(turn.Response, "What time") {
		t.Fatalf("expected time prompt, got %q", turn.Response)
	}
	if turn.Intent != intent.SetReminder {
		t.Errorf("flow continuation recorded as %q", turn.Intent)
	}

	turn = fx.dispatcher.HandleTurn(ctx, "in 2 hours", "user-a")
	if !strings.Contains(turn.Response, "buy milk") {
		t.Fatalf("expected confirmation naming the task, got %q", turn.Response)
	}

	rows, err := fx.store.ListReminders(ctx, "user-a")
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d reminders, want 1", len(rows))
	}
}

func TestTriviaRound(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	turn := fx.dispatcher.HandleTurn(ctx, "lets play trivia", "user-a")
	if turn.Intent != intent.PlayTrivia {
		t.Fatalf("got intent %q, want play_trivia", turn.Intent)
	}
	if !strings.Contains(turn.Response, "A.") {
		t.Fatalf("expected lettered options, got %q", turn.Response)
	}

	turn = fx.dispatcher.HandleTurn(ctx, "no idea, maybe a", "user-a")
	if turn.Intent != intent.AnswerTrivia {
		t.Fatalf("answer turn recorded as %q", turn.Intent)
	}
	if !strings.Contains(turn.Response, "Correct") && !strings.Contains(turn.Response, "correct answer was") {
		t.Errorf("expected a verdict, got %q", turn.Response)
	}
}

func TestEmotionOverride(t *testing.T) {
	fx := newFixture(t, nil)

	turn := fx.dispatcher.HandleTurn(context.Background(), "i feel so lonely today", "user-a")
	if turn.Intent != intent.SentimentReport {
		t.Fatalf("got intent %q, want sentiment_report", turn.Intent)
	}
	if turn.Response == "" {
		t.Error("expected an empathetic response")
	}

	rec := fx.sink.last()
	if rec == nil {
		t.Fatal("no interaction recorded")
	}
	if rec.Intent != string(intent.SentimentReport) {
		t.Errorf("recorded intent %q, want sentiment_report", rec.Intent)
	}
	if rec.Emotion == "" || rec.Emotion == string(emotion.Neutral) {
		t.Errorf("recorded emotion %q, want a negative affect", rec.Emotion)
	}
}

func TestCollaboratorFailureIsContained(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fx := newFixture(t, func(cfg *dispatch.Config) {
		cfg.Weather = engines.NewWeather(engines.WeatherConfig{APIKey: "k", BaseURL: srv.URL})
	})
	fx.classifier.result = nlu.Result{
		Label:      "get_weather",
		Confidence: 0.9,
		Entities:   entity.Bag{"location": {{Value: "Lagos"}}},
	}

	turn := fx.dispatcher.HandleTurn(context.Background(), "whats the weather in lagos", "user-a")
	if turn.Intent != intent.GetWeather {
		t.Fatalf("got intent %q, want get_weather", turn.Intent)
	}
	if !strings.Contains(turn.Response, "couldn't fetch the weather") {
		t.Errorf("expected contained apology, got %q", turn.Response)
	}

	rec := fx.sink.last()
	if rec == nil || !rec.ErrorMessage.Valid {
		t.Fatalf("expected recorded error, got %+v", rec)
	}
}

func TestWeatherHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current":{"temp_c":21.0,"condition":{"text":"Sunny"}}}`))
	}))
	defer srv.Close()

	fx := newFixture(t, func(cfg *dispatch.Config) {
		cfg.Weather = engines.NewWeather(engines.WeatherConfig{APIKey: "k", BaseURL: srv.URL})
	})
	fx.classifier.result = nlu.Result{
		Label:      "wit$get_weather",
		Confidence: 0.93,
		Entities:   entity.Bag{"wit$location:location": {{Value: "Paris"}}},
	}

	turn := fx.dispatcher.HandleTurn(context.Background(), "what's the weather in Paris?", "user-a")
	if turn.Response != "The weather in Paris is Sunny with 21°C." {
		t.Errorf("unexpected response: %q", turn.Response)
	}
}

func TestShoppingAddThenRead(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	turn := fx.dispatcher.HandleTurn(ctx, "add milk and eggs to my shopping list", "user-a")
	if turn.Intent != intent.AddToShoppingList {
		t.Fatalf("got intent %q, want add_to_shopping_list", turn.Intent)
	}
	if !strings.Contains(turn.Response, "milk") || !strings.Contains(turn.Response, "eggs") {
		t.Errorf("confirmation does not name the items: %q", turn.Response)
	}

	turn = fx.dispatcher.HandleTurn(ctx, "whats on my shopping list", "user-a")
	if !strings.Contains(turn.Response, "milk, eggs") {
		t.Errorf("list read-back missing items: %q", turn.Response)
	}
}

func TestGenericFallbackAndRateLimit(t *testing.T) {
	fx := newFixture(t, func(cfg *dispatch.Config) {
		cfg.GenericLimiter = generic.NewRateLimiter(1, time.Minute)
	})

	turn := fx.dispatcher.HandleTurn(context.Background(), "xylophone quandary zibzib", "user-a")
	if !turn.UsedFallback {
		t.Error("generic turn must be marked as fallback")
	}
	if turn.Response != "That's a fun question to think about." {
		t.Fatalf("expected generic answer, got %q", turn.Response)
	}

	turn = fx.dispatcher.HandleTurn(context.Background(), "kwyjibo flibbertigib zorp", "user-a")
	if turn.Response == "That's a fun question to think about." {
		t.Error("second open-domain turn should have been rate limited")
	}
	if fx.generic.calls != 1 {
		t.Errorf("generic responder called %d times, want 1", fx.generic.calls)
	}
}

func TestClassifierErrorDegradesToCascade(t *testing.T) {
	fx := newFixture(t, nil)
	fx.classifier.err = errors.New("connection refused")

	turn := fx.dispatcher.HandleTurn(context.Background(), "Tell me a joke!", "user-a")
	if turn.Intent != intent.TellJoke {
		t.Fatalf("got intent %q, want tell_joke", turn.Intent)
	}
	if !turn.UsedFallback {
		t.Error("corpus-resolved turn must be marked as fallback")
	}

	rec := fx.sink.last()
	if rec == nil || !rec.ErrorMessage.Valid {
		t.Error("classifier error should be recorded on the interaction")
	}
	if rec != nil && rec.ExpectedIntent != string(intent.TellJoke) {
		t.Errorf("expected-intent marker %q, want tell_joke", rec.ExpectedIntent)
	}
	if rec != nil && (!rec.IsCorrect.Valid || !rec.IsCorrect.Bool) {
		t.Error("exact corpus hit should be marked correct")
	}
}

func TestCalendarIsAnsweredInline(t *testing.T) {
	fx := newFixture(t, nil)
	fx.classifier.result = nlu.Result{Label: "calendar_event", Confidence: 0.9}

	turn := fx.dispatcher.HandleTurn(context.Background(), "schedule a meeting tomorrow", "user-a")
	if turn.Intent != intent.CalendarEvent {
		t.Fatalf("got intent %q, want calendar_event", turn.Intent)
	}
	if !strings.Contains(turn.Response, "calendar") {
		t.Errorf("unexpected calendar reply: %q", turn.Response)
	}
}

func TestUnknownWithGenericDisabledApologizes(t *testing.T) {
	fx := newFixture(t, func(cfg *dispatch.Config) {
		cfg.Generic = nil
	})

	turn := fx.dispatcher.HandleTurn(context.Background(), "xylophone quandary zibzib", "user-a")
	if turn.Response != convo.Apology {
		t.Errorf("got %q, want apology", turn.Response)
	}
}
