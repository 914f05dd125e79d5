// Package app provides the main Hibiki application
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"maunium.net/go/mautrix/event"

	hibikiconfig "github.com/bdobrica/Hibiki/internal/hibiki/config"
	"github.com/bdobrica/Hibiki/internal/hibiki/convo"
	"github.com/bdobrica/Hibiki/internal/hibiki/corpus"
	"github.com/bdobrica/Hibiki/internal/hibiki/dispatch"
	"github.com/bdobrica/Hibiki/internal/hibiki/emotion"
	"github.com/bdobrica/Hibiki/internal/hibiki/engines"
	"github.com/bdobrica/Hibiki/internal/hibiki/fallback"
	"github.com/bdobrica/Hibiki/internal/hibiki/flow"
	"github.com/bdobrica/Hibiki/internal/hibiki/generic"
	"github.com/bdobrica/Hibiki/internal/hibiki/intent"
	"github.com/bdobrica/Hibiki/internal/hibiki/logsink"
	"github.com/bdobrica/Hibiki/internal/hibiki/matrix"
	"github.com/bdobrica/Hibiki/internal/hibiki/nlu"
	"github.com/bdobrica/Hibiki/internal/hibiki/reminders"
	"github.com/bdobrica/Hibiki/internal/hibiki/scheduler"
	"github.com/bdobrica/Hibiki/internal/hibiki/session"
	"github.com/bdobrica/Hibiki/internal/hibiki/shopping"
	"github.com/bdobrica/Hibiki/internal/hibiki/store"
	"github.com/bdobrica/Hibiki/internal/hibiki/trivia"
)

// Config holds application configuration
type Config struct {
	DatabasePath string
	Matrix       matrix.Config

	// WitToken is the server access token for the Wit.ai-compatible
	// classifier. When empty, classification is skipped and every turn
	// resolves through the fallback cascade.
	WitToken string

	// OpenAIAPIKey enables the open-domain generic responder.  When empty,
	// unresolved turns end in an apology instead of a generic answer.
	OpenAIAPIKey string

	// GenericModel overrides the chat model used by the generic responder.
	// The generic.model config key, when set, takes precedence over this.
	GenericModel string

	// Content engine credentials. An empty key leaves the matching engine
	// disabled; its intents answer with a contained apology.
	WeatherAPIKey     string
	NewsAPIKey        string
	WolframAppID      string
	SpoonacularAPIKey string
	NutritionixAppID  string
	NutritionixAPIKey string

	// SessionTTL is the dialogue-context inactivity window.
	// Defaults to session.DefaultTTL (15 minutes) when zero.
	SessionTTL time.Duration
}

// App is the main Hibiki application
type App struct {
	config      *Config
	store       *store.Store
	configStore hibikiconfig.Store
	matrix      *matrix.Client
	sched       *scheduler.Service
	dispatcher  *dispatch.Dispatcher
}

// New creates a new Hibiki application
func New(config *Config) (*App, error) {
	ctx := context.Background()

	// Initialize database
	slog.Info("opening database", "path", config.DatabasePath)
	st, err := store.New(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Matrix client.
	// Inject the DB so the client can persist the sync token across restarts.
	matrixCfg := config.Matrix
	matrixCfg.DB = st.DB()
	slog.Info("connecting to Matrix", "homeserver", matrixCfg.Homeserver)
	matrixClient, err := matrix.New(&matrixCfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize Matrix client: %w", err)
	}

	// Initialize runtime config store (non-secret key/value knobs such as
	// fallback thresholds and the generic rate limit).
	configStore := hibikiconfig.New(st)
	slog.Info("runtime config store ready")

	// Load the labeled utterance corpus and the trivia bank.
	corp, err := corpus.Load()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load utterance corpus: %w", err)
	}
	bank, err := trivia.Load()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load trivia bank: %w", err)
	}
	slog.Info("knowledge data loaded", "corpus_size", corp.Len(), "trivia_questions", bank.Len())

	// Fallback thresholds: defaults, overridable at runtime via the
	// config table without a restart of semantics (applied at startup).
	thresholds := fallback.DefaultThresholds()
	if v := hibikiconfig.FloatOr(ctx, configStore, hibikiconfig.KeyDomainThreshold, 0); v > 0 {
		thresholds.Alarm = v
		thresholds.Reminder = v
		thresholds.Trivia = v
		thresholds.News = v
		thresholds.Calorie = v
	}
	if v := hibikiconfig.FloatOr(ctx, configStore, hibikiconfig.KeyStrictThreshold, 0); v > 0 {
		thresholds.Shopping = v
		thresholds.Calendar = v
		thresholds.Fact = v
	}
	if v := hibikiconfig.FloatOr(ctx, configStore, hibikiconfig.KeyTerminalThreshold, 0); v > 0 {
		thresholds.Terminal = v
	}

	sessions := session.NewStore(session.Config{TTL: config.SessionTTL})
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Scheduler and the reminder/alarm engine.  Fired triggers notify the
	// originating Matrix room; the room ID is the first half of the
	// session key.
	sched := scheduler.NewService(scheduler.Config{})
	notify := func(sessionID, text string) {
		roomID := roomOf(sessionID)
		if roomID == "" {
			slog.Warn("notify: session has no room", "session_id", sessionID)
			return
		}
		if err := matrixClient.SendNotice(roomID, text); err != nil {
			slog.Error("notify: send to Matrix failed", "room", roomID, "err", err)
		}
	}
	remEngine := reminders.New(st, sched, notify)
	shopEngine := shopping.New(st)

	// NLU classifier: optional. Without a token every turn goes through
	// the keyword and corpus stages, which is a fully working (if less
	// accurate) mode.
	var classifier nlu.Classifier
	if config.WitToken != "" {
		classifier = nlu.NewWit(nlu.WitConfig{Token: config.WitToken})
		slog.Info("NLU classifier ready")
	} else {
		slog.Info("NLU: no token configured; keyword and corpus matching active")
	}

	// Content engines, each enabled by its own credential.
	var (
		weatherClient   *engines.WeatherClient
		newsClient      *engines.NewsClient
		knowledgeClient *engines.KnowledgeClient
		cookingClient   *engines.CookingClient
		calorieClient   *engines.CalorieClient
	)
	if config.WeatherAPIKey != "" {
		weatherClient = engines.NewWeather(engines.WeatherConfig{APIKey: config.WeatherAPIKey})
	}
	if config.NewsAPIKey != "" {
		newsClient = engines.NewNews(engines.NewsConfig{APIKey: config.NewsAPIKey})
	}
	if config.WolframAppID != "" {
		knowledgeClient = engines.NewKnowledge(engines.KnowledgeConfig{AppID: config.WolframAppID})
	}
	if config.SpoonacularAPIKey != "" {
		cookingClient = engines.NewCooking(engines.CookingConfig{APIKey: config.SpoonacularAPIKey})
	}
	if config.NutritionixAppID != "" && config.NutritionixAPIKey != "" {
		calorieClient = engines.NewCalorie(engines.CalorieConfig{
			AppID:  config.NutritionixAppID,
			APIKey: config.NutritionixAPIKey,
		})
	}
	slog.Info("content engines ready",
		"weather", weatherClient != nil,
		"news", newsClient != nil,
		"knowledge", knowledgeClient != nil,
		"cooking", cookingClient != nil,
		"calories", calorieClient != nil,
	)

	// Generic responder: enabled when an API key is present, matching the
	// classifier's auto-detection behavior.
	var genericResponder generic.Responder
	var genericLimiter *generic.RateLimiter
	genericEnabled := config.OpenAIAPIKey != ""
	if genericEnabled {
		model := config.GenericModel
		if v, err := configStore.Get(ctx, hibikiconfig.KeyGenericModel); err == nil && v != "" {
			model = v
		}
		genericResponder = generic.New(generic.Config{
			APIKey: config.OpenAIAPIKey,
			Model:  model,
		})
		rateLimit := hibikiconfig.IntOr(ctx, configStore, hibikiconfig.KeyGenericRateLimit, generic.DefaultRateLimit)
		genericLimiter = generic.NewRateLimiter(rateLimit, time.Minute)
		slog.Info("generic responder ready", "rate_limit_per_minute", rateLimit)
	} else {
		slog.Info("generic responder disabled (no API key); unresolved turns will apologize")
	}

	// Async interaction log.
	sink := logsink.New(st, logsink.DefaultQueueSize)

	dispatcher := dispatch.New(dispatch.Config{
		Sessions:   sessions,
		Classifier: classifier,
		Aliases:    intent.MustTable(intent.DefaultAliases()),
		Cascade:    fallback.New(thresholds, corp, genericEnabled),
		Corpus:     corp,
		Convo:      convo.NewResponder(rng, nil),
		Emotions:   emotion.NewDetector(rng),

		ReminderFlow: flow.NewReminder(sessions, remEngine, nil),
		TriviaFlow:   flow.NewTrivia(sessions, bank, rng),

		Reminders: remEngine,
		Shopping:  shopEngine,
		Weather:   weatherClient,
		News:      newsClient,
		Knowledge: knowledgeClient,
		Cooking:   cookingClient,
		Calories:  calorieClient,

		Generic:        genericResponder,
		GenericLimiter: genericLimiter,

		Sink: sink,
	})

	return &App{
		config:      config,
		store:       st,
		configStore: configStore,
		matrix:      matrixClient,
		sched:       sched,
		dispatcher:  dispatcher,
	}, nil
}

// Run starts the Hibiki application
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the trigger scheduler before the transport so reminders that
	// fire during the initial sync are delivered.
	a.sched.Start(ctx)

	slog.Info("starting Matrix sync")
	if err := a.matrix.Start(ctx, a.handleMessage); err != nil {
		return fmt.Errorf("failed to start Matrix client: %w", err)
	}

	slog.Info("Hibiki is running; press Ctrl+C to stop")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	return nil
}

// Stop stops the Hibiki application
func (a *App) Stop() {
	slog.Info("stopping Matrix client")
	a.matrix.Stop()

	slog.Info("stopping scheduler")
	a.sched.Stop()

	slog.Info("flushing interaction log")
	a.dispatcher.Close()

	slog.Info("closing database")
	a.store.Close()
}

// handleMessage processes incoming Matrix messages.  Each room+sender
// pair is its own dialogue session, so two people talking to the
// assistant in the same room do not share slot state.
func (a *App) handleMessage(ctx context.Context, evt *event.Event) {
	msgContent := evt.Content.AsMessage()
	if msgContent == nil {
		return
	}

	roomID := evt.RoomID.String()
	sessionID := sessionKey(roomID, evt.Sender.String())

	if err := a.matrix.SetTyping(roomID, true, 10*time.Second); err != nil {
		slog.Debug("typing indicator failed", "room", roomID, "err", err)
	}

	turn := a.dispatcher.HandleTurn(ctx, msgContent.Body, sessionID)

	if err := a.matrix.SetTyping(roomID, false, 0); err != nil {
		slog.Debug("typing indicator failed", "room", roomID, "err", err)
	}

	if turn.Response == "" {
		return
	}
	if err := a.matrix.SendMessage(roomID, turn.Response); err != nil {
		slog.Error("failed to send response", "room", roomID, "err", err)
	}
}

// sessionKey builds the dialogue session ID for a room+sender pair.
// The room half is recovered by roomOf when a scheduled trigger fires.
func sessionKey(roomID, sender string) string {
	return roomID + "|" + sender
}

// roomOf returns the room half of a session key, or "" for a session ID
// that did not originate from a Matrix room.
func roomOf(sessionID string) string {
	room, _, ok := strings.Cut(sessionID, "|")
	if !ok {
		return ""
	}
	return room
}
