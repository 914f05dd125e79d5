// Package fallback implements the layered resolution cascade that runs
// when the classifier returns nothing usable: domain keyword heuristics
// first, then a fuzzy match against the labeled corpus, then the
// open-domain responder as the terminal stage.
//
// The cascade is a pure function over its inputs plus read-only tables;
// it holds no per-turn state and needs no locking.
package fallback

import (
	"log/slog"
	"strings"

	"github.com/bdobrica/Hibiki/internal/hibiki/corpus"
	"github.com/bdobrica/Hibiki/internal/hibiki/intent"
)

// Stage names the cascade stage that produced a resolution.
type Stage string

const (
	StageClassifier Stage = "classifier"
	StageKeyword    Stage = "keyword"
	StageCorpus     Stage = "corpus"
	StageGeneric    Stage = "generic"
	StageNone       Stage = "none"
)

// Thresholds are the per-domain confidence gates.  A keyword rule only
// fires when the classifier's intent is missing or its confidence falls
// below the rule's domain threshold; the terminal gate governs the
// corpus and generic stages.
type Thresholds struct {
	Alarm    float64
	Reminder float64
	Shopping float64
	Trivia   float64
	News     float64
	Calendar float64
	Calorie  float64
	Fact     float64
	Terminal float64
}

// DefaultThresholds returns the gates observed to work in production.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Alarm:    0.6,
		Reminder: 0.6,
		Shopping: 0.7,
		Trivia:   0.6,
		News:     0.6,
		Calendar: 0.7,
		Calorie:  0.6,
		Fact:     0.7,
		Terminal: 0.75,
	}
}

// Resolution is the cascade outcome for one turn.
type Resolution struct {
	Intent     intent.Intent
	Confidence float64

	// UsedFallback is true whenever any stage beyond the raw classifier
	// output was consulted.  Observability only; routing must not
	// branch on it.
	UsedFallback bool

	// Stage names the stage that produced the intent.
	Stage Stage

	// Generic is true when no structured intent could be resolved and
	// the open-domain responder should answer the turn.  When the
	// responder is disabled the dispatcher defers to small talk.
	Generic bool
}

// rule is one (domain, keyword set, target intent) entry.  Rules are
// evaluated in slice order; the first gate-passing match wins, so
// overlapping keyword sets resolve deterministically.
type rule struct {
	domain    string
	threshold func(t Thresholds) float64
	target    intent.Intent
	match     func(text string) bool
}

// Keyword sets, per domain.  Matching runs over the lower-cased,
// punctuation-stripped input.
var (
	alarmPhrases = []string{
		"set alarm", "wake me", "alarm for", "remind me to wake", "alarm at", "wake up at",
		"remind me to get up", "set an alarm", "please set alarm", "i want an alarm", "i need to wake",
	}
	reminderPhrases = []string{"remind me", "set a reminder", "reminder"}
	newsKeywords    = []string{"news", "headlines", "updates", "latest news", "top news", "todays headlines"}
	triviaKeywords  = []string{"trivia", "quiz", "question", "fun fact", "lets play"}

	shoppingLists        = []string{"shopping list", "grocery list"}
	shoppingAddVerbs     = []string{"add", "buy", "put"}
	shoppingRemoveVerbs  = []string{"remove", "delete", "take off"}
	shoppingClearVerbs   = []string{"clear"}
	shoppingCheckPhrases = []string{
		"what is on", "whats on", "show", "list", "display", "read", "check", "tell me whats", "tell me what is",
	}

	calendarPhrases = []string{
		"add to calendar", "schedule", "put on calendar", "calendar event",
		"add meeting", "schedule meeting", "put event", "calendar reminder", "log event",
	}
	factPhrases = []string{
		"what is", "who is", "define", "tell me about", "where is",
		"when did", "how many", "how much", "how big", "capital of",
		"how far", "who invented", "explain",
	}
	mathKeywords = []string{
		"plus", "minus", "times", "divided", "multiply", "subtract",
		"equals", "calculate", "mod", "sqrt", "over",
	}
)

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// rules in precedence order.  Alarm-specific phrases lead so "set alarm
// for the morning news" reads as an alarm, and the generic "alarm"
// substring is only consulted within the alarm rule itself.  Shopping
// sub-actions are disambiguated by verb before the retrieval phrasing.
var rules = []rule{
	{
		domain:    "alarm",
		threshold: func(t Thresholds) float64 { return t.Alarm },
		target:    intent.SetAlarm,
		match: func(text string) bool {
			return containsAny(text, alarmPhrases) || strings.Contains(text, "alarm")
		},
	},
	{
		domain:    "reminder",
		threshold: func(t Thresholds) float64 { return t.Reminder },
		target:    intent.SetReminder,
		match:     func(text string) bool { return containsAny(text, reminderPhrases) },
	},
	{
		domain:    "shopping",
		threshold: func(t Thresholds) float64 { return t.Shopping },
		target:    intent.AddToShoppingList,
		match: func(text string) bool {
			return containsAny(text, shoppingAddVerbs) && containsAny(text, shoppingLists)
		},
	},
	{
		domain:    "shopping",
		threshold: func(t Thresholds) float64 { return t.Shopping },
		target:    intent.RemoveFromShoppingList,
		match: func(text string) bool {
			return containsAny(text, shoppingRemoveVerbs) && containsAny(text, shoppingLists)
		},
	},
	{
		domain:    "shopping",
		threshold: func(t Thresholds) float64 { return t.Shopping },
		target:    intent.ClearShoppingList,
		match: func(text string) bool {
			return containsAny(text, shoppingClearVerbs) && containsAny(text, shoppingLists)
		},
	},
	{
		domain:    "shopping",
		threshold: func(t Thresholds) float64 { return t.Shopping },
		target:    intent.GetShoppingList,
		match: func(text string) bool {
			return containsAny(text, shoppingCheckPhrases) && containsAny(text, shoppingLists)
		},
	},
	{
		domain:    "trivia",
		threshold: func(t Thresholds) float64 { return t.Trivia },
		target:    intent.PlayTrivia,
		match:     func(text string) bool { return containsAny(text, triviaKeywords) },
	},
	{
		domain:    "news",
		threshold: func(t Thresholds) float64 { return t.News },
		target:    intent.GetNews,
		match:     func(text string) bool { return containsAny(text, newsKeywords) },
	},
	{
		domain:    "calendar",
		threshold: func(t Thresholds) float64 { return t.Calendar },
		target:    intent.CalendarEvent,
		match:     func(text string) bool { return containsAny(text, calendarPhrases) },
	},
	{
		domain:    "calorie",
		threshold: func(t Thresholds) float64 { return t.Calorie },
		target:    intent.CalorieInfo,
		match:     func(text string) bool { return strings.Contains(text, "calorie") },
	},
	{
		domain:    "fact",
		threshold: func(t Thresholds) float64 { return t.Fact },
		target:    intent.GetFact,
		match:     func(text string) bool { return containsAny(text, factPhrases) },
	},
	{
		domain:    "math",
		threshold: func(t Thresholds) float64 { return t.Terminal },
		target:    intent.GetFact,
		match:     func(text string) bool { return containsAny(text, mathKeywords) },
	},
}

// Cascade resolves turns the classifier could not.  Immutable after
// construction and safe for concurrent use.
type Cascade struct {
	thresholds     Thresholds
	corpus         *corpus.Corpus
	genericEnabled bool
}

// New creates a Cascade.  corpus may be nil, which disables the fuzzy
// stage.  genericEnabled gates the terminal open-domain stage.
func New(t Thresholds, c *corpus.Corpus, genericEnabled bool) *Cascade {
	return &Cascade{thresholds: t, corpus: c, genericEnabled: genericEnabled}
}

// needsRule reports whether the keyword rule gate passes: classifier
// output is missing, unknown, or below the rule's domain threshold.
func needsRule(classified intent.Intent, confidence, threshold float64) bool {
	return classified == "" || classified == intent.Unknown || confidence < threshold
}

// Resolve applies the cascade to one turn.  classified is the already
// normalized classifier intent (Unknown when classification failed),
// confidence its score, and rawText the original utterance.
//
// Resolve never fails; the worst outcome is an Unknown resolution with
// Generic set when the open-domain stage is enabled.
func (c *Cascade) Resolve(classified intent.Intent, confidence float64, rawText string) Resolution {
	cleaned := corpus.Clean(rawText)

	// --- 1. Domain keyword heuristics ---------------------------------
	for _, r := range rules {
		if !needsRule(classified, confidence, r.threshold(c.thresholds)) {
			continue
		}
		if r.match(cleaned) {
			slog.Debug("fallback: keyword rule matched",
				"domain", r.domain, "intent", r.target, "text", cleaned)
			return Resolution{
				Intent:       r.target,
				Confidence:   confidence,
				UsedFallback: true,
				Stage:        StageKeyword,
			}
		}
	}

	// A classifier intent that no rule overrode stands as-is.
	if classified != "" && classified != intent.Unknown {
		return Resolution{Intent: classified, Confidence: confidence, Stage: StageClassifier}
	}

	// --- 2. Labeled-corpus fuzzy match --------------------------------
	if c.corpus != nil {
		if label, score, ok := c.corpus.Lookup(cleaned); ok && label != intent.Unknown {
			slog.Debug("fallback: corpus match", "intent", label, "score", score)
			return Resolution{
				Intent:       label,
				Confidence:   score,
				UsedFallback: true,
				Stage:        StageCorpus,
			}
		}
	}

	// --- 3. Generic open-domain fallback ------------------------------
	if c.genericEnabled {
		return Resolution{
			Intent:       intent.Unknown,
			UsedFallback: true,
			Stage:        StageGeneric,
			Generic:      true,
		}
	}
	return Resolution{
		Intent:       intent.Unknown,
		UsedFallback: true,
		Stage:        StageNone,
	}
}
