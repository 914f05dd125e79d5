package intent

import (
	"errors"
	"fmt"
	"strings"
)

// witPrefix is the namespace some classifier backends prepend to their
// built-in intents ("wit$get_weather").  Normalisation strips it before
// alias lookup so backend-builtin and custom labels resolve identically.
const witPrefix = "wit$"

// ErrConflictingAlias is returned by NewTable when two alias entries map
// the same raw label to different canonical intents.
var ErrConflictingAlias = errors.New("conflicting alias mapping")

// ErrUnknownTarget is returned by NewTable when an alias targets a label
// outside the canonical vocabulary.
var ErrUnknownTarget = errors.New("alias target is not a canonical intent")

// Alias is a single raw-label to canonical-intent mapping.  Tables are
// assembled from slices of these rather than a map literal so that
// duplicate raw labels arriving from multiple sources can be detected
// instead of silently last-one-wins merged.
type Alias struct {
	Raw    string
	Target Intent
}

// Table resolves raw classifier labels to canonical intents.  It is
// immutable after construction and safe for concurrent use.
type Table struct {
	byRaw map[string]Intent
}

// NewTable builds a Table from entries.  Raw labels are compared
// case-insensitively.  An exact duplicate (same raw label, same target)
// is tolerated; the same raw label with two different targets fails the
// whole build so a bad deployment is caught at startup rather than
// misrouting turns.
func NewTable(entries []Alias) (*Table, error) {
	byRaw := make(map[string]Intent, len(entries))
	for _, e := range entries {
		raw := strings.ToLower(strings.TrimSpace(e.Raw))
		if raw == "" {
			return nil, fmt.Errorf("alias with empty raw label (target %q)", e.Target)
		}
		if !IsCanonical(e.Target) {
			return nil, fmt.Errorf("%w: %q -> %q", ErrUnknownTarget, raw, e.Target)
		}
		if existing, ok := byRaw[raw]; ok {
			if existing != e.Target {
				return nil, fmt.Errorf("%w: %q -> %q vs %q", ErrConflictingAlias, raw, existing, e.Target)
			}
			continue
		}
		byRaw[raw] = e.Target
	}
	return &Table{byRaw: byRaw}, nil
}

// MustTable is NewTable for static entries known to be valid; it panics
// on error and is intended for package-level defaults and tests.
func MustTable(entries []Alias) *Table {
	t, err := NewTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// Normalize maps a raw classifier label to a canonical intent.
//
//   - empty or whitespace-only input resolves to Unknown
//   - the "wit$" namespace prefix is stripped before lookup (a namespaced
//     label with its own alias entry still wins)
//   - labels without an alias entry pass through unchanged, so a new
//     upstream intent can reach the dispatcher without a table edit
func (t *Table) Normalize(raw string) Intent {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return Unknown
	}
	if target, ok := t.byRaw[label]; ok {
		return target
	}
	if stripped, found := strings.CutPrefix(label, witPrefix); found {
		label = stripped
		if target, ok := t.byRaw[label]; ok {
			return target
		}
	}
	return Intent(label)
}

// Len reports the number of distinct raw labels in the table.
func (t *Table) Len() int { return len(t.byRaw) }

// DefaultAliases is the built-in alias set covering every label the
// supported classifier backends have been observed to emit.  Callers may
// append deployment-specific entries before building the table.
func DefaultAliases() []Alias {
	return []Alias{
		// Weather.
		{"wit$get_weather", GetWeather},
		{"get_weather", GetWeather},
		{"weather_forecast", GetWeather},

		// Shopping list.
		{"add_to_grocery_list", AddToShoppingList},
		{"add_to_shopping_list", AddToShoppingList},
		{"check_grocery_list", CheckShoppingList},
		{"check_shopping_list", CheckShoppingList},
		{"clear_list", ClearShoppingList},
		{"clear_shopping_list", ClearShoppingList},
		{"calendar_integration", GetShoppingList},
		{"get_shopping_list", GetShoppingList},
		{"remove_from_shopping_list", RemoveFromShoppingList},

		// Alarms.
		{"set_alarm", SetAlarm},
		{"alarm", SetAlarm},
		{"cancel_alarm", StopAlarm},
		{"delete_alarm", StopAlarm},
		{"stop_alarm", StopAlarm},
		{"list_alarms", ListAlarms},

		// Reminders.
		{"set_reminder", SetReminder},
		{"reminder", SetReminder},
		{"delete_reminder", DeleteReminder},
		{"cancel_reminder", DeleteReminder},
		{"list_reminders", ListReminders},

		// Trivia.
		{"play_trivia", PlayTrivia},
		{"trivia_question", PlayTrivia},
		{"start_trivia", PlayTrivia},
		{"answer_trivia", AnswerTrivia},

		// Conversational.
		{"greeting", Greeting},
		{"goodbye", Goodbye},
		{"how_are_you", HowAreYou},
		{"tell_me_about_you", TellMeAboutYou},
		{"bot_feelings", BotFeelings},
		{"idle_convo", SmallTalk},
		{"small_talk", SmallTalk},

		// Help, jokes, time.
		{"help", Help},
		{"what_can_you_do", Help},
		{"tell_joke", TellJoke},
		{"time_now", TimeNow},
		{"unknown", Unknown},

		// News.
		{"get_news", GetNews},
		{"news_headlines", GetNews},
		{"top_news", GetNews},
		{"latest_news", GetNews},
		{"today_headlines", GetNews},
		{"todays_headlines", GetNews},
		{"headline_news", GetNews},
		{"tech_news", GetNews},

		// Food and calendar.
		{"calorie_info", CalorieInfo},
		{"get_calorie", CalorieInfo},
		{"get_recipe", GetRecipe},
		{"how_to_make", GetRecipe},
		{"recipe_request", GetRecipe},
		{"suggest_recipe", SuggestRecipe},
		{"how_can_i_cook", SuggestRecipe},
		{"what_can_i_make", SuggestRecipe},
		{"what_can_i_cook", SuggestRecipe},
		{"ingredient_recipe", SuggestRecipe},
		{"cook_with", SuggestRecipe},
		{"make_with", SuggestRecipe},
		{"calendar_event", CalendarEvent},
		{"add_calendar_event", CalendarEvent},

		// Knowledge.
		{"get_fact", GetFact},
		{"general_fact", GetFact},
	}
}
