// Package intent defines the canonical intent vocabulary and the
// normalisation layer that maps raw NLU labels onto it.
//
// Upstream classifiers emit labels in several historical spellings
// ("wit$get_weather", "add_to_grocery_list", "cancel_alarm", ...).
// Everything downstream of this package (fallback cascade, flow
// controller, dispatch table) speaks only canonical intents, so
// normalisation happens exactly once per turn, at the boundary.
package intent

// Intent is a canonical intent label.  The zero value is not a valid
// intent; use Unknown for "we could not tell".
type Intent string

// Canonical intents understood by the dispatcher.  Handlers are registered
// against these values, never against raw NLU labels.
const (
	Unknown Intent = "unknown"

	// Conversational.
	Greeting       Intent = "greeting"
	Goodbye        Intent = "goodbye"
	HowAreYou      Intent = "how_are_you"
	TellMeAboutYou Intent = "tell_me_about_you"
	BotFeelings    Intent = "bot_feelings"
	SmallTalk      Intent = "small_talk"
	Help           Intent = "help"

	// Content lookups.
	GetWeather    Intent = "get_weather"
	GetNews       Intent = "get_news"
	TimeNow       Intent = "time_now"
	TellJoke      Intent = "tell_joke"
	GetFact       Intent = "get_fact"
	CalorieInfo   Intent = "calorie_info"
	GetRecipe     Intent = "get_recipe"
	SuggestRecipe Intent = "suggest_recipe"
	CalendarEvent Intent = "calendar_event"

	// Reminders and alarms.
	SetReminder    Intent = "set_reminder"
	DeleteReminder Intent = "delete_reminder"
	ListReminders  Intent = "list_reminders"
	SetAlarm       Intent = "set_alarm"
	StopAlarm      Intent = "stop_alarm"
	ListAlarms     Intent = "list_alarms"

	// Shopping list.
	AddToShoppingList      Intent = "add_to_shopping_list"
	RemoveFromShoppingList Intent = "remove_from_shopping_list"
	GetShoppingList        Intent = "get_shopping_list"
	CheckShoppingList      Intent = "check_shopping_list"
	ClearShoppingList      Intent = "clear_shopping_list"

	// Trivia.
	PlayTrivia   Intent = "play_trivia"
	AnswerTrivia Intent = "answer_trivia"

	// SentimentReport is synthetic: the NLU layer never produces it.
	// The dispatcher substitutes it when the emotion override fires,
	// so interaction logs record why normal routing was bypassed.
	SentimentReport Intent = "sentiment_report"
)

// canonical is the closed set of intents handlers may be registered
// against.
var canonical = map[Intent]struct{}{
	Unknown:                {},
	Greeting:               {},
	Goodbye:                {},
	HowAreYou:              {},
	TellMeAboutYou:         {},
	BotFeelings:            {},
	SmallTalk:              {},
	Help:                   {},
	GetWeather:             {},
	GetNews:                {},
	TimeNow:                {},
	TellJoke:               {},
	GetFact:                {},
	CalorieInfo:            {},
	GetRecipe:              {},
	SuggestRecipe:          {},
	CalendarEvent:          {},
	SetReminder:            {},
	DeleteReminder:         {},
	ListReminders:          {},
	SetAlarm:               {},
	StopAlarm:              {},
	ListAlarms:             {},
	AddToShoppingList:      {},
	RemoveFromShoppingList: {},
	GetShoppingList:        {},
	CheckShoppingList:      {},
	ClearShoppingList:      {},
	PlayTrivia:             {},
	AnswerTrivia:           {},
	SentimentReport:        {},
}

// IsCanonical reports whether in belongs to the canonical vocabulary.
// Labels outside the vocabulary are still routable (they fall through to
// the dispatcher's default handler); this predicate exists so startup
// validation can reject alias-table targets that are typos rather than
// intents.
func IsCanonical(in Intent) bool {
	_, ok := canonical[in]
	return ok
}

// String implements fmt.Stringer.
func (in Intent) String() string { return string(in) }
