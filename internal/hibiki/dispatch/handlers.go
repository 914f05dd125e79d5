package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
	"github.com/bdobrica/Hibiki/internal/hibiki/intent"
	"github.com/bdobrica/Hibiki/internal/hibiki/store"
)

// intentHandlers builds the dispatch table.  Canned conversation
// intents are intentionally absent; the default path answers them from
// the convo responder.
func intentHandlers() map[intent.Intent]handler {
	return map[intent.Intent]handler{
		intent.GetWeather: {"fetch the weather", handleWeather},
		intent.GetNews:    {"fetch the news", handleNews},
		intent.GetFact:    {"look that up", handleFact},

		intent.CalorieInfo:   {"fetch the calorie info", handleCalories},
		intent.GetRecipe:     {"find that recipe", handleRecipe},
		intent.SuggestRecipe: {"suggest recipes", handleSuggestRecipes},

		intent.SetReminder:    {"set that reminder", handleSetReminder},
		intent.ListReminders:  {"list your reminders", handleListReminders},
		intent.DeleteReminder: {"delete that reminder", handleDeleteReminder},

		intent.SetAlarm:   {"set that alarm", handleSetAlarm},
		intent.StopAlarm:  {"stop the alarm", handleStopAlarm},
		intent.ListAlarms: {"list your alarms", handleListAlarms},

		intent.AddToShoppingList:      {"update your shopping list", handleAddItems},
		intent.RemoveFromShoppingList: {"update your shopping list", handleRemoveItem},
		intent.GetShoppingList:        {"read your shopping list", handleGetList},
		intent.CheckShoppingList:      {"check your shopping list", handleCheckList},
		intent.ClearShoppingList:      {"clear your shopping list", handleClearList},

		intent.PlayTrivia:   {"start trivia", handlePlayTrivia},
		intent.AnswerTrivia: {"score that answer", handleAnswerTrivia},

		intent.CalendarEvent: {"manage your calendar", handleCalendar},
	}
}

// --- content intents ---

func handleWeather(ctx context.Context, d *Dispatcher, _, text string, ents entity.Bag) (string, error) {
	if d.cfg.Weather == nil {
		return "", errors.New("weather engine not configured")
	}
	city := extractCity(text, ents)
	if city == "" {
		return "Please specify a city to check the weather.", nil
	}
	w, err := d.cfg.Weather.Current(ctx, city)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("The weather in %s is %s with %.0f°C.", w.City, w.Condition, w.TempC), nil
}

func handleNews(ctx context.Context, d *Dispatcher, _, text string, ents entity.Bag) (string, error) {
	if d.cfg.News == nil {
		return "", errors.New("news engine not configured")
	}
	country := extractCountry(text, ents)
	headlines, err := d.cfg.News.TopHeadlines(ctx, country)
	if err != nil {
		return "", err
	}
	if len(headlines) == 0 {
		return "No news found right now.", nil
	}

	var b strings.Builder
	b.WriteString("Top news headlines:\n")
	for i, h := range headlines {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, h.Title, h.Source)
	}
	return strings.TrimSpace(b.String()), nil
}

func handleFact(ctx context.Context, d *Dispatcher, _, text string, _ entity.Bag) (string, error) {
	if d.cfg.Knowledge == nil {
		return "", errors.New("knowledge engine not configured")
	}
	return d.cfg.Knowledge.Answer(ctx, text)
}

func handleCalories(ctx context.Context, d *Dispatcher, _, text string, ents entity.Bag) (string, error) {
	if d.cfg.Calories == nil {
		return "", errors.New("calorie engine not configured")
	}
	food := extractFood(text, ents)
	if food == "" {
		return "Please tell me what food item you're asking about.", nil
	}
	info, err := d.cfg.Calories.Lookup(ctx, food)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s has approximately %d calories.", titleCase(info.Food), info.Calories), nil
}

func handleRecipe(ctx context.Context, d *Dispatcher, _, text string, ents entity.Bag) (string, error) {
	if d.cfg.Cooking == nil {
		return "", errors.New("cooking engine not configured")
	}
	dish := extractDish(text, ents)
	if dish == "" {
		return "What dish would you like a recipe for?", nil
	}
	r, err := d.cfg.Cooking.GetRecipe(ctx, dish)
	if err != nil {
		return "", err
	}
	if r.Instructions == "" {
		return fmt.Sprintf("I found a recipe called %s, but it doesn't include step-by-step instructions.", r.Title), nil
	}
	return fmt.Sprintf("Here's how to make %s: %s", r.Title, r.Instructions), nil
}

func handleSuggestRecipes(ctx context.Context, d *Dispatcher, _, text string, ents entity.Bag) (string, error) {
	if d.cfg.Cooking == nil {
		return "", errors.New("cooking engine not configured")
	}
	ingredients := extractIngredients(text, ents)
	if ingredients == "" {
		return "What ingredients do you have?", nil
	}
	titles, err := d.cfg.Cooking.SuggestRecipes(ctx, ingredients)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return fmt.Sprintf("Sorry, I couldn't find anything with %s.", ingredients), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You can try these recipes using %s:\n", ingredients)
	for _, title := range titles {
		fmt.Fprintf(&b, "- %s\n", title)
	}
	b.WriteString("Want instructions for any of them?")
	return b.String(), nil
}

// --- reminders and alarms ---

func handleSetReminder(ctx context.Context, d *Dispatcher, sessionID, text string, ents entity.Bag) (string, error) {
	if d.cfg.ReminderFlow == nil {
		return "", errors.New("reminder flow not configured")
	}
	return d.cfg.ReminderFlow.Handle(ctx, sessionID, text, ents)
}

func handleListReminders(ctx context.Context, d *Dispatcher, sessionID, _ string, _ entity.Bag) (string, error) {
	if d.cfg.Reminders == nil {
		return "", errors.New("reminder engine not configured")
	}
	rows, err := d.cfg.Reminders.List(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "You don't have any reminders set.", nil
	}

	var b strings.Builder
	b.WriteString("Here are your reminders:\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "#%d: %s on %s\n", r.ID, r.Task, r.RemindAt.Format("Monday at 3:04 PM"))
	}
	return strings.TrimSpace(b.String()), nil
}

func handleDeleteReminder(ctx context.Context, d *Dispatcher, sessionID, text string, _ entity.Bag) (string, error) {
	if d.cfg.Reminders == nil {
		return "", errors.New("reminder engine not configured")
	}

	id, phrase := extractReminderRef(text)

	var (
		deleted *store.Reminder
		err     error
	)
	switch {
	case id > 0:
		deleted, err = d.cfg.Reminders.Delete(ctx, sessionID, id)
	case phrase != "":
		deleted, err = d.cfg.Reminders.DeleteByTask(ctx, sessionID, phrase)
	default:
		return "Which reminder should I delete?", nil
	}

	if errors.Is(err, store.ErrNotFound) {
		return "I couldn't find that reminder.", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted reminder #%d: %s.", deleted.ID, deleted.Task), nil
}

func handleSetAlarm(ctx context.Context, d *Dispatcher, sessionID, text string, ents entity.Bag) (string, error) {
	if d.cfg.Reminders == nil {
		return "", errors.New("alarm engine not configured")
	}

	at, ok := extractAlarmTime(d, text, ents)
	if !ok {
		return "What time should I set the alarm for?", nil
	}

	id, err := d.cfg.Reminders.SetAlarm(ctx, sessionID, at, "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Alarm #%d set for %s.", id, at.Format("3:04 PM on Monday")), nil
}

func handleStopAlarm(ctx context.Context, d *Dispatcher, sessionID, _ string, _ entity.Bag) (string, error) {
	if d.cfg.Reminders == nil {
		return "", errors.New("alarm engine not configured")
	}

	stopped, err := d.cfg.Reminders.StopNextAlarm(ctx, sessionID, d.now())
	if errors.Is(err, store.ErrNotFound) {
		return "You don't have any alarms set.", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Alarm for %s stopped.", stopped.RingAt.Format("3:04 PM")), nil
}

func handleListAlarms(ctx context.Context, d *Dispatcher, sessionID, _ string, _ entity.Bag) (string, error) {
	if d.cfg.Reminders == nil {
		return "", errors.New("alarm engine not configured")
	}
	alarms, err := d.cfg.Reminders.ListAlarms(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if len(alarms) == 0 {
		return "You don't have any alarms set.", nil
	}

	var b strings.Builder
	b.WriteString("Here are your alarms:\n")
	for _, a := range alarms {
		fmt.Fprintf(&b, "#%d: %s\n", a.ID, a.RingAt.Format("3:04 PM on Monday"))
	}
	return strings.TrimSpace(b.String()), nil
}

// --- shopping list ---

func handleAddItems(ctx context.Context, d *Dispatcher, sessionID, text string, ents entity.Bag) (string, error) {
	if d.cfg.Shopping == nil {
		return "", errors.New("shopping engine not configured")
	}
	items := extractItems(text, ents)
	if len(items) == 0 {
		return "What should I add to your shopping list?", nil
	}
	added, err := d.cfg.Shopping.Add(ctx, sessionID, items)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s to your shopping list.", joinNatural(added)), nil
}

func handleRemoveItem(ctx context.Context, d *Dispatcher, sessionID, text string, ents entity.Bag) (string, error) {
	if d.cfg.Shopping == nil {
		return "", errors.New("shopping engine not configured")
	}
	items := extractItems(text, ents)
	if len(items) == 0 {
		return "What should I remove from your shopping list?", nil
	}
	removed, err := d.cfg.Shopping.Remove(ctx, sessionID, items[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("I couldn't find %s on your shopping list.", items[0]), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed %s from your shopping list.", removed), nil
}

func handleGetList(ctx context.Context, d *Dispatcher, sessionID, _ string, _ entity.Bag) (string, error) {
	if d.cfg.Shopping == nil {
		return "", errors.New("shopping engine not configured")
	}
	items, err := d.cfg.Shopping.List(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "Your shopping list is empty.", nil
	}
	return fmt.Sprintf("Your shopping list has: %s.", strings.Join(items, ", ")), nil
}

func handleCheckList(ctx context.Context, d *Dispatcher, sessionID, text string, ents entity.Bag) (string, error) {
	if d.cfg.Shopping == nil {
		return "", errors.New("shopping engine not configured")
	}
	items := extractItems(text, ents)
	if len(items) == 0 {
		return handleGetList(ctx, d, sessionID, text, ents)
	}
	has, err := d.cfg.Shopping.Has(ctx, sessionID, items[0])
	if err != nil {
		return "", err
	}
	if has {
		return fmt.Sprintf("Yes, %s is on your shopping list.", items[0]), nil
	}
	return fmt.Sprintf("No, %s is not on your shopping list.", items[0]), nil
}

func handleClearList(ctx context.Context, d *Dispatcher, sessionID, _ string, _ entity.Bag) (string, error) {
	if d.cfg.Shopping == nil {
		return "", errors.New("shopping engine not configured")
	}
	n, err := d.cfg.Shopping.Clear(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "Your shopping list was already empty.", nil
	}
	return "Cleared your shopping list.", nil
}

// --- trivia ---

func handlePlayTrivia(_ context.Context, d *Dispatcher, sessionID, _ string, _ entity.Bag) (string, error) {
	if d.cfg.TriviaFlow == nil {
		return "", errors.New("trivia flow not configured")
	}
	return d.cfg.TriviaFlow.Start(sessionID), nil
}

func handleAnswerTrivia(_ context.Context, d *Dispatcher, sessionID, text string, _ entity.Bag) (string, error) {
	if d.cfg.TriviaFlow == nil {
		return "", errors.New("trivia flow not configured")
	}
	return d.cfg.TriviaFlow.Answer(sessionID, text), nil
}

// --- calendar ---

func handleCalendar(context.Context, *Dispatcher, string, string, entity.Bag) (string, error) {
	return calendarReply, nil
}

// --- helpers ---

func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
