package dispatch

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
	"github.com/bdobrica/Hibiki/internal/hibiki/flow"
	"github.com/bdobrica/Hibiki/internal/hibiki/shopping"
)

// Utterance scrubbing for the slot-bearing handlers.  Entities win when
// the classifier produced them; these regexes are the degraded path for
// keyword-routed turns that never saw the classifier.
var (
	cityPhrase       = regexp.MustCompile(`(?i)\b(?:in|for|at)\s+([a-z][a-z .'-]*?)\s*(?:today|right now|now|please)?\s*[?.!]*$`)
	caloriePhrase    = regexp.MustCompile(`(?i)calories?\s+(?:are\s+|is\s+)?(?:in|for|of)\s+(.+?)\s*[?.!]*$`)
	dishPhrase       = regexp.MustCompile(`(?i)(?:how\s+(?:do|can)\s+i\s+(?:make|cook)|how\s+to\s+(?:make|cook)|recipe\s+for|make)\s+(.+?)\s*[?.!]*$`)
	ingredientPhrase = regexp.MustCompile(`(?i)(?:with|using|from)\s+(.+?)\s*[?.!]*$`)
	reminderRef      = regexp.MustCompile(`(?i)\b(delete|remove|cancel|the|my|that|a|reminder|to|about)\b`)
	reminderNumber   = regexp.MustCompile(`#?(\d+)`)
	leadingArticle   = regexp.MustCompile(`(?i)^(?:a|an|the|some)\s+`)
	multiSpace       = regexp.MustCompile(`\s+`)
)

// extractCity resolves the weather city from entities or the utterance.
func extractCity(text string, ents entity.Bag) string {
	if city := ents.FirstText(entity.KindLocation); city != "" {
		return city
	}
	if m := cityPhrase.FindStringSubmatch(text); m != nil {
		city := strings.TrimSpace(m[1])
		if city != "" && !strings.EqualFold(city, "the weather") {
			return city
		}
	}
	return ""
}

// extractCountry resolves the news country, defaulting to empty (global).
func extractCountry(text string, ents entity.Bag) string {
	if country := ents.FirstText(entity.KindCountry); country != "" {
		return country
	}
	if country := ents.FirstText(entity.KindLocation); country != "" {
		return country
	}
	if m := cityPhrase.FindStringSubmatch(text); m != nil {
		c := strings.TrimSpace(m[1])
		if !strings.EqualFold(c, "the news") {
			return c
		}
	}
	return ""
}

// extractFood resolves the calorie-lookup food phrase.
func extractFood(text string, ents entity.Bag) string {
	if food := ents.FirstText(entity.KindFood); food != "" {
		return food
	}
	if m := caloriePhrase.FindStringSubmatch(text); m != nil {
		return leadingArticle.ReplaceAllString(strings.TrimSpace(m[1]), "")
	}
	return ""
}

// extractDish resolves the recipe dish name.
func extractDish(text string, ents entity.Bag) string {
	if dish := ents.FirstText(entity.KindDish); dish != "" {
		return dish
	}
	if m := dishPhrase.FindStringSubmatch(text); m != nil {
		return leadingArticle.ReplaceAllString(strings.TrimSpace(m[1]), "")
	}
	return ""
}

// extractIngredients resolves the suggestion ingredients, comma joined.
func extractIngredients(text string, ents entity.Bag) string {
	if parts := ents.Texts(entity.KindIngredient); len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if m := ingredientPhrase.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractReminderRef resolves a delete-reminder target: a numeric id
// when the utterance carries one, otherwise a task phrase.
func extractReminderRef(text string) (id int64, phrase string) {
	if m := reminderNumber.FindStringSubmatch(text); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return n, ""
		}
	}

	cleaned := reminderRef.ReplaceAllString(text, " ")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	return 0, strings.TrimSpace(cleaned)
}

// extractItems resolves shopping items; the shopping package owns the
// splitting rules.
func extractItems(text string, ents entity.Bag) []string {
	return shopping.ExtractItems(text, ents)
}

// extractAlarmTime resolves an alarm time with the reminder flow's
// shared extraction rules.
func extractAlarmTime(d *Dispatcher, text string, ents entity.Bag) (time.Time, bool) {
	return flow.ExtractTime(text, ents, d.now())
}
