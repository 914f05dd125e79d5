package flow

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
)

var relativePhrase = regexp.MustCompile(`(?i)in (\d+)\s*(minutes?|hours?)`)

// parser is the shared natural-language date parser.  when.Parser is
// read-only after construction and safe for concurrent use.
var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// extractTime resolves the reminder time from a turn, strictly in the
// future relative to now.  Three attempts, first hit wins:
//
//  1. an explicit datetime entity (ISO-8601 from the classifier)
//  2. natural-language parsing over the full utterance
//  3. a relative phrase like "in 10 minutes" / "in 2 hours"
//
// A time that parses to now-or-earlier is rejected, so the flow keeps
// prompting instead of accepting a past-dated reminder.
func extractTime(text string, ents entity.Bag, now time.Time) (time.Time, bool) {
	return ExtractTime(text, ents, now)
}

// ExtractTime resolves a strictly-future time from an utterance and its
// entities.  The alarm handler shares the reminder flow's extraction
// rules through this entry point.
func ExtractTime(text string, ents entity.Bag, now time.Time) (time.Time, bool) {
	if raw := ents.FirstText(entity.KindDatetime); raw != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000-07:00"} {
			if at, err := time.Parse(layout, raw); err == nil {
				if at.After(now) {
					return at, true
				}
				break
			}
		}
	}

	if res, err := parser.Parse(text, now); err == nil && res != nil {
		if res.Time.After(now) {
			return res.Time, true
		}
	}

	if m := relativePhrase.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			d := time.Duration(n) * time.Minute
			if strings.HasPrefix(strings.ToLower(m[2]), "hour") {
				d = time.Duration(n) * time.Hour
			}
			return now.Add(d), true
		}
	}

	return time.Time{}, false
}

var (
	reminderTrigger = regexp.MustCompile(`(?i)remind me( to)?`)
	relativeInTask  = regexp.MustCompile(`(?i)\bin \d+ (minutes?|hours?)\b`)
	tomorrowWord    = regexp.MustCompile(`(?i)\btomorrow\b`)
	atWord          = regexp.MustCompile(`(?i)\bat\b`)
	// A clock shape requires minutes or a meridiem; a bare number is a
	// quantity inside the task ("take 2 pills"), not a time.
	clockTime = regexp.MustCompile(`(?i)\b\d{1,2}(:\d{2}\s*(am|pm)?|\s*(am|pm))\b`)
	spaces          = regexp.MustCompile(`\s+`)
)

// extractTask resolves the reminder task from a turn: an explicit task
// entity wins (longest span), otherwise the utterance is cleaned of
// trigger phrases and time expressions.  Returns "" when nothing
// task-like remains; the caller prompts instead.
func extractTask(text string, ents entity.Bag) string {
	if t := ents.LongestText(entity.KindTask); t != "" {
		return strings.TrimSpace(t)
	}
	if t := ents.LongestText(entity.KindReminder); t != "" {
		return strings.TrimSpace(t)
	}

	task := reminderTrigger.ReplaceAllString(text, "")
	task = relativeInTask.ReplaceAllString(task, "")
	task = tomorrowWord.ReplaceAllString(task, "")
	task = atWord.ReplaceAllString(task, "")
	task = clockTime.ReplaceAllString(task, "")
	task = spaces.ReplaceAllString(task, " ")
	task = strings.TrimSpace(task)
	task = strings.TrimPrefix(task, "to ")
	return strings.TrimSpace(task)
}
