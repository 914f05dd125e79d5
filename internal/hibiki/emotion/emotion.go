// Package emotion provides a keyword affect detector and the empathetic
// response set used by the dispatch override.
package emotion

import (
	"math/rand"
	"strings"
	"sync"
)

// Label is a detected user affect.
type Label string

const (
	Neutral Label = "neutral"
	Sad     Label = "sad"
	Happy   Label = "happy"
	Angry   Label = "angry"
	Tired   Label = "tired"
	Anxious Label = "anxious"

	// Fear, Lonely and Depressed are not produced by the keyword
	// detector (they collapse into Sad/Anxious), but external affect
	// classifiers emit them, and the dispatch override set includes
	// them.
	Fear      Label = "fear"
	Lonely    Label = "lonely"
	Depressed Label = "depressed"
)

// Overriding reports whether the affect is in the negative set that takes
// dispatch priority over the classified intent.
func Overriding(l Label) bool {
	switch l {
	case Sad, Fear, Anxious, Lonely, Depressed:
		return true
	}
	return false
}

// keyword rules in evaluation order; the first matching rule wins, so a
// message mixing "sad" and "happy" reads as sad.
var rules = []struct {
	label    Label
	keywords []string
}{
	{Sad, []string{"sad", "depressed", "unhappy", "lonely", "down", "blue"}},
	{Happy, []string{"happy", "excited", "glad", "joyful", "great", "awesome"}},
	{Angry, []string{"angry", "mad", "furious", "upset", "pissed"}},
	{Tired, []string{"tired", "sleepy", "exhausted", "fatigued", "drained"}},
	{Anxious, []string{"anxious", "worried", "nervous", "stressed", "panicky"}},
}

// responses per affect; Neutral doubles as the fallback set.
var responses = map[Label][]string{
	Sad: {
		"I'm here for you. Remember, tough times don't last.",
		"Sending you a virtual hug. Want to talk about it?",
		"You're not alone, and things can get better. Let me know if you want a distraction or a fun fact.",
	},
	Happy: {
		"I love seeing you in high spirits!",
		"That's awesome! Keep enjoying your day!",
		"Yay, your happiness is contagious!",
	},
	Angry: {
		"That sounds frustrating. I'm here to listen if you want to talk.",
		"Sometimes venting helps. Do you want to share more?",
		"Take a deep breath. You're stronger than you think.",
	},
	Tired: {
		"Rest is important. Maybe take a short break if you can.",
		"Take it easy, your well-being matters.",
		"It's okay to pause and recharge. Let me know if I can help with anything.",
	},
	Anxious: {
		"Let's take a deep breath together. You're not alone.",
		"You're doing better than you think. Would a fun fact help distract you?",
		"Remember, this feeling will pass. Let me know if you want to chat.",
	},
	Neutral: {
		"I'm here whenever you need me.",
		"Let me know if you'd like to chat or just hang out.",
		"How can I support you today?",
	},
}

const historyLimit = 5

// Detector classifies affect from keywords and tracks a short history so
// the empathetic response follows the most recent reading.  Safe for
// concurrent use.
type Detector struct {
	mu      sync.Mutex
	current Label
	history []Label
	rng     *rand.Rand
}

// NewDetector creates a Detector seeded by rng; a nil rng uses the
// package-global source.
func NewDetector(rng *rand.Rand) *Detector {
	return &Detector{current: Neutral, rng: rng}
}

// Detect classifies text and records the result.
func (d *Detector) Detect(text string) Label {
	lowered := strings.ToLower(text)
	label := Neutral
	for _, r := range rules {
		if containsAny(lowered, r.keywords) {
			label = r.label
			break
		}
	}

	d.mu.Lock()
	d.current = label
	d.history = append(d.history, label)
	if len(d.history) > historyLimit {
		d.history = d.history[1:]
	}
	d.mu.Unlock()
	return label
}

// Current returns the most recently detected affect.
func (d *Detector) Current() Label {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// History returns the recent affect readings, oldest first.
func (d *Detector) History() []Label {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Label(nil), d.history...)
}

// Respond picks an empathetic response for the given affect, falling
// back to the neutral set for affects without one (Fear and friends map
// onto the closest covered set).
func (d *Detector) Respond(l Label) string {
	set, ok := responses[closest(l)]
	if !ok {
		set = responses[Neutral]
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rng != nil {
		return set[d.rng.Intn(len(set))]
	}
	return set[rand.Intn(len(set))]
}

// closest folds externally-sourced affect labels onto the sets above.
func closest(l Label) Label {
	switch l {
	case Lonely, Depressed:
		return Sad
	case Fear:
		return Anxious
	default:
		return l
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
