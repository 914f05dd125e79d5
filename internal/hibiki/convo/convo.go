// Package convo provides the canned conversational responses for intents
// that need no collaborator: greetings, small talk, help, jokes, and the
// current time.
package convo

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bdobrica/Hibiki/internal/hibiki/intent"
)

// Apology is the single default response for intents without a handler.
const Apology = "Sorry, I'm not sure how to help with that yet. Try asking about the weather, your shopping list, reminders, or say 'let's play trivia'."

// EmptyInput is returned for blank or whitespace-only utterances, before
// any classification happens.
const EmptyInput = "I didn't catch anything. Could you please say something?"

var canned = map[intent.Intent][]string{
	intent.Greeting: {
		"Hello! How can I help you today?",
		"Hey there! What can I do for you?",
		"Hi! Ask me about the weather, your lists, or let's play trivia.",
	},
	intent.Goodbye: {
		"Goodbye! Talk to you soon.",
		"See you later!",
		"Bye for now. I'll be here when you need me.",
	},
	intent.HowAreYou: {
		"I'm functioning perfectly! How about you?",
		"Better now that we're chatting!",
		"I'm great! What's on your mind?",
		"Feeling sharp as ever!",
	},
	intent.TellMeAboutYou: {
		"I'm Hibiki, your voice assistant. I handle weather, news, reminders, shopping lists, and trivia.",
		"I'm a friendly assistant that keeps track of your reminders, lists, and the occasional trivia game.",
	},
	intent.BotFeelings: {
		"I feel useful when I get to help you!",
		"Running smoothly and happy to chat.",
	},
	intent.SmallTalk: {
		"I'm always here if you want to chat!",
		"Let's talk about anything you like.",
		"You can ask me to set reminders, check the weather, or just chat!",
		"What would you like to do today?",
	},
	intent.Help: {
		"I can check the weather, read the news, manage your shopping list, set reminders and alarms, answer questions, and play trivia. What would you like?",
		"Try things like 'what's the weather', 'add milk to my shopping list', 'remind me to call mom in 10 minutes', or 'let's play trivia'.",
	},
	intent.TellJoke: {
		"Why don't scientists trust atoms? Because they make up everything!",
		"I told my charger a joke. It lost power laughing.",
		"Why did the scarecrow win an award? He was outstanding in his field.",
		"What do you call a fish without eyes? A fsh.",
	},
	intent.Unknown: {
		Apology,
	},
}

// timeFormats are the rotating phrasings for the current-time response.
var timeFormats = []func(time.Time) string{
	func(t time.Time) string { return fmt.Sprintf("The current time is %s", t.Format("3:04 PM")) },
	func(t time.Time) string { return fmt.Sprintf("It's now %s", t.Format("15:04")) },
	func(t time.Time) string { return fmt.Sprintf("Right now, it's %s", t.Format("3:04 PM")) },
}

// Responder serves canned responses with a small amount of phrasing
// variety.  Safe for concurrent use.
type Responder struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewResponder creates a Responder.  Both arguments may be nil, which
// selects the package-global rand source and the wall clock.
func NewResponder(rng *rand.Rand, now func() time.Time) *Responder {
	if now == nil {
		now = time.Now
	}
	return &Responder{rng: rng, now: now}
}

// Covers reports whether in is answered from the canned sets (the
// current-time intent included).
func (r *Responder) Covers(in intent.Intent) bool {
	if in == intent.TimeNow {
		return true
	}
	_, ok := canned[in]
	return ok
}

// Respond returns a response for in, or the default apology when the
// intent has no canned set.
func (r *Responder) Respond(in intent.Intent) string {
	if in == intent.TimeNow {
		return r.pickTime()
	}
	set, ok := canned[in]
	if !ok {
		return Apology
	}
	return set[r.intn(len(set))]
}

func (r *Responder) pickTime() string {
	return timeFormats[r.intn(len(timeFormats))](r.now())
}

func (r *Responder) intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rng != nil {
		return r.rng.Intn(n)
	}
	return rand.Intn(n)
}
