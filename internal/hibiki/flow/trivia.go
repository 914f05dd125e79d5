package flow

import (
	"math/rand"
	"sync"

	"github.com/bdobrica/Hibiki/internal/hibiki/session"
	"github.com/bdobrica/Hibiki/internal/hibiki/trivia"
)

// Trivia flow responses.
const (
	noQuestionPending = "No trivia question has been asked yet. Say 'Let's play trivia' to start."
	noQuestionsLoaded = "No trivia questions are available right now."
	promptNext        = "You could say something like, 'Tell me the next trivia question.'"
)

// Trivia runs the single-question trivia exchange: starting the flow
// stores one random question on the session; an answer attempt consumes
// it whether correct or not.
type Trivia struct {
	sessions *session.Store
	bank     *trivia.Bank

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTrivia creates the trivia flow controller.  rng may be nil for an
// unseeded source.
func NewTrivia(sessions *session.Store, bank *trivia.Bank, rng *rand.Rand) *Trivia {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Trivia{sessions: sessions, bank: bank, rng: rng}
}

// Handle advances the trivia flow for one turn.  A turn that arrives
// while a question is pending is treated as an answer attempt; otherwise
// a new question starts the game.
func (t *Trivia) Handle(sessionID, rawText string) string {
	if t.Pending(sessionID) {
		return t.answer(sessionID, rawText)
	}
	return t.Start(sessionID)
}

// Start picks a question uniformly at random and stores it as the
// session's pending question.
func (t *Trivia) Start(sessionID string) string {
	t.mu.Lock()
	q, ok := t.bank.Pick(t.rng)
	t.mu.Unlock()
	if !ok {
		return noQuestionsLoaded
	}

	t.sessions.SetQuestion(sessionID, session.PendingQuestion{
		Prompt:       q.Prompt,
		Options:      q.Options,
		CorrectIndex: q.CorrectIndex(),
	})
	return q.Format()
}

// Answer scores an answer attempt against the pending question.  The
// question is cleared regardless of the outcome; with no question
// pending the user is pointed at starting one.
func (t *Trivia) Answer(sessionID, rawText string) string {
	return t.answer(sessionID, rawText)
}

func (t *Trivia) answer(sessionID, rawText string) string {
	pq, ok := t.sessions.TakeQuestion(sessionID)
	if !ok {
		return noQuestionPending
	}

	q := trivia.Question{Prompt: pq.Prompt, Options: pq.Options}
	if pq.CorrectIndex >= 0 && pq.CorrectIndex < len(pq.Options) {
		q.Answer = pq.Options[pq.CorrectIndex]
	}

	if trivia.Score(q, rawText) {
		return "Correct! Well done. " + promptNext
	}
	return "Oops, the correct answer was '" + q.Answer + "'. " + promptNext
}

// Pending reports whether the session has a question awaiting an answer.
func (t *Trivia) Pending(sessionID string) bool {
	return t.sessions.GetOrCreate(sessionID).PendingQuestion != nil
}
