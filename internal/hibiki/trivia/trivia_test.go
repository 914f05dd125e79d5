package trivia_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/bdobrica/Hibiki/internal/hibiki/trivia"
)

var capital = trivia.Question{
	Prompt:  "What is the capital of France?",
	Options: []string{"Paris", "London", "Rome"},
	Answer:  "Paris",
}

func TestScore(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"paris", true},
		{"Paris", true},
		{"a", true},           // letter A is Paris
		{"A.", true},
		{"b", false},          // letter B is London
		{"B. Paris", true},    // wrong letter, but literal answer present
		{"i think it is paris", true},
		{"london", false},
		{"rome", false},
		{"", false},
		{"no idea", false},
	}
	for _, tc := range cases {
		if got := trivia.Score(capital, tc.input); got != tc.want {
			t.Errorf("Score(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestQuestion_Format(t *testing.T) {
	got := capital.Format()
	for _, want := range []string{"What is the capital of France?", "A. Paris", "B. London", "C. Rome"} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() missing %q:\n%s", want, got)
		}
	}
}

func TestQuestion_CorrectIndex(t *testing.T) {
	if got := capital.CorrectIndex(); got != 0 {
		t.Errorf("CorrectIndex = %d, want 0", got)
	}
	free := trivia.Question{Prompt: "p", Options: []string{"x", "y"}, Answer: "z"}
	if got := free.CorrectIndex(); got != -1 {
		t.Errorf("CorrectIndex for free-form answer = %d, want -1", got)
	}
}

func TestLoad_EmbeddedBankIsValid(t *testing.T) {
	bank, err := trivia.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if bank.Len() == 0 {
		t.Fatal("embedded bank is empty")
	}
	for i := 0; i < bank.Len(); i++ {
		q := bank.At(i)
		if q.CorrectIndex() < 0 {
			t.Errorf("question %q: answer %q not among options %v", q.Prompt, q.Answer, q.Options)
		}
	}
}

func TestBank_Pick(t *testing.T) {
	bank, err := trivia.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	q, ok := bank.Pick(rng)
	if !ok || q.Prompt == "" {
		t.Fatalf("Pick = %+v, %v", q, ok)
	}
}

func TestParse_RejectsMalformedBank(t *testing.T) {
	cases := []string{
		"questions: []\n",
		"questions:\n  - question: q\n    answer: a\n",
		"questions:\n  - question: q\n    options: [only-one]\n    answer: a\n",
	}
	for _, data := range cases {
		if _, err := trivia.Parse([]byte(data)); err == nil {
			t.Errorf("expected schema error for %q", strings.TrimSpace(data))
		}
	}
}
