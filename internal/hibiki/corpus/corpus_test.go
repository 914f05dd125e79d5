package corpus_test

import (
	"strings"
	"testing"

	"github.com/bdobrica/Hibiki/internal/hibiki/corpus"
	"github.com/bdobrica/Hibiki/internal/hibiki/intent"
)

func TestLoad_EmbeddedDataIsValid(t *testing.T) {
	c, err := corpus.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("embedded corpus is empty")
	}
}

func TestLookup_ExactMatch(t *testing.T) {
	c, err := corpus.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	label, score, ok := c.Lookup("What time is it?")
	if !ok || label != intent.TimeNow {
		t.Fatalf("Lookup = %q, %v", label, ok)
	}
	if score != 1.0 {
		t.Errorf("exact match score = %v, want 1.0", score)
	}
}

func TestLookup_ApproximateMatch(t *testing.T) {
	c, err := corpus.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// One transcription slip away from "tell me a joke".
	label, score, ok := c.Lookup("tell me a jokes")
	if !ok || label != intent.TellJoke {
		t.Fatalf("Lookup = %q, %v (score %v)", label, ok, score)
	}
	if score >= 1.0 || score < 0.85 {
		t.Errorf("approximate score = %v, want [0.85, 1)", score)
	}
}

func TestLookup_MissBelowCutoff(t *testing.T) {
	c, err := corpus.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if label, _, ok := c.Lookup("xylophone quantum zebra paradox"); ok {
		t.Errorf("expected miss, got %q", label)
	}
}

func TestLookup_EmptyInput(t *testing.T) {
	c, err := corpus.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, _, ok := c.Lookup("  !!! "); ok {
		t.Error("punctuation-only input should miss")
	}
}

func TestParse_RejectsUnknownIntentLabel(t *testing.T) {
	data := []byte("utterances:\n  - text: launch the rocket\n    intent: lanch_rocket\n")
	if _, err := corpus.Parse(data, corpus.DefaultCutoff); err == nil {
		t.Fatal("expected error for non-canonical intent label")
	}
}

func TestParse_RejectsMalformedShape(t *testing.T) {
	cases := []string{
		"utterances: []\n",
		"utterances:\n  - intent: get_news\n",
		"utterances:\n  - text: hello\n",
	}
	for _, data := range cases {
		if _, err := corpus.Parse([]byte(data), corpus.DefaultCutoff); err == nil {
			t.Errorf("expected schema error for %q", strings.TrimSpace(data))
		}
	}
}

func TestClean(t *testing.T) {
	if got := corpus.Clean("  What's ON my Shopping-List? "); got != "whats on my shoppinglist" {
		t.Errorf("Clean = %q", got)
	}
}
