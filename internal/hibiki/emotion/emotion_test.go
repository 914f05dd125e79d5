package emotion_test

import (
	"math/rand"
	"testing"

	"github.com/bdobrica/Hibiki/internal/hibiki/emotion"
)

func TestDetect(t *testing.T) {
	d := emotion.NewDetector(rand.New(rand.NewSource(1)))

	cases := []struct {
		text string
		want emotion.Label
	}{
		{"I feel so sad today", emotion.Sad},
		{"feeling lonely tonight", emotion.Sad},
		{"this is awesome", emotion.Happy},
		{"I am furious about this", emotion.Angry},
		{"so exhausted after work", emotion.Tired},
		{"really worried about tomorrow", emotion.Anxious},
		{"set a reminder for five", emotion.Neutral},
		{"", emotion.Neutral},
	}
	for _, tc := range cases {
		if got := d.Detect(tc.text); got != tc.want {
			t.Errorf("Detect(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestDetect_FirstRuleWinsOnMixedAffect(t *testing.T) {
	d := emotion.NewDetector(rand.New(rand.NewSource(1)))
	if got := d.Detect("happy on the outside but sad inside"); got != emotion.Sad {
		t.Errorf("mixed affect = %q, want sad", got)
	}
}

func TestOverriding(t *testing.T) {
	for _, l := range []emotion.Label{emotion.Sad, emotion.Fear, emotion.Anxious, emotion.Lonely, emotion.Depressed} {
		if !emotion.Overriding(l) {
			t.Errorf("Overriding(%q) = false, want true", l)
		}
	}
	for _, l := range []emotion.Label{emotion.Neutral, emotion.Happy, emotion.Angry, emotion.Tired} {
		if emotion.Overriding(l) {
			t.Errorf("Overriding(%q) = true, want false", l)
		}
	}
}

func TestHistory_Bounded(t *testing.T) {
	d := emotion.NewDetector(rand.New(rand.NewSource(1)))
	for i := 0; i < 8; i++ {
		d.Detect("i am happy")
	}
	d.Detect("i am sad")

	h := d.History()
	if len(h) != 5 {
		t.Fatalf("history length = %d, want 5", len(h))
	}
	if h[len(h)-1] != emotion.Sad {
		t.Errorf("latest reading = %q, want sad", h[len(h)-1])
	}
	if d.Current() != emotion.Sad {
		t.Errorf("Current = %q, want sad", d.Current())
	}
}

func TestRespond_NonEmptyForEveryAffect(t *testing.T) {
	d := emotion.NewDetector(rand.New(rand.NewSource(1)))
	for _, l := range []emotion.Label{
		emotion.Neutral, emotion.Sad, emotion.Happy, emotion.Angry,
		emotion.Tired, emotion.Anxious, emotion.Fear, emotion.Lonely, emotion.Depressed,
	} {
		if got := d.Respond(l); got == "" {
			t.Errorf("Respond(%q) returned empty string", l)
		}
	}
}
