package nlu_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
	"github.com/bdobrica/Hibiki/internal/hibiki/nlu"
)

func TestWitClassify_MapsIntentAndEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "remind me to call mom" {
			t.Errorf("q = %q", got)
		}
		w.Write([]byte(`{
			"intents": [{"name": "set_reminder", "confidence": 0.93}],
			"entities": {
				"task:task": [{"value": "call mom", "body": "call mom", "confidence": 0.9}],
				"wit$datetime:datetime": [{"value": {"value": "2026-08-28T18:00:00Z"}, "body": "at six"}]
			}
		}`))
	}))
	defer srv.Close()

	c := nlu.NewWit(nlu.WitConfig{Token: "test-token", BaseURL: srv.URL})
	res, err := c.Classify(context.Background(), "remind me to call mom")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Label != "set_reminder" || res.Confidence != 0.93 {
		t.Errorf("result = %q %v", res.Label, res.Confidence)
	}
	if got := res.Entities.FirstText(entity.KindTask); got != "call mom" {
		t.Errorf("task entity = %q", got)
	}
	if got := res.Entities.FirstText(entity.KindDatetime); got != "2026-08-28T18:00:00Z" {
		t.Errorf("datetime entity = %q", got)
	}
}

func TestWitClassify_NoIntentIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"intents": [], "entities": {}}`))
	}))
	defer srv.Close()

	c := nlu.NewWit(nlu.WitConfig{Token: "t", BaseURL: srv.URL})
	res, err := c.Classify(context.Background(), "mumble mumble")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Label != "" || res.Confidence != 0 {
		t.Errorf("expected empty result, got %q %v", res.Label, res.Confidence)
	}
}

func TestWitClassify_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := nlu.NewWit(nlu.WitConfig{Token: "t", BaseURL: srv.URL})
	_, err := c.Classify(context.Background(), "hello")
	if !errors.Is(err, nlu.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestWitClassify_EmptyInputShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := nlu.NewWit(nlu.WitConfig{Token: "t", BaseURL: srv.URL})
	res, err := c.Classify(context.Background(), "")
	if err != nil || res.Label != "" {
		t.Fatalf("empty input: %v %v", res, err)
	}
	if called {
		t.Error("empty input must not reach the API")
	}
}
