package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/bdobrica/Hibiki/internal/hibiki/config"
	appstore "github.com/bdobrica/Hibiki/internal/hibiki/store"
)

// newTestStore creates a temporary SQLite database and returns a config.Store
// backed by it.  The database (and its file) are cleaned up when the test ends.
func newTestStore(t *testing.T) config.Store {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "hibiki-config-test-*.db")
	if err != nil {
		t.Fatalf("create temp db file: %v", err)
	}
	f.Close()

	s, err := appstore.New(f.Name())
	if err != nil {
		t.Fatalf("appstore.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return config.New(s)
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing.key")
	if !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestSetAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, config.KeyGenericModel, "gpt-4o-mini"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, config.KeyGenericModel)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "gpt-4o-mini" {
		t.Errorf("got %q, want %q", got, "gpt-4o-mini")
	}
}

func TestSetOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, config.KeyDomainThreshold, "0.6"); err != nil {
		t.Fatalf("Set(1): %v", err)
	}
	if err := store.Set(ctx, config.KeyDomainThreshold, "0.65"); err != nil {
		t.Fatalf("Set(2): %v", err)
	}

	got, err := store.Get(ctx, config.KeyDomainThreshold)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "0.65" {
		t.Errorf("got %q, want %q", got, "0.65")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "temp.key", "x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(ctx, "temp.key"); err != nil {
		t.Fatalf("Delete(1): %v", err)
	}
	if err := store.Delete(ctx, "temp.key"); err != nil {
		t.Fatalf("Delete(2): %v", err)
	}

	_, err := store.Get(ctx, "temp.key")
	if !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got: %v", err)
	}
}

func TestList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil map, got: %v", empty)
	}

	pairs := map[string]string{
		config.KeyDomainThreshold:  "0.6",
		config.KeyGenericRateLimit: "10",
	}
	for k, v := range pairs {
		if err := store.Set(ctx, k, v); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != len(pairs) {
		t.Fatalf("got %d entries, want %d", len(got), len(pairs))
	}
	for k, v := range pairs {
		if got[k] != v {
			t.Errorf("key %q: got %q, want %q", k, got[k], v)
		}
	}
}

func TestFloatOr(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if got := config.FloatOr(ctx, store, config.KeyStrictThreshold, 0.7); got != 0.7 {
		t.Errorf("absent key: got %v, want default 0.7", got)
	}

	if err := store.Set(ctx, config.KeyStrictThreshold, "0.8"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := config.FloatOr(ctx, store, config.KeyStrictThreshold, 0.7); got != 0.8 {
		t.Errorf("stored key: got %v, want 0.8", got)
	}

	if err := store.Set(ctx, config.KeyStrictThreshold, "not-a-number"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := config.FloatOr(ctx, store, config.KeyStrictThreshold, 0.7); got != 0.7 {
		t.Errorf("malformed key: got %v, want default 0.7", got)
	}
}

func TestIntOr(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if got := config.IntOr(ctx, store, config.KeyGenericRateLimit, 10); got != 10 {
		t.Errorf("absent key: got %v, want default 10", got)
	}

	if err := store.Set(ctx, config.KeyGenericRateLimit, "25"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := config.IntOr(ctx, store, config.KeyGenericRateLimit, 10); got != 25 {
		t.Errorf("stored key: got %v, want 25", got)
	}
}
