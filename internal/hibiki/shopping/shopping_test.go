package shopping_test

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
	"github.com/bdobrica/Hibiki/internal/hibiki/shopping"
	"github.com/bdobrica/Hibiki/internal/hibiki/store"
)

func newTestEngine(t *testing.T) *shopping.Engine {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "hibiki-shopping-test-*.db")
	if err != nil {
		t.Fatalf("create temp db file: %v", err)
	}
	f.Close()

	st, err := store.New(f.Name())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return shopping.New(st)
}

func TestExtractItemsFromEntities(t *testing.T) {
	ents := entity.Bag{
		"item": {{Value: "milk"}, {Value: "Eggs"}},
	}
	got := shopping.ExtractItems("add milk and eggs to my list", ents)
	want := []string{"milk", "eggs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractItemsFromUtterance(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{"add milk and eggs to my shopping list", []string{"milk", "eggs"}},
		{"put bread, cheese and olive oil on the list", []string{"bread", "cheese", "olive oil"}},
		{"remove milk from my list", []string{"milk"}},
		{"I need rice with beans", []string{"rice", "beans"}},
		{"add milk and milk and milk", []string{"milk"}},
	}
	for _, tc := range cases {
		got := shopping.ExtractItems(tc.text, nil)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ExtractItems(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestAddListRemoveClear(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	added, err := eng.Add(ctx, "user-a", []string{"milk", "eggs"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("added %d items, want 2", len(added))
	}

	items, err := eng.List(ctx, "user-a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(items, []string{"milk", "eggs"}) {
		t.Errorf("unexpected list: %v", items)
	}

	has, err := eng.Has(ctx, "user-a", "Milk")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Error("expected milk on the list")
	}

	removed, err := eng.Remove(ctx, "user-a", "eggs")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed != "eggs" {
		t.Errorf("removed %q, want eggs", removed)
	}

	if _, err := eng.Remove(ctx, "user-a", "caviar"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}

	n, err := eng.Clear(ctx, "user-a")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 1 {
		t.Errorf("cleared %d items, want 1", n)
	}
}

func TestListsAreSessionScoped(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.Add(ctx, "user-a", []string{"milk"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	other, err := eng.List(ctx, "user-b")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected empty list for other session, got %v", other)
	}
}
