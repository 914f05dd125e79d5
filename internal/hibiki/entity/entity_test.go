package entity_test

import (
	"testing"

	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
)

func TestBag_NamespacedKindMatching(t *testing.T) {
	bag := entity.Bag{
		"wit$datetime:datetime": {{Value: "2026-08-28T18:00:00Z"}},
		"wit$location":          {{Value: "Tokyo"}},
	}

	if got := bag.FirstText(entity.KindDatetime); got != "2026-08-28T18:00:00Z" {
		t.Errorf("FirstText(datetime) = %q", got)
	}
	if got := bag.FirstText(entity.KindLocation); got != "Tokyo" {
		t.Errorf("FirstText(location) = %q", got)
	}
}

func TestValue_TextFallsBackToBody(t *testing.T) {
	v := entity.Value{Body: "call mom"}
	if got := v.Text(); got != "call mom" {
		t.Errorf("Text() = %q, want body fallback", got)
	}
	v = entity.Value{Value: "call mom tomorrow", Body: "call mom"}
	if got := v.Text(); got != "call mom tomorrow" {
		t.Errorf("Text() = %q, want resolved value", got)
	}
}

func TestBag_LongestText(t *testing.T) {
	bag := entity.Bag{
		"task": {
			{Value: "call"},
			{Body: "call mom about dinner"},
			{Value: "call mom"},
		},
	}
	if got := bag.LongestText(entity.KindTask); got != "call mom about dinner" {
		t.Errorf("LongestText(task) = %q", got)
	}
}

func TestBag_MergeAppendsInOrder(t *testing.T) {
	bag := entity.Bag{
		"item": {{Value: "milk"}},
	}
	bag = bag.Merge(entity.Bag{
		"item": {{Value: "eggs"}, {Value: "bread"}},
		"dish": {{Value: "omelette"}},
	})

	items := bag.Texts(entity.KindItem)
	want := []string{"milk", "eggs", "bread"}
	if len(items) != len(want) {
		t.Fatalf("items = %v, want %v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, items[i], want[i])
		}
	}
	if got := bag.FirstText(entity.KindDish); got != "omelette" {
		t.Errorf("FirstText(dish) = %q", got)
	}
}

func TestBag_MergeIntoNil(t *testing.T) {
	var bag entity.Bag
	bag = bag.Merge(entity.Bag{"topic": {{Value: "jupiter"}}})
	if got := bag.FirstText(entity.KindTopic); got != "jupiter" {
		t.Errorf("FirstText(topic) = %q", got)
	}
}

func TestBag_NilReads(t *testing.T) {
	var bag entity.Bag
	if _, ok := bag.First(entity.KindTask); ok {
		t.Error("First on nil bag should miss")
	}
	if got := bag.FirstText(entity.KindTask); got != "" {
		t.Errorf("FirstText on nil bag = %q", got)
	}
	if vals := bag.Values(entity.KindTask); len(vals) != 0 {
		t.Errorf("Values on nil bag = %v", vals)
	}
}

func TestBag_CloneIsIndependent(t *testing.T) {
	bag := entity.Bag{"item": {{Value: "milk"}}}
	cp := bag.Clone()
	cp["item"][0].Value = "tofu"
	if got := bag.FirstText(entity.KindItem); got != "milk" {
		t.Errorf("original mutated through clone: %q", got)
	}
}
