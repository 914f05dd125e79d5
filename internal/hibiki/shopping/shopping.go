// Package shopping manages the per-session shopping list: item
// extraction from utterances and the persisted list operations.
package shopping

import (
	"context"
	"regexp"
	"strings"

	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
	"github.com/bdobrica/Hibiki/internal/hibiki/store"
)

// Utterance scrubbing for item extraction. Verbs and list references
// are stripped before splitting what remains into items.
var (
	listVerbs     = regexp.MustCompile(`(?i)\b(please|add|put|buy|get|remove|delete|take off|take|need|want|what's|whats|what|is|are|do|does|have|there|i|we|some)\b`)
	listReference = regexp.MustCompile(`(?i)\b(to|from|on|off|in)?\s*(my|the)\s*(shopping\s*)?list\b`)
	itemSplitter  = regexp.MustCompile(`\s*(?:,|\band\b|\bwith\b)\s*`)
	spaces        = regexp.MustCompile(`\s+`)
)

// ExtractItems pulls shopping items from the classifier entities,
// falling back to scrubbing the utterance and splitting it on commas,
// "and", and "with".
func ExtractItems(text string, ents entity.Bag) []string {
	items := ents.Texts(entity.KindItem)
	if len(items) == 0 {
		items = ents.Texts(entity.KindFood)
	}
	if len(items) > 0 {
		return normalize(items)
	}

	cleaned := listVerbs.ReplaceAllString(text, " ")
	cleaned = listReference.ReplaceAllString(cleaned, " ")
	cleaned = spaces.ReplaceAllString(cleaned, " ")
	return normalize(itemSplitter.Split(strings.TrimSpace(cleaned), -1))
}

func normalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, item := range raw {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// Engine persists a session's shopping list.
type Engine struct {
	store *store.Store
}

// New creates a shopping Engine over the application store.
func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Add appends items to the list and returns those actually added.
func (e *Engine) Add(ctx context.Context, sessionID string, items []string) ([]string, error) {
	added := make([]string, 0, len(items))
	for _, item := range items {
		if _, err := e.store.AddShoppingItem(ctx, sessionID, item); err != nil {
			return added, err
		}
		added = append(added, item)
	}
	return added, nil
}

// Remove deletes one item from the list. Returns store.ErrNotFound when
// the item is not on it.
func (e *Engine) Remove(ctx context.Context, sessionID, item string) (string, error) {
	removed, err := e.store.RemoveShoppingItem(ctx, sessionID, item)
	if err != nil {
		return "", err
	}
	return removed.Item, nil
}

// List returns the item names in insertion order.
func (e *Engine) List(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := e.store.ListShoppingItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Item)
	}
	return items, nil
}

// Has reports whether an item is on the list.
func (e *Engine) Has(ctx context.Context, sessionID, item string) (bool, error) {
	return e.store.HasShoppingItem(ctx, sessionID, item)
}

// Clear empties the list and returns how many items were removed.
func (e *Engine) Clear(ctx context.Context, sessionID string) (int64, error) {
	return e.store.ClearShoppingList(ctx, sessionID)
}
