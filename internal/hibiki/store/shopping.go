package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ShoppingItem is one entry on a session's shopping list.
type ShoppingItem struct {
	ID        int64
	SessionID string
	Item      string
	AddedAt   time.Time
}

// AddShoppingItem appends an item to the list. Duplicate names are allowed;
// the list keeps insertion order.
func (s *Store) AddShoppingItem(ctx context.Context, sessionID, item string) (int64, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return 0, fmt.Errorf("shopping item cannot be empty")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO shopping_items (session_id, item, added_at)
		VALUES (?, ?, ?)
	`, sessionID, item, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to add shopping item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get shopping item id: %w", err)
	}

	return id, nil
}

// ListShoppingItems returns the list in insertion order
func (s *Store) ListShoppingItems(ctx context.Context, sessionID string) ([]*ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, item, added_at
		FROM shopping_items
		WHERE session_id = ?
		ORDER BY added_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping items: %w", err)
	}
	defer rows.Close()

	var items []*ShoppingItem
	for rows.Next() {
		it := &ShoppingItem{}
		if err := rows.Scan(&it.ID, &it.SessionID, &it.Item, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shopping item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shopping items: %w", err)
	}

	return items, nil
}

// RemoveShoppingItem deletes the first item matching the given name,
// case-insensitively. Returns ErrNotFound when nothing matches.
func (s *Store) RemoveShoppingItem(ctx context.Context, sessionID, item string) (*ShoppingItem, error) {
	item = strings.ToLower(strings.TrimSpace(item))
	if item == "" {
		return nil, ErrNotFound
	}

	items, err := s.ListShoppingItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if strings.ToLower(it.Item) == item || strings.Contains(strings.ToLower(it.Item), item) {
			if _, err := s.db.ExecContext(ctx, "DELETE FROM shopping_items WHERE id = ?", it.ID); err != nil {
				return nil, fmt.Errorf("failed to remove shopping item: %w", err)
			}
			return it, nil
		}
	}

	return nil, ErrNotFound
}

// ClearShoppingList removes every item and returns how many were deleted
func (s *Store) ClearShoppingList(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM shopping_items WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear shopping list: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared items: %w", err)
	}

	return n, nil
}

// HasShoppingItem reports whether an item is on the list, case-insensitively
func (s *Store) HasShoppingItem(ctx context.Context, sessionID, item string) (bool, error) {
	item = strings.ToLower(strings.TrimSpace(item))
	if item == "" {
		return false, nil
	}

	items, err := s.ListShoppingItems(ctx, sessionID)
	if err != nil {
		return false, err
	}

	for _, it := range items {
		if strings.ToLower(it.Item) == item || strings.Contains(strings.ToLower(it.Item), item) {
			return true, nil
		}
	}

	return false, nil
}
