package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// BacklogStore persists project backlog items.
type BacklogStore struct {
	db *DB
}

// NewBacklogStore creates a new backlog store.
func NewBacklogStore(db *DB) *BacklogStore {
	return &BacklogStore{db: db}
}

// Add inserts an item, or updates it when the id already exists.
func (b *BacklogStore) Add(ctx context.Context, item *BacklogItem) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("backlog item id is required")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	deps, err := json.Marshal(nonNil(item.Dependencies))
	if err != nil {
		return fmt.Errorf("failed to encode dependencies: %w", err)
	}

	_, err = b.db.sqlDB.ExecContext(ctx, `
		INSERT INTO backlog_items (id, name, description, dependencies, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			dependencies = excluded.dependencies,
			completed = excluded.completed
	`, item.ID, item.Name, item.Description, string(deps), boolToInt(item.Completed), formatTime(item.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to add backlog item: %w", err)
	}
	return nil
}

// List returns every item in creation order.
func (b *BacklogStore) List(ctx context.Context) ([]BacklogItem, error) {
	rows, err := b.db.sqlDB.QueryContext(ctx, `
		SELECT id, name, description, dependencies, completed, created_at
		FROM backlog_items ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list backlog: %w", err)
	}
	defer rows.Close()

	var items []BacklogItem
	for rows.Next() {
		var item BacklogItem
		var deps string
		var completed int
		var createdAtValue any
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &deps, &completed, &createdAtValue); err != nil {
			return nil, fmt.Errorf("failed to scan backlog item: %w", err)
		}
		if err := json.Unmarshal([]byte(deps), &item.Dependencies); err != nil {
			return nil, fmt.Errorf("failed to decode dependencies: %w", err)
		}
		item.Completed = completed != 0
		if item.CreatedAt, err = parseTimeValue(createdAtValue); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return items, nil
}

// MarkCompleted flags an item as done.
func (b *BacklogStore) MarkCompleted(ctx context.Context, id string) error {
	res, err := b.db.sqlDB.ExecContext(ctx, "UPDATE backlog_items SET completed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to complete backlog item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete backlog item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("backlog item %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
