package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// GetOrCreateTag resolves a tag by name, creating it when absent.
func (s *Store) GetOrCreateTag(ctx context.Context, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, fmt.Errorf("tag name is required")
	}

	var t Tag
	err := s.db.Conn().QueryRowContext(ctx, `SELECT id, name, created_at FROM tags WHERE name = ?`, name).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return Tag{}, err
	}

	now := time.Now().Unix()
	id := s.newID("tag")
	if _, err := s.db.Conn().ExecContext(ctx, `INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?)`, id, name, now); err != nil {
		// Lost a race with a concurrent insert; read the winner.
		var existing Tag
		if readErr := s.db.Conn().QueryRowContext(ctx, `SELECT id, name, created_at FROM tags WHERE name = ?`, name).Scan(&existing.ID, &existing.Name, &existing.CreatedAt); readErr == nil {
			return existing, nil
		}
		return Tag{}, err
	}
	return Tag{ID: id, Name: name, CreatedAt: now}, nil
}

// AttachTag links a tag to a task. The task must still exist.
func (s *Store) AttachTag(ctx context.Context, taskID string, tagID string) error {
	var exists int
	err := s.db.Conn().QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, taskID).Scan(&exists)
	if err != nil {
		return err
	}
	query := `INSERT INTO task_tags (task_id, tag_id, created_at) VALUES (?, ?, ?) ON CONFLICT(task_id, tag_id) DO NOTHING`
	_, err = s.db.Conn().ExecContext(ctx, query, taskID, tagID, time.Now().Unix())
	return err
}

func (s *Store) ListTaskTags(ctx context.Context, taskID string) ([]Tag, error) {
	query := `SELECT t.id, t.name, t.created_at FROM tags t JOIN task_tags tt ON tt.tag_id = t.id WHERE tt.task_id = ? ORDER BY t.name ASC`
	rows, err := s.db.Conn().QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Tag, 0, 4)
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
