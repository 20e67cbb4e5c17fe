package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

func (s *Store) CreateNote(ctx context.Context, title string, content string) (Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Note"
	}
	now := time.Now().Unix()
	id := s.newID("note")
	query := `INSERT INTO notes (id, title, content, status, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.Conn().ExecContext(ctx, query, id, title, content, NoteStatusUnprocessed, now); err != nil {
		return Note{}, err
	}
	return Note{
		ID:        id,
		Title:     title,
		Content:   content,
		Status:    NoteStatusUnprocessed,
		CreatedAt: now,
	}, nil
}

func (s *Store) GetNote(ctx context.Context, noteID string) (Note, error) {
	query := `SELECT id, title, content, status, created_at FROM notes WHERE id = ?`
	var n Note
	err := s.db.Conn().QueryRowContext(ctx, query, noteID).Scan(&n.ID, &n.Title, &n.Content, &n.Status, &n.CreatedAt)
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *Store) MarkNoteProcessed(ctx context.Context, noteID string) error {
	res, err := s.db.Conn().ExecContext(ctx, `UPDATE notes SET status = ? WHERE id = ?`, NoteStatusProcessed, noteID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListUnprocessedNotes returns unprocessed notes created after the
// given unix timestamp, oldest first.
func (s *Store) ListUnprocessedNotes(ctx context.Context, createdAfter int64, limit int) ([]Note, error) {
	if limit <= 0 {
		limit = 30
	}
	query := `SELECT id, title, content, status, created_at FROM notes WHERE status = ? AND created_at > ? ORDER BY created_at ASC LIMIT ?`
	rows, err := s.db.Conn().QueryContext(ctx, query, NoteStatusUnprocessed, createdAfter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Note, 0, limit)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Status, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (s *Store) CountUnprocessedNotes(ctx context.Context) (int, error) {
	var count int
	err := s.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE status = ?`, NoteStatusUnprocessed).Scan(&count)
	return count, err
}
