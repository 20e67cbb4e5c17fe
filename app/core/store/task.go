package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const taskColumns = `id, COALESCE(project_id, ''), COALESCE(note_id, ''), title, description, status, COALESCE(due_at, 0), created_at, updated_at, COALESCE(completed_at, 0)`

func scanTask(row interface{ Scan(...interface{}) error }) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.NoteID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.DueAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, input NewTask) (Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled Task"
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = TaskStatusInbox
	}
	now := time.Now().Unix()
	id := s.newID("task")
	query := `INSERT INTO tasks (id, project_id, note_id, title, description, status, due_at, created_at, updated_at, completed_at) VALUES (?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, NULLIF(?, 0), ?, ?, NULL)`
	if _, err := s.db.Conn().ExecContext(ctx, query, id, input.ProjectID, input.NoteID, title, input.Description, status, input.DueAt, now, now); err != nil {
		return Task{}, err
	}
	return Task{
		ID:          id,
		ProjectID:   input.ProjectID,
		NoteID:      input.NoteID,
		Title:       title,
		Description: input.Description,
		Status:      status,
		DueAt:       input.DueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Store) GetTask(ctx context.Context, taskID string) (Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return scanTask(s.db.Conn().QueryRowContext(ctx, query, taskID))
}

func (s *Store) SetTaskStatus(ctx context.Context, taskID string, status string) error {
	switch status {
	case TaskStatusInbox, TaskStatusNext, TaskStatusInProgress, TaskStatusWaiting, TaskStatusDone:
	default:
		return fmt.Errorf("invalid status: %s", status)
	}
	now := time.Now().Unix()
	var (
		query string
		args  []interface{}
	)
	if status == TaskStatusDone {
		query = `UPDATE tasks SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{status, now, now, taskID}
	} else {
		query = `UPDATE tasks SET status = ?, completed_at = NULL, updated_at = ? WHERE id = ?`
		args = []interface{}{status, now, taskID}
	}
	res, err := s.db.Conn().ExecContext(ctx, query, args...)
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

func (s *Store) ClearDueDate(ctx context.Context, taskID string) error {
	res, err := s.db.Conn().ExecContext(ctx, `UPDATE tasks SET due_at = NULL, updated_at = ? WHERE id = ?`, time.Now().Unix(), taskID)
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

func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListCompletedBetween returns tasks completed inside [start, end],
// optionally restricted to a project id set. Missing rows are an empty
// list, never an error.
func (s *Store) ListCompletedBetween(ctx context.Context, start, end int64, projectIDs []string, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status = ? AND completed_at IS NOT NULL AND completed_at >= ? AND completed_at <= ?`
	args := []interface{}{TaskStatusDone, start, end}
	if len(projectIDs) > 0 {
		query += ` AND project_id IN (` + placeholders(len(projectIDs)) + `)`
		for _, id := range projectIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY completed_at DESC LIMIT ?`
	args = append(args, limit)
	return s.listTasks(ctx, query, args...)
}

// ListStaleTasks returns tasks still in one of the given statuses that
// were created at or before boundary, oldest first.
func (s *Store) ListStaleTasks(ctx context.Context, boundary int64, projectIDs []string, statuses []string, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 20
	}
	if len(statuses) == 0 {
		statuses = ActiveTaskStatuses()
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE created_at <= ? AND status IN (` + placeholders(len(statuses)) + `)`
	args := []interface{}{boundary}
	for _, st := range statuses {
		args = append(args, st)
	}
	if len(projectIDs) > 0 {
		query += ` AND project_id IN (` + placeholders(len(projectIDs)) + `)`
		for _, id := range projectIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY created_at ASC LIMIT ?`
	args = append(args, limit)
	return s.listTasks(ctx, query, args...)
}

func (s *Store) CountTasksByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (s *Store) listTasks(ctx context.Context, query string, args ...interface{}) ([]Task, error) {
	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Task, 0, 16)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
