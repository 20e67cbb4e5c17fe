package store

import (
	"context"
	"strings"
	"time"
)

func (s *Store) CreateProject(ctx context.Context, title string) (Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled Project"
	}
	now := time.Now().Unix()
	id := s.newID("proj")
	query := `INSERT INTO projects (id, title, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.Conn().ExecContext(ctx, query, id, title, ProjectStatusActive, now, now); err != nil {
		return Project{}, err
	}
	return Project{
		ID:        id,
		Title:     title,
		Status:    ProjectStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Store) GetProject(ctx context.Context, projectID string) (Project, error) {
	query := `SELECT id, title, status, created_at, updated_at FROM projects WHERE id = ?`
	var p Project
	err := s.db.Conn().QueryRowContext(ctx, query, projectID).Scan(&p.ID, &p.Title, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

// ListActiveProjects returns active projects, optionally restricted to
// an id set.
func (s *Store) ListActiveProjects(ctx context.Context, projectIDs []string) ([]Project, error) {
	query := `SELECT id, title, status, created_at, updated_at FROM projects WHERE status = ?`
	args := []interface{}{ProjectStatusActive}
	if len(projectIDs) > 0 {
		query += ` AND id IN (` + placeholders(len(projectIDs)) + `)`
		for _, id := range projectIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Project, 0, 8)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
