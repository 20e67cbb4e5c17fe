// Package status summarizes the current state of the task store for
// the status subcommand.
package status

import (
	"context"
	"time"

	"clarity/app/core/review"
	"clarity/app/core/store"
)

// zombieCountLimit bounds the stale-task scan; a summary does not need
// an exact count past this point.
const zombieCountLimit = 1000

type Store interface {
	CountTasksByStatus(ctx context.Context) (map[string]int, error)
	CountUnprocessedNotes(ctx context.Context) (int, error)
	ListStaleTasks(ctx context.Context, boundary int64, projectIDs []string, statuses []string, limit int) ([]store.Task, error)
	ListActiveProjects(ctx context.Context, projectIDs []string) ([]store.Project, error)
}

type Summary struct {
	TaskCounts       map[string]int `json:"task_counts"`
	ActiveTasks      int            `json:"active_tasks"`
	ZombieTasks      int            `json:"zombie_tasks"`
	UnprocessedNotes int            `json:"unprocessed_notes"`
	ActiveProjects   int            `json:"active_projects"`
	GeneratedAt      int64          `json:"generated_at"`
}

type Reporter struct {
	store         Store
	thresholdDays int
}

func NewReporter(st Store, zombieThresholdDays int) *Reporter {
	if zombieThresholdDays <= 0 {
		zombieThresholdDays = 14
	}
	return &Reporter{store: st, thresholdDays: zombieThresholdDays}
}

func (r *Reporter) Summarize(ctx context.Context) (Summary, error) {
	now := time.Now().Unix()
	summary := Summary{GeneratedAt: now}

	counts, err := r.store.CountTasksByStatus(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.TaskCounts = counts
	for _, status := range store.ActiveTaskStatuses() {
		summary.ActiveTasks += counts[status]
	}

	window := review.ReviewWindow{End: now, ZombieThresholdDays: r.thresholdDays}
	zombies, err := r.store.ListStaleTasks(ctx, window.ZombieBoundary(), nil, store.ActiveTaskStatuses(), zombieCountLimit)
	if err != nil {
		return Summary{}, err
	}
	summary.ZombieTasks = len(zombies)

	notes, err := r.store.CountUnprocessedNotes(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.UnprocessedNotes = notes

	projects, err := r.store.ListActiveProjects(ctx, nil)
	if err != nil {
		return Summary{}, err
	}
	summary.ActiveProjects = len(projects)

	return summary, nil
}
