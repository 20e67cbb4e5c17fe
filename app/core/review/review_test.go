package review

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync/atomic"

	"clarity/app/core/store"
)

// fakeStore is an in-memory Store for the pipeline tests. Error hooks
// let individual tests break specific operations.
type fakeStore struct {
	tasks    map[string]store.Task
	notes    map[string]store.Note
	projects map[string]store.Project
	tags     map[string]store.Tag

	counter uint64

	listCompletedErr error
	getTaskErr       map[string]error
	setStatusErr     map[string]error
	deleteErr        map[string]error
	attachTagErr     error
	getOrCreateErr   error

	getOrCreateTagCalls int
	attachedTags        map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:        map[string]store.Task{},
		notes:        map[string]store.Note{},
		projects:     map[string]store.Project{},
		tags:         map[string]store.Tag{},
		attachedTags: map[string][]string{},
	}
}

func (f *fakeStore) addTask(task store.Task) store.Task {
	if task.Status == "" {
		task.Status = store.TaskStatusInbox
	}
	f.tasks[task.ID] = task
	return task
}

func (f *fakeStore) ListCompletedBetween(_ context.Context, start, end int64, projectIDs []string, limit int) ([]store.Task, error) {
	if f.listCompletedErr != nil {
		return nil, f.listCompletedErr
	}
	var out []store.Task
	for _, task := range f.tasks {
		if task.Status != store.TaskStatusDone || task.CompletedAt < start || task.CompletedAt > end {
			continue
		}
		if len(projectIDs) > 0 && !contains(projectIDs, task.ProjectID) {
			continue
		}
		out = append(out, task)
	}
	sortTasksByID(out)
	return capSlice(out, limit), nil
}

func (f *fakeStore) ListStaleTasks(_ context.Context, boundary int64, projectIDs []string, statuses []string, limit int) ([]store.Task, error) {
	var out []store.Task
	for _, task := range f.tasks {
		if task.CreatedAt > boundary || !contains(statuses, task.Status) {
			continue
		}
		if len(projectIDs) > 0 && !contains(projectIDs, task.ProjectID) {
			continue
		}
		out = append(out, task)
	}
	sortTasksByID(out)
	return capSlice(out, limit), nil
}

func (f *fakeStore) ListUnprocessedNotes(_ context.Context, createdAfter int64, limit int) ([]store.Note, error) {
	var out []store.Note
	for _, note := range f.notes {
		if note.Status != store.NoteStatusUnprocessed || note.CreatedAt < createdAfter {
			continue
		}
		out = append(out, note)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListActiveProjects(_ context.Context, projectIDs []string) ([]store.Project, error) {
	var out []store.Project
	for _, project := range f.projects {
		if project.Status != store.ProjectStatusActive {
			continue
		}
		if len(projectIDs) > 0 && !contains(projectIDs, project.ID) {
			continue
		}
		out = append(out, project)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetTask(_ context.Context, taskID string) (store.Task, error) {
	if err := f.getTaskErr[taskID]; err != nil {
		return store.Task{}, err
	}
	task, ok := f.tasks[taskID]
	if !ok {
		return store.Task{}, sql.ErrNoRows
	}
	return task, nil
}

func (f *fakeStore) GetNote(_ context.Context, noteID string) (store.Note, error) {
	note, ok := f.notes[noteID]
	if !ok {
		return store.Note{}, sql.ErrNoRows
	}
	return note, nil
}

func (f *fakeStore) GetProject(_ context.Context, projectID string) (store.Project, error) {
	project, ok := f.projects[projectID]
	if !ok {
		return store.Project{}, sql.ErrNoRows
	}
	return project, nil
}

func (f *fakeStore) CreateTask(_ context.Context, input store.NewTask) (store.Task, error) {
	task := store.Task{
		ID:          fmt.Sprintf("task-new-%d", atomic.AddUint64(&f.counter, 1)),
		ProjectID:   input.ProjectID,
		NoteID:      input.NoteID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		DueAt:       input.DueAt,
	}
	if task.Status == "" {
		task.Status = store.TaskStatusInbox
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeStore) SetTaskStatus(_ context.Context, taskID string, status string) error {
	if err := f.setStatusErr[taskID]; err != nil {
		return err
	}
	task, ok := f.tasks[taskID]
	if !ok {
		return sql.ErrNoRows
	}
	task.Status = status
	f.tasks[taskID] = task
	return nil
}

func (f *fakeStore) ClearDueDate(_ context.Context, taskID string) error {
	task, ok := f.tasks[taskID]
	if !ok {
		return sql.ErrNoRows
	}
	task.DueAt = 0
	f.tasks[taskID] = task
	return nil
}

func (f *fakeStore) DeleteTask(_ context.Context, taskID string) error {
	if err := f.deleteErr[taskID]; err != nil {
		return err
	}
	if _, ok := f.tasks[taskID]; !ok {
		return sql.ErrNoRows
	}
	delete(f.tasks, taskID)
	return nil
}

func (f *fakeStore) GetOrCreateTag(_ context.Context, name string) (store.Tag, error) {
	f.getOrCreateTagCalls++
	if f.getOrCreateErr != nil {
		return store.Tag{}, f.getOrCreateErr
	}
	if tag, ok := f.tags[name]; ok {
		return tag, nil
	}
	tag := store.Tag{ID: fmt.Sprintf("tag-%d", atomic.AddUint64(&f.counter, 1)), Name: name}
	f.tags[name] = tag
	return tag, nil
}

func (f *fakeStore) AttachTag(_ context.Context, taskID string, tagID string) error {
	if f.attachTagErr != nil {
		return f.attachTagErr
	}
	if _, ok := f.tasks[taskID]; !ok {
		return sql.ErrNoRows
	}
	f.attachedTags[taskID] = append(f.attachedTags[taskID], tagID)
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func sortTasksByID(tasks []store.Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
}

func capSlice(tasks []store.Task, limit int) []store.Task {
	if limit > 0 && len(tasks) > limit {
		return tasks[:limit]
	}
	return tasks
}

// Fake engines.

type stubEngine struct {
	highlights    HighlightsResult
	highlightsErr error
	zombies       ZombieResult
	zombiesErr    error
	audits        AuditResult
	auditsErr     error
	panicOn       string
}

func (s *stubEngine) GenerateHighlights(context.Context, []TaskDigest, string) (HighlightsResult, error) {
	if s.panicOn == "highlights" {
		panic("boom")
	}
	return s.highlights, s.highlightsErr
}

func (s *stubEngine) GenerateZombieSuggestions(context.Context, []TaskDigest, string) (ZombieResult, error) {
	if s.panicOn == "zombies" {
		panic("boom")
	}
	return s.zombies, s.zombiesErr
}

func (s *stubEngine) GenerateNoteAudits(context.Context, []NoteDigest, string) (AuditResult, error) {
	if s.panicOn == "audits" {
		panic("boom")
	}
	return s.audits, s.auditsErr
}

type stubPlanner struct {
	plans   []Plan
	err     error
	panics  bool
	targets []SplitTarget
}

func (s *stubPlanner) PlanSubtasks(_ context.Context, targets []SplitTarget) ([]Plan, error) {
	s.targets = targets
	if s.panics {
		panic("planner down")
	}
	return s.plans, s.err
}
