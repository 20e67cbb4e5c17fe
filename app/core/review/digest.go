package review

import (
	"context"
	"strings"

	"clarity/app/core/store"
)

const (
	excerptMaxRunes = 80
	ellipsis        = "…"
)

// Store is the slice of the persistence layer the review pipeline
// consumes. *store.Store satisfies it; tests use fakes.
type Store interface {
	ListCompletedBetween(ctx context.Context, start, end int64, projectIDs []string, limit int) ([]store.Task, error)
	ListStaleTasks(ctx context.Context, boundary int64, projectIDs []string, statuses []string, limit int) ([]store.Task, error)
	ListUnprocessedNotes(ctx context.Context, createdAfter int64, limit int) ([]store.Note, error)
	ListActiveProjects(ctx context.Context, projectIDs []string) ([]store.Project, error)
	GetTask(ctx context.Context, taskID string) (store.Task, error)
	GetNote(ctx context.Context, noteID string) (store.Note, error)
	GetProject(ctx context.Context, projectID string) (store.Project, error)
	CreateTask(ctx context.Context, input store.NewTask) (store.Task, error)
	SetTaskStatus(ctx context.Context, taskID string, status string) error
	ClearDueDate(ctx context.Context, taskID string) error
	DeleteTask(ctx context.Context, taskID string) error
	GetOrCreateTag(ctx context.Context, name string) (store.Tag, error)
	AttachTag(ctx context.Context, taskID string, tagID string) error
}

// TaskDigest is a read-only snapshot of a task plus the derived
// context the suggestion engines work from. StaleDays is only
// meaningful for zombie digests.
type TaskDigest struct {
	Task         store.Task `json:"task"`
	ProjectTitle string     `json:"project_title,omitempty"`
	NoteExcerpt  string     `json:"note_excerpt,omitempty"`
	StaleDays    int        `json:"stale_days,omitempty"`
}

type NoteDigest struct {
	Note          store.Note     `json:"note"`
	LinkedProject *store.Project `json:"linked_project,omitempty"`
}

type Digests struct {
	Completed []TaskDigest `json:"completed"`
	Zombies   []TaskDigest `json:"zombies"`
	Notes     []NoteDigest `json:"notes"`
}

// Caps bound how much of the store one review run pulls in.
type Caps struct {
	MaxCompleted int
	MaxZombies   int
	MaxNotes     int
}

type Collector struct {
	store Store
	caps  Caps
}

func NewCollector(st Store, caps Caps) *Collector {
	if caps.MaxCompleted <= 0 {
		caps.MaxCompleted = 50
	}
	if caps.MaxZombies <= 0 {
		caps.MaxZombies = 20
	}
	if caps.MaxNotes <= 0 {
		caps.MaxNotes = 30
	}
	return &Collector{store: st, caps: caps}
}

// Collect builds all three digest groups for one window. A store that
// simply has no matching rows yields empty groups; only an unreachable
// store surfaces an error.
func (c *Collector) Collect(ctx context.Context, window ReviewWindow) (Digests, error) {
	digests := Digests{
		Completed: []TaskDigest{},
		Zombies:   []TaskDigest{},
		Notes:     []NoteDigest{},
	}

	completed, err := c.store.ListCompletedBetween(ctx, window.Start, window.End, window.ProjectFilters, c.caps.MaxCompleted)
	if err != nil {
		return Digests{}, err
	}
	for _, task := range completed {
		digests.Completed = append(digests.Completed, c.taskDigest(ctx, task, window, false))
	}

	zombies, err := c.store.ListStaleTasks(ctx, window.ZombieBoundary(), window.ProjectFilters, store.ActiveTaskStatuses(), c.caps.MaxZombies)
	if err != nil {
		return Digests{}, err
	}
	for _, task := range zombies {
		digests.Zombies = append(digests.Zombies, c.taskDigest(ctx, task, window, true))
	}

	notes, err := c.store.ListUnprocessedNotes(ctx, window.Start, c.caps.MaxNotes)
	if err != nil {
		return Digests{}, err
	}
	projects, err := c.store.ListActiveProjects(ctx, window.ProjectFilters)
	if err != nil {
		return Digests{}, err
	}
	for _, note := range notes {
		digests.Notes = append(digests.Notes, noteDigest(note, projects))
	}

	return digests, nil
}

func (c *Collector) taskDigest(ctx context.Context, task store.Task, window ReviewWindow, zombie bool) TaskDigest {
	d := TaskDigest{Task: task}
	if zombie {
		d.StaleDays = window.StaleDays(task.CreatedAt)
	}
	// Both lookups are best-effort: a vanished note or project just
	// leaves the optional field empty.
	if task.ProjectID != "" {
		if project, err := c.store.GetProject(ctx, task.ProjectID); err == nil {
			d.ProjectTitle = project.Title
		}
	}
	if task.NoteID != "" {
		if note, err := c.store.GetNote(ctx, task.NoteID); err == nil {
			d.NoteExcerpt = Excerpt(note.Content)
		}
	}
	return d
}

// noteDigest links a note to the first active project whose title
// appears inside the note text. The substring match is deliberately
// loose; see the triage guidance it feeds into.
func noteDigest(note store.Note, projects []store.Project) NoteDigest {
	haystack := strings.ToLower(note.Title + "\n" + note.Content)
	for i := range projects {
		title := strings.ToLower(strings.TrimSpace(projects[i].Title))
		if title == "" {
			continue
		}
		if strings.Contains(haystack, title) {
			project := projects[i]
			return NoteDigest{Note: note, LinkedProject: &project}
		}
	}
	return NoteDigest{Note: note}
}

// Excerpt collapses whitespace and truncates to the shared excerpt
// budget.
func Excerpt(text string) string {
	return truncateRunes(collapseWhitespace(text), excerptMaxRunes)
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + ellipsis
}
