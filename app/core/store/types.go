package store

// Task statuses follow the GTD flow. A task is "active" until it is
// completed or parked; active tasks past the staleness threshold are
// the weekly review's zombie candidates.
const (
	TaskStatusInbox      = "inbox"
	TaskStatusNext       = "next"
	TaskStatusInProgress = "in_progress"
	TaskStatusWaiting    = "waiting"
	TaskStatusDone       = "done"
)

const (
	NoteStatusUnprocessed = "unprocessed"
	NoteStatusProcessed   = "processed"
)

const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
)

// ActiveTaskStatuses are the statuses a zombie task can be stuck in.
func ActiveTaskStatuses() []string {
	return []string{TaskStatusInbox, TaskStatusNext, TaskStatusInProgress}
}

type Task struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id,omitempty"`
	NoteID      string `json:"note_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	DueAt       int64  `json:"due_at,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	CompletedAt int64  `json:"completed_at,omitempty"`
}

type Note struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type Project struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// NewTask is the input for Store.CreateTask. Draft subtasks created by
// the review applier inherit the parent's project and note linkage.
type NewTask struct {
	ProjectID   string
	NoteID      string
	Title       string
	Description string
	Status      string
	DueAt       int64
}
