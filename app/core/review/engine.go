package review

import "context"

const (
	StatusReady    = "ready"
	StatusFallback = "fallback"
)

// Suggestion action values. Decisions only carry split/someday/delete;
// defer exists as advice the reviewer acts on outside the pipeline.
const (
	ActionSplit   = "split"
	ActionDefer   = "defer"
	ActionSomeday = "someday"
	ActionDelete  = "delete"
)

// Note audit routes.
const (
	RouteTask      = "task"
	RouteReference = "reference"
	RouteSomeday   = "someday"
	RouteDiscard   = "discard"
)

// SuggestionEngine turns digests into narrative and action
// suggestions. Any error, panic, or structurally empty result is
// treated as "engine unavailable" and answered with the deterministic
// fallback instead.
type SuggestionEngine interface {
	GenerateHighlights(ctx context.Context, digests []TaskDigest, tone string) (HighlightsResult, error)
	GenerateZombieSuggestions(ctx context.Context, digests []TaskDigest, tone string) (ZombieResult, error)
	GenerateNoteAudits(ctx context.Context, digests []NoteDigest, tone string) (AuditResult, error)
}

// SubtaskPlanner proposes break-downs for split targets. Its plans may
// carry the sentinel parent id and are positionally repaired before
// use.
type SubtaskPlanner interface {
	PlanSubtasks(ctx context.Context, targets []SplitTarget) ([]Plan, error)
}

// Engine result shapes, mapped 1:1 onto the input digests by position.

type HighlightsResult struct {
	Intro string
	Items []HighlightItem
}

type ZombieResult struct {
	Items []ZombieAdvice
}

type ZombieAdvice struct {
	TaskID      string
	Suggestions []Suggestion
}

type AuditResult struct {
	Items []AuditAdvice
}

type AuditAdvice struct {
	NoteID           string
	Summary          string
	RecommendedRoute string
	Guidance         string
}

// Insights payload, the read path's final product.

type HighlightItem struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	SourceTaskIDs []string `json:"source_task_ids,omitempty"`
}

type HighlightsPayload struct {
	Status string          `json:"status"`
	Intro  string          `json:"intro"`
	Items  []HighlightItem `json:"items"`
}

type Suggestion struct {
	Action            string   `json:"action"`
	Rationale         string   `json:"rationale"`
	SuggestedSubtasks []string `json:"suggested_subtasks,omitempty"`
}

type ZombieTaskInsight struct {
	TaskID       string       `json:"task_id"`
	Title        string       `json:"title"`
	StaleDays    int          `json:"stale_days"`
	ProjectTitle string       `json:"project_title,omitempty"`
	NoteExcerpt  string       `json:"note_excerpt,omitempty"`
	Suggestions  []Suggestion `json:"suggestions"`
}

type ZombiePayload struct {
	Status          string              `json:"status"`
	Tasks           []ZombieTaskInsight `json:"tasks"`
	FallbackMessage string              `json:"fallback_message,omitempty"`
}

type NoteAudit struct {
	NoteID             string `json:"note_id"`
	Summary            string `json:"summary"`
	RecommendedRoute   string `json:"recommended_route"`
	LinkedProjectID    string `json:"linked_project_id,omitempty"`
	LinkedProjectTitle string `json:"linked_project_title,omitempty"`
	Guidance           string `json:"guidance"`
}

type NoteAuditPayload struct {
	Status          string      `json:"status"`
	Audits          []NoteAudit `json:"audits"`
	FallbackMessage string      `json:"fallback_message,omitempty"`
}

type GenerationMeta struct {
	Window      ReviewWindow `json:"window"`
	GeneratedAt int64        `json:"generated_at"`
}

type InsightsPayload struct {
	Highlights HighlightsPayload `json:"highlights"`
	Zombies    ZombiePayload     `json:"zombies"`
	NoteAudits NoteAuditPayload  `json:"note_audits"`
	Meta       GenerationMeta    `json:"meta"`
}

// Write path types.

// Decision is one reviewer resolution for one zombie task.
type Decision struct {
	TaskID string `json:"task_id"`
	Action string `json:"action"`
}

// SplitTarget is the planner's view of one zombie task.
type SplitTarget struct {
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	StaleDays int    `json:"stale_days"`
	Context   string `json:"context,omitempty"`
}

const (
	PlanStatusReady  = "ready"
	PlanStatusFailed = "failed"

	// PlanParentUnset is the placeholder a planner returns when it
	// cannot echo the real task id. Empty is treated the same way.
	PlanParentUnset = "unset"
)

type PlanSubtask struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	FirstStepHint string `json:"first_step_hint,omitempty"`
}

type Plan struct {
	ParentTaskID string        `json:"parent_task_id"`
	Status       string        `json:"status"`
	Subtasks     []PlanSubtask `json:"subtasks"`
	Rationale    string        `json:"rationale,omitempty"`
}

type SplitPair struct {
	ParentTaskID string `json:"parent_task_id"`
	TaskID       string `json:"task_id"`
}

type ActionResult struct {
	CreatedSubtasks int         `json:"created_subtasks"`
	SplitTasks      []SplitPair `json:"split_tasks"`
	MovedToSomeday  int         `json:"moved_to_someday"`
	SomedayTaskIDs  []string    `json:"someday_task_ids"`
	DeletedTasks    int         `json:"deleted_tasks"`
	DeletedTaskIDs  []string    `json:"deleted_task_ids"`
	Errors          []string    `json:"errors"`
	Message         string      `json:"message"`
}

func validSuggestionAction(action string) bool {
	switch action {
	case ActionSplit, ActionDefer, ActionSomeday, ActionDelete:
		return true
	default:
		return false
	}
}

func validRoute(route string) bool {
	switch route {
	case RouteTask, RouteReference, RouteSomeday, RouteDiscard:
		return true
	default:
		return false
	}
}
