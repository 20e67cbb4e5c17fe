package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clarity/app/core/store"
)

const somedayTagName = "Someday/Maybe"

const noChangesMessage = "no changes"

// Applier is the write path: it applies a reviewer's batch of
// decisions onto the store. Nothing aborts the batch; every per-item
// failure lands in ActionResult.Errors and the rest continues.
type Applier struct {
	store   Store
	planner SubtaskPlanner
}

// NewApplier builds the applier. planner may be nil, in which case
// split decisions fail with one aggregate error.
func NewApplier(st Store, planner SubtaskPlanner) *Applier {
	return &Applier{store: st, planner: planner}
}

// batchState is the per-invocation mutable state. The someday tag id
// is cached here so one batch resolves it at most once; nothing
// survives past the call.
type batchState struct {
	somedayTagID string
}

func (a *Applier) ApplyActions(ctx context.Context, decisions []Decision) ActionResult {
	result := ActionResult{
		SplitTasks:     []SplitPair{},
		SomedayTaskIDs: []string{},
		DeletedTaskIDs: []string{},
		Errors:         []string{},
		Message:        noChangesMessage,
	}
	if len(decisions) == 0 {
		return result
	}

	tasks := a.fetchTasks(ctx, decisions, &result)

	var splits, somedays, deletes []Decision
	for _, decision := range decisions {
		if _, ok := tasks[decision.TaskID]; !ok {
			continue
		}
		switch decision.Action {
		case ActionSplit:
			splits = append(splits, decision)
		case ActionSomeday:
			somedays = append(somedays, decision)
		case ActionDelete:
			deletes = append(deletes, decision)
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: unknown action %q", decision.TaskID, decision.Action))
		}
	}

	state := &batchState{}
	splitDone := a.applySplits(ctx, splits, tasks, &result)
	a.applySomeday(ctx, somedays, state, &result)
	a.applyDeletes(ctx, deletes, &result)

	result.Message = buildMessage(splitDone, result.MovedToSomeday, result.DeletedTasks)
	return result
}

// fetchTasks loads every referenced task once. Ids that cannot be
// fetched are recorded and dropped from the batch.
func (a *Applier) fetchTasks(ctx context.Context, decisions []Decision, result *ActionResult) map[string]store.Task {
	tasks := make(map[string]store.Task, len(decisions))
	seen := make(map[string]bool, len(decisions))
	for _, decision := range decisions {
		if seen[decision.TaskID] {
			continue
		}
		seen[decision.TaskID] = true
		task, err := a.store.GetTask(ctx, decision.TaskID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: fetch failed: %v", decision.TaskID, err))
			continue
		}
		tasks[decision.TaskID] = task
	}
	return tasks
}

func (a *Applier) applySplits(ctx context.Context, splits []Decision, tasks map[string]store.Task, result *ActionResult) int {
	if len(splits) == 0 {
		return 0
	}

	now := time.Now().Unix()
	targets := make([]SplitTarget, 0, len(splits))
	for _, decision := range splits {
		task := tasks[decision.TaskID]
		targets = append(targets, SplitTarget{
			TaskID:    task.ID,
			Title:     task.Title,
			StaleDays: staleDaysSince(task.CreatedAt, now),
			Context:   a.splitContext(ctx, task),
		})
	}

	plans, err := a.safePlanSubtasks(ctx, targets)
	if err != nil {
		// No partial planner output is trusted after a failure.
		result.Errors = append(result.Errors, fmt.Sprintf("subtask planning failed for %d task(s): %v", len(splits), err))
		return 0
	}

	plans = NormalizePlanParents(plans, targets)

	done := 0
	handled := make(map[string]bool, len(plans))
	for _, plan := range plans {
		parent, ok := tasks[plan.ParentTaskID]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("plan for unknown task %q skipped", plan.ParentTaskID))
			continue
		}
		handled[plan.ParentTaskID] = true

		if plan.Status != PlanStatusReady || len(plan.Subtasks) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: planner returned no usable subtasks", plan.ParentTaskID))
			continue
		}

		created := 0
		for _, subtask := range plan.Subtasks {
			input := store.NewTask{
				ProjectID:   parent.ProjectID,
				NoteID:      parent.NoteID,
				Title:       subtask.Title,
				Description: subtaskDescription(subtask, parent.Title, plan.Rationale),
				Status:      store.TaskStatusInbox,
			}
			child, err := a.store.CreateTask(ctx, input)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("task %s: create subtask failed: %v", parent.ID, err))
				continue
			}
			created++
			result.CreatedSubtasks++
			result.SplitTasks = append(result.SplitTasks, SplitPair{ParentTaskID: parent.ID, TaskID: child.ID})
		}
		if created == 0 {
			continue
		}
		if err := a.store.SetTaskStatus(ctx, parent.ID, store.TaskStatusInProgress); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: mark in progress failed: %v", parent.ID, err))
		}
		done++
	}

	for _, decision := range splits {
		if !handled[decision.TaskID] {
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: planner returned no plan", decision.TaskID))
		}
	}
	return done
}

func (a *Applier) applySomeday(ctx context.Context, somedays []Decision, state *batchState, result *ActionResult) {
	for _, decision := range somedays {
		if err := a.store.SetTaskStatus(ctx, decision.TaskID, store.TaskStatusWaiting); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: move to someday failed: %v", decision.TaskID, err))
			continue
		}
		if err := a.store.ClearDueDate(ctx, decision.TaskID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: clear due date failed: %v", decision.TaskID, err))
			continue
		}
		tagID, err := a.somedayTag(ctx, state)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: someday tag unavailable: %v", decision.TaskID, err))
			continue
		}
		if err := a.store.AttachTag(ctx, decision.TaskID, tagID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: attach someday tag failed: %v", decision.TaskID, err))
			continue
		}
		result.MovedToSomeday++
		result.SomedayTaskIDs = append(result.SomedayTaskIDs, decision.TaskID)
	}
}

func (a *Applier) applyDeletes(ctx context.Context, deletes []Decision, result *ActionResult) {
	for _, decision := range deletes {
		if err := a.store.DeleteTask(ctx, decision.TaskID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: delete failed: %v", decision.TaskID, err))
			continue
		}
		result.DeletedTasks++
		result.DeletedTaskIDs = append(result.DeletedTaskIDs, decision.TaskID)
	}
}

func (a *Applier) somedayTag(ctx context.Context, state *batchState) (string, error) {
	if state.somedayTagID != "" {
		return state.somedayTagID, nil
	}
	tag, err := a.store.GetOrCreateTag(ctx, somedayTagName)
	if err != nil {
		return "", err
	}
	state.somedayTagID = tag.ID
	return tag.ID, nil
}

func (a *Applier) splitContext(ctx context.Context, task store.Task) string {
	parts := make([]string, 0, 2)
	if task.Description != "" {
		parts = append(parts, task.Description)
	}
	if task.NoteID != "" {
		if note, err := a.store.GetNote(ctx, task.NoteID); err == nil {
			if excerpt := Excerpt(note.Content); excerpt != "" {
				parts = append(parts, excerpt)
			}
		}
	}
	return strings.Join(parts, " / ")
}

func (a *Applier) safePlanSubtasks(ctx context.Context, targets []SplitTarget) (plans []Plan, err error) {
	if a.planner == nil {
		return nil, fmt.Errorf("no planner configured")
	}
	defer func() {
		if r := recover(); r != nil {
			plans = nil
			err = fmt.Errorf("planner panic: %v", r)
		}
	}()
	return a.planner.PlanSubtasks(ctx, targets)
}

// NormalizePlanParents repairs placeholder parent ids: plans are
// scanned in order and every sentinel id is replaced by the next
// target id that no plan already claims, consumed strictly in target
// order. Running it on an already-normalized list is a no-op.
func NormalizePlanParents(plans []Plan, targets []SplitTarget) []Plan {
	claimed := make(map[string]bool, len(plans))
	for _, plan := range plans {
		if !unsetParentID(plan.ParentTaskID) {
			claimed[plan.ParentTaskID] = true
		}
	}

	queue := make([]string, 0, len(targets))
	for _, target := range targets {
		if !claimed[target.TaskID] {
			queue = append(queue, target.TaskID)
		}
	}

	for i := range plans {
		if !unsetParentID(plans[i].ParentTaskID) {
			continue
		}
		if len(queue) == 0 {
			break
		}
		plans[i].ParentTaskID = queue[0]
		queue = queue[1:]
	}
	return plans
}

func unsetParentID(id string) bool {
	trimmed := strings.TrimSpace(id)
	return trimmed == "" || trimmed == PlanParentUnset
}

func subtaskDescription(subtask PlanSubtask, parentTitle string, rationale string) string {
	parts := make([]string, 0, 4)
	if subtask.Description != "" {
		parts = append(parts, subtask.Description)
	}
	if subtask.FirstStepHint != "" {
		parts = append(parts, "First step: "+subtask.FirstStepHint)
	}
	if parentTitle != "" {
		parts = append(parts, "Split from: "+parentTitle)
	}
	if rationale != "" {
		parts = append(parts, rationale)
	}
	return strings.Join(parts, "\n")
}

func staleDaysSince(createdAt int64, now int64) int {
	days := (now - createdAt) / secondsPerDay
	if days < 0 {
		return 0
	}
	return int(days)
}

func buildMessage(split int, someday int, deleted int) string {
	fragments := make([]string, 0, 3)
	if split > 0 {
		fragments = append(fragments, fmt.Sprintf("分割 %d件", split))
	}
	if someday > 0 {
		fragments = append(fragments, fmt.Sprintf("いつかやる %d件", someday))
	}
	if deleted > 0 {
		fragments = append(fragments, fmt.Sprintf("削除 %d件", deleted))
	}
	if len(fragments) == 0 {
		return noChangesMessage
	}
	return strings.Join(fragments, " / ")
}
