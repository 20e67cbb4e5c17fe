package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clarity/app/core/store"
)

func TestApplyActionsEmptyBatch(t *testing.T) {
	applier := NewApplier(newFakeStore(), nil)
	result := applier.ApplyActions(context.Background(), nil)

	assert.Equal(t, noChangesMessage, result.Message)
	assert.NotNil(t, result.SplitTasks)
	assert.NotNil(t, result.SomedayTaskIDs)
	assert.NotNil(t, result.DeletedTaskIDs)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
}

func TestApplyActionsSplit(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t1", Title: "Plan the move", Description: "whole apartment", ProjectID: "proj-1", NoteID: "note-1", Status: store.TaskStatusNext})
	st.notes["note-1"] = store.Note{ID: "note-1", Content: "boxes, movers, address changes"}
	planner := &stubPlanner{plans: []Plan{{
		ParentTaskID: "t1",
		Status:       PlanStatusReady,
		Rationale:    "Three clear phases.",
		Subtasks: []PlanSubtask{
			{Title: "Book movers", FirstStepHint: "Get two quotes"},
			{Title: "Pack the kitchen"},
		},
	}}}
	applier := NewApplier(st, planner)

	result := applier.ApplyActions(context.Background(), []Decision{{TaskID: "t1", Action: ActionSplit}})

	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.CreatedSubtasks)
	require.Len(t, result.SplitTasks, 2)
	assert.Equal(t, "t1", result.SplitTasks[0].ParentTaskID)
	assert.Equal(t, "分割 1件", result.Message)

	assert.Equal(t, store.TaskStatusInProgress, st.tasks["t1"].Status)

	child := st.tasks[result.SplitTasks[0].TaskID]
	assert.Equal(t, "proj-1", child.ProjectID)
	assert.Equal(t, "note-1", child.NoteID)
	assert.Equal(t, store.TaskStatusInbox, child.Status)
	assert.Contains(t, child.Description, "First step: Get two quotes")
	assert.Contains(t, child.Description, "Split from: Plan the move")
	assert.Contains(t, child.Description, "Three clear phases.")

	require.Len(t, planner.targets, 1)
	assert.Contains(t, planner.targets[0].Context, "whole apartment")
	assert.Contains(t, planner.targets[0].Context, "boxes, movers, address changes")
}

func TestApplyActionsSplitWithSentinelParent(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t1", Title: "Alpha", Status: store.TaskStatusNext})
	st.addTask(store.Task{ID: "t2", Title: "Beta", Status: store.TaskStatusNext})
	planner := &stubPlanner{plans: []Plan{
		{ParentTaskID: PlanParentUnset, Status: PlanStatusReady, Subtasks: []PlanSubtask{{Title: "A step"}}},
		{ParentTaskID: "  ", Status: PlanStatusReady, Subtasks: []PlanSubtask{{Title: "B step"}}},
	}}
	applier := NewApplier(st, planner)

	result := applier.ApplyActions(context.Background(), []Decision{
		{TaskID: "t1", Action: ActionSplit},
		{TaskID: "t2", Action: ActionSplit},
	})

	assert.Empty(t, result.Errors)
	require.Len(t, result.SplitTasks, 2)
	assert.Equal(t, "t1", result.SplitTasks[0].ParentTaskID)
	assert.Equal(t, "t2", result.SplitTasks[1].ParentTaskID)
}

func TestApplyActionsPlannerFailureIsOneAggregateError(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t1", Title: "Alpha", Status: store.TaskStatusNext})
	st.addTask(store.Task{ID: "t2", Title: "Beta", Status: store.TaskStatusNext})
	applier := NewApplier(st, &stubPlanner{err: errors.New("model offline")})

	result := applier.ApplyActions(context.Background(), []Decision{
		{TaskID: "t1", Action: ActionSplit},
		{TaskID: "t2", Action: ActionSplit},
	})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "subtask planning failed for 2 task(s)")
	assert.Zero(t, result.CreatedSubtasks)
	assert.Equal(t, noChangesMessage, result.Message)
	assert.Equal(t, store.TaskStatusNext, st.tasks["t1"].Status)
}

func TestApplyActionsPlannerPanicIsAggregateError(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t1", Title: "Alpha", Status: store.TaskStatusNext})
	applier := NewApplier(st, &stubPlanner{panics: true})

	result := applier.ApplyActions(context.Background(), []Decision{{TaskID: "t1", Action: ActionSplit}})
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "planner panic")
}

func TestApplyActionsNoPlannerConfigured(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t1", Title: "Alpha", Status: store.TaskStatusNext})
	applier := NewApplier(st, nil)

	result := applier.ApplyActions(context.Background(), []Decision{{TaskID: "t1", Action: ActionSplit}})
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no planner configured")
}

func TestApplyActionsFailedPlanRecorded(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t1", Title: "Alpha", Status: store.TaskStatusNext})
	applier := NewApplier(st, &stubPlanner{plans: []Plan{
		{ParentTaskID: "t1", Status: PlanStatusFailed},
	}})

	result := applier.ApplyActions(context.Background(), []Decision{{TaskID: "t1", Action: ActionSplit}})
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no usable subtasks")
	assert.Equal(t, store.TaskStatusNext, st.tasks["t1"].Status)
}

func TestApplyActionsSomeday(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t1", Title: "Learn piano", Status: store.TaskStatusNext, DueAt: 999})
	st.addTask(store.Task{ID: "t2", Title: "Write a novel", Status: store.TaskStatusInbox})
	applier := NewApplier(st, nil)

	result := applier.ApplyActions(context.Background(), []Decision{
		{TaskID: "t1", Action: ActionSomeday},
		{TaskID: "t2", Action: ActionSomeday},
	})

	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.MovedToSomeday)
	assert.Equal(t, []string{"t1", "t2"}, result.SomedayTaskIDs)
	assert.Equal(t, "いつかやる 2件", result.Message)

	assert.Equal(t, store.TaskStatusWaiting, st.tasks["t1"].Status)
	assert.Zero(t, st.tasks["t1"].DueAt)

	// One batch resolves the tag once, no matter how many tasks move.
	assert.Equal(t, 1, st.getOrCreateTagCalls)
	tag := st.tags[somedayTagName]
	assert.Equal(t, []string{tag.ID}, st.attachedTags["t1"])
	assert.Equal(t, []string{tag.ID}, st.attachedTags["t2"])
}

func TestApplyActionsSomedayTagFailureNotCounted(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t1", Title: "Learn piano", Status: store.TaskStatusNext})
	st.attachTagErr = errors.New("db locked")
	applier := NewApplier(st, nil)

	result := applier.ApplyActions(context.Background(), []Decision{{TaskID: "t1", Action: ActionSomeday}})

	assert.Zero(t, result.MovedToSomeday)
	assert.Empty(t, result.SomedayTaskIDs)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "attach someday tag failed")
	assert.Equal(t, noChangesMessage, result.Message)
}

func TestApplyActionsDelete(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t1", Title: "Old idea", Status: store.TaskStatusInbox})
	applier := NewApplier(st, nil)

	result := applier.ApplyActions(context.Background(), []Decision{{TaskID: "t1", Action: ActionDelete}})

	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.DeletedTasks)
	assert.Equal(t, []string{"t1"}, result.DeletedTaskIDs)
	assert.Equal(t, "削除 1件", result.Message)
	assert.NotContains(t, st.tasks, "t1")
}

func TestApplyActionsMixedBatchWithFailures(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t-del", Title: "Drop me", Status: store.TaskStatusInbox})
	st.addTask(store.Task{ID: "t-some", Title: "Park me", Status: store.TaskStatusNext})
	applier := NewApplier(st, nil)

	result := applier.ApplyActions(context.Background(), []Decision{
		{TaskID: "t-del", Action: ActionDelete},
		{TaskID: "t-gone", Action: ActionDelete},
		{TaskID: "t-some", Action: ActionSomeday},
		{TaskID: "t-some", Action: "promote"},
	})

	assert.Equal(t, 1, result.DeletedTasks)
	assert.Equal(t, 1, result.MovedToSomeday)
	assert.Equal(t, "いつかやる 1件 / 削除 1件", result.Message)

	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "t-gone")
	assert.Contains(t, result.Errors[1], `unknown action "promote"`)
}

func TestApplyActionsAccounting(t *testing.T) {
	st := newFakeStore()
	st.addTask(store.Task{ID: "t-split", Title: "Big", Status: store.TaskStatusNext})
	st.addTask(store.Task{ID: "t-some", Title: "Later", Status: store.TaskStatusNext})
	st.addTask(store.Task{ID: "t-del", Title: "Gone", Status: store.TaskStatusNext})
	applier := NewApplier(st, &stubPlanner{plans: []Plan{
		{ParentTaskID: "t-split", Status: PlanStatusReady, Subtasks: []PlanSubtask{{Title: "Step"}}},
	}})

	decisions := []Decision{
		{TaskID: "t-split", Action: ActionSplit},
		{TaskID: "t-some", Action: ActionSomeday},
		{TaskID: "t-del", Action: ActionDelete},
	}
	result := applier.ApplyActions(context.Background(), decisions)

	// Every decision is accounted for exactly once.
	assert.Empty(t, result.Errors)
	accounted := len(result.SplitTasks) /* one created subtask per pair */
	assert.Equal(t, result.CreatedSubtasks, accounted)
	assert.Equal(t, 1, result.MovedToSomeday)
	assert.Equal(t, 1, result.DeletedTasks)
	assert.Equal(t, "分割 1件 / いつかやる 1件 / 削除 1件", result.Message)
}

func TestNormalizePlanParentsIdempotent(t *testing.T) {
	targets := []SplitTarget{{TaskID: "t1"}, {TaskID: "t2"}, {TaskID: "t3"}}
	plans := []Plan{
		{ParentTaskID: "t2"},
		{ParentTaskID: PlanParentUnset},
		{ParentTaskID: ""},
	}

	normalized := NormalizePlanParents(plans, targets)
	require.Len(t, normalized, 3)
	assert.Equal(t, "t2", normalized[0].ParentTaskID)
	assert.Equal(t, "t1", normalized[1].ParentTaskID)
	assert.Equal(t, "t3", normalized[2].ParentTaskID)

	again := NormalizePlanParents(normalized, targets)
	assert.Equal(t, normalized, again)
}

func TestNormalizePlanParentsQueueExhausted(t *testing.T) {
	targets := []SplitTarget{{TaskID: "t1"}}
	plans := []Plan{
		{ParentTaskID: "t1"},
		{ParentTaskID: PlanParentUnset},
	}

	normalized := NormalizePlanParents(plans, targets)
	assert.Equal(t, "t1", normalized[0].ParentTaskID)
	assert.Equal(t, PlanParentUnset, normalized[1].ParentTaskID)
}
