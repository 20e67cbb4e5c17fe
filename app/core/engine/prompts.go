package engine

import (
	"fmt"
	"strings"

	"clarity/app/core/review"
)

const systemPrompt = "You are a weekly review assistant for a personal task manager. " +
	"You summarize finished work, suggest ways to unstick stale tasks, and route unprocessed notes. " +
	"Always answer with a single JSON value and nothing else."

func buildHighlightsPrompt(digests []review.TaskDigest, tone string) string {
	var b strings.Builder
	b.WriteString("Write encouraging highlights for the tasks completed in this review window.\n")
	fmt.Fprintf(&b, "Tone: %s.\n\n", toneOrDefault(tone))
	b.WriteString("Completed tasks:\n")
	for i, d := range digests {
		fmt.Fprintf(&b, "%d. id=%s title=%q", i+1, d.Task.ID, d.Task.Title)
		if d.ProjectTitle != "" {
			fmt.Fprintf(&b, " project=%q", d.ProjectTitle)
		}
		if detail := taskDetail(d); detail != "" {
			fmt.Fprintf(&b, " detail=%q", detail)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nEcho the exact task ids you reference in source_task_ids.\n")
	b.WriteString("Return JSON only, in this shape:\n")
	b.WriteString(`{"intro": "...", "items": [{"title": "...", "description": "...", "source_task_ids": ["..."]}]}`)
	b.WriteString("\n")
	return b.String()
}

func buildZombiePrompt(digests []review.TaskDigest, tone string) string {
	var b strings.Builder
	b.WriteString("These tasks have sat untouched past the staleness threshold. For each one, propose exactly four next moves, one per action: split, defer, someday, delete.\n")
	fmt.Fprintf(&b, "Tone: %s.\n\n", toneOrDefault(tone))
	b.WriteString("Stale tasks:\n")
	for i, d := range digests {
		fmt.Fprintf(&b, "%d. id=%s title=%q stale_days=%d", i+1, d.Task.ID, d.Task.Title, d.StaleDays)
		if d.ProjectTitle != "" {
			fmt.Fprintf(&b, " project=%q", d.ProjectTitle)
		}
		if detail := taskDetail(d); detail != "" {
			fmt.Fprintf(&b, " detail=%q", detail)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nEcho the exact task id in task_id. suggested_subtasks is only meaningful for the split action.\n")
	b.WriteString("Return JSON only, in this shape:\n")
	b.WriteString(`{"tasks": [{"task_id": "...", "suggestions": [{"action": "split|defer|someday|delete", "rationale": "...", "suggested_subtasks": ["..."]}]}]}`)
	b.WriteString("\n")
	return b.String()
}

func buildAuditPrompt(digests []review.NoteDigest, tone string) string {
	var b strings.Builder
	b.WriteString("Route each unprocessed note to its best destination: task, reference, someday, or discard.\n")
	fmt.Fprintf(&b, "Tone: %s.\n\n", toneOrDefault(tone))
	b.WriteString("Unprocessed notes:\n")
	for i, d := range digests {
		fmt.Fprintf(&b, "%d. id=%s title=%q excerpt=%q", i+1, d.Note.ID, d.Note.Title, review.Excerpt(d.Note.Content))
		if d.LinkedProject != nil {
			fmt.Fprintf(&b, " related_project=%q", d.LinkedProject.Title)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nEcho the exact note id in note_id. guidance is one concrete sentence on what to do next.\n")
	b.WriteString("Return JSON only, in this shape:\n")
	b.WriteString(`{"audits": [{"note_id": "...", "summary": "...", "recommended_route": "task|reference|someday|discard", "guidance": "..."}]}`)
	b.WriteString("\n")
	return b.String()
}

func buildPlanPrompt(targets []review.SplitTarget) string {
	var b strings.Builder
	b.WriteString("Break each oversized task into 2 to 5 small concrete subtasks a person can start today.\n\n")
	b.WriteString("Tasks to split:\n")
	for i, t := range targets {
		fmt.Fprintf(&b, "%d. id=%s title=%q stale_days=%d", i+1, t.TaskID, t.Title, t.StaleDays)
		if t.Context != "" {
			fmt.Fprintf(&b, " context=%q", t.Context)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nEcho the exact task id in parent_task_id. Set status to \"failed\" with an empty subtasks list when a task cannot be split sensibly.\n")
	b.WriteString("Return JSON only, in this shape:\n")
	b.WriteString(`{"plans": [{"parent_task_id": "...", "status": "ready|failed", "rationale": "...", "subtasks": [{"title": "...", "description": "...", "first_step_hint": "..."}]}]}`)
	b.WriteString("\n")
	return b.String()
}

func taskDetail(d review.TaskDigest) string {
	if d.Task.Description != "" {
		return review.Excerpt(d.Task.Description)
	}
	return d.NoteExcerpt
}

func toneOrDefault(tone string) string {
	tone = strings.TrimSpace(tone)
	if tone == "" {
		return "supportive"
	}
	return tone
}
