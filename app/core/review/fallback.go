package review

import (
	"fmt"
	"strings"
)

const (
	splitRationaleMaxRunes = 60

	fallbackNotice = "Suggestions below come from built-in rules; the generation engine was not available."
)

// Fallback is the deterministic, rule-based stand-in for the
// generation engine. It is pure: no store, no network, same output for
// the same digests.
type Fallback struct{}

func (Fallback) Highlights(digests []TaskDigest) HighlightsPayload {
	if len(digests) == 0 {
		return HighlightsPayload{
			Status: StatusFallback,
			Intro:  "Nothing was completed in this window. That happens; pick one small task to carry into next week.",
			Items:  []HighlightItem{},
		}
	}

	payload := HighlightsPayload{
		Status: StatusReady,
		Intro:  fmt.Sprintf("You completed %d task(s) in this window.", len(digests)),
		Items:  make([]HighlightItem, 0, 3),
	}
	for _, d := range digests {
		if len(payload.Items) == 3 {
			break
		}
		payload.Items = append(payload.Items, HighlightItem{
			Title:         highlightTitle(d),
			Description:   highlightDescription(d),
			SourceTaskIDs: []string{d.Task.ID},
		})
	}
	return payload
}

func (Fallback) Zombies(digests []TaskDigest) ZombiePayload {
	payload := ZombiePayload{
		Status:          StatusFallback,
		Tasks:           make([]ZombieTaskInsight, 0, len(digests)),
		FallbackMessage: fallbackNotice,
	}
	for _, d := range digests {
		payload.Tasks = append(payload.Tasks, ZombieTaskInsight{
			TaskID:       d.Task.ID,
			Title:        d.Task.Title,
			StaleDays:    d.StaleDays,
			ProjectTitle: d.ProjectTitle,
			NoteExcerpt:  d.NoteExcerpt,
			Suggestions:  zombieSuggestions(d),
		})
	}
	return payload
}

func (Fallback) NoteAudits(digests []NoteDigest) NoteAuditPayload {
	payload := NoteAuditPayload{
		Status:          StatusFallback,
		Audits:          make([]NoteAudit, 0, len(digests)),
		FallbackMessage: fallbackNotice,
	}
	for _, d := range digests {
		route, guidance := classifyNote(d)
		audit := NoteAudit{
			NoteID:           d.Note.ID,
			Summary:          noteSummary(d.Note.Title, d.Note.Content),
			RecommendedRoute: route,
			Guidance:         guidance,
		}
		if d.LinkedProject != nil {
			audit.LinkedProjectID = d.LinkedProject.ID
			audit.LinkedProjectTitle = d.LinkedProject.Title
		}
		payload.Audits = append(payload.Audits, audit)
	}
	return payload
}

func highlightTitle(d TaskDigest) string {
	if d.ProjectTitle != "" {
		return d.ProjectTitle
	}
	return d.Task.Title
}

func highlightDescription(d TaskDigest) string {
	if d.Task.Description != "" {
		return d.Task.Description
	}
	if d.NoteExcerpt != "" {
		return d.NoteExcerpt
	}
	return fmt.Sprintf("Worked on %s.", d.Task.Title)
}

// zombieSuggestions always yields exactly four suggestions, in the
// fixed order split, defer, someday, delete.
func zombieSuggestions(d TaskDigest) []Suggestion {
	context := d.NoteExcerpt
	if context == "" {
		context = d.Task.Description
	}
	if context == "" {
		context = d.Task.Title
	}
	context = truncateRunes(collapseWhitespace(context), splitRationaleMaxRunes)

	return []Suggestion{
		{
			Action:    ActionSplit,
			Rationale: fmt.Sprintf("It may be too big to start as-is (%s). Slice off a concrete first step.", context),
			SuggestedSubtasks: []string{
				fmt.Sprintf("Name the very next physical action for %q", d.Task.Title),
				"Reserve a 15-minute starter session for it",
			},
		},
		{
			Action:    ActionDefer,
			Rationale: fmt.Sprintf("Untouched for %d days. A realistic new due date may be all it needs.", d.StaleDays),
		},
		{
			Action:    ActionSomeday,
			Rationale: "If it is not needed soon, park it in Someday/Maybe and free up the active list.",
		},
		{
			Action:    ActionDelete,
			Rationale: "If it has not mattered in weeks, it may never matter. Letting go is a valid outcome.",
		},
	}
}

// classifyNote routes a note by first-match keyword rules over the
// lower-cased title and content.
func classifyNote(d NoteDigest) (string, string) {
	text := strings.ToLower(d.Note.Title + "\n" + d.Note.Content)
	switch {
	case strings.Contains(text, "research") || strings.Contains(text, "investigate") || strings.Contains(text, "look into"):
		return RouteReference, "Reads like research material. File it as reference and revisit when the topic becomes active."
	case strings.Contains(text, "someday"):
		return RouteSomeday, "You already marked this as someday. Park it in Someday/Maybe and rescan during a future review."
	case strings.Contains(text, "?"):
		return RouteReference, "Open questions age better as reference material until they are answered."
	case strings.Count(d.Note.Content, "\n")+1 > 3:
		return RouteTask, "A long note usually hides a concrete next action. Pull one out and capture it as a task."
	default:
		return RouteTask, "Short capture with no special markers. Turn it into a small next action or discard it."
	}
}

func noteSummary(title string, content string) string {
	source := title
	if strings.TrimSpace(source) == "" {
		source = content
	}
	return truncateRunes(collapseWhitespace(source), excerptMaxRunes)
}
