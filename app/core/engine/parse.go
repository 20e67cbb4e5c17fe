package engine

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"clarity/app/core/review"
)

// extractJSONObject pulls the outermost JSON object out of a model
// reply, tolerating code fences and chatty prefixes around it.
func extractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < 0 || end < start {
		return "", fmt.Errorf("no json object in response")
	}
	return text[start : end+1], nil
}

func parseHighlights(text string) (review.HighlightsResult, error) {
	root, err := parseRoot(text)
	if err != nil {
		return review.HighlightsResult{}, err
	}

	result := review.HighlightsResult{
		Intro: strings.TrimSpace(root.Get("intro").String()),
	}
	root.Get("items").ForEach(func(_, item gjson.Result) bool {
		h := review.HighlightItem{
			Title:       strings.TrimSpace(item.Get("title").String()),
			Description: strings.TrimSpace(item.Get("description").String()),
		}
		item.Get("source_task_ids").ForEach(func(_, id gjson.Result) bool {
			if s := strings.TrimSpace(id.String()); s != "" {
				h.SourceTaskIDs = append(h.SourceTaskIDs, s)
			}
			return true
		})
		result.Items = append(result.Items, h)
		return true
	})
	return result, nil
}

func parseZombies(text string) (review.ZombieResult, error) {
	root, err := parseRoot(text)
	if err != nil {
		return review.ZombieResult{}, err
	}

	var result review.ZombieResult
	root.Get("tasks").ForEach(func(_, item gjson.Result) bool {
		advice := review.ZombieAdvice{
			TaskID: strings.TrimSpace(item.Get("task_id").String()),
		}
		item.Get("suggestions").ForEach(func(_, sug gjson.Result) bool {
			s := review.Suggestion{
				Action:    strings.ToLower(strings.TrimSpace(sug.Get("action").String())),
				Rationale: strings.TrimSpace(sug.Get("rationale").String()),
			}
			sug.Get("suggested_subtasks").ForEach(func(_, sub gjson.Result) bool {
				if t := strings.TrimSpace(sub.String()); t != "" {
					s.SuggestedSubtasks = append(s.SuggestedSubtasks, t)
				}
				return true
			})
			advice.Suggestions = append(advice.Suggestions, s)
			return true
		})
		result.Items = append(result.Items, advice)
		return true
	})
	return result, nil
}

func parseAudits(text string) (review.AuditResult, error) {
	root, err := parseRoot(text)
	if err != nil {
		return review.AuditResult{}, err
	}

	var result review.AuditResult
	root.Get("audits").ForEach(func(_, item gjson.Result) bool {
		result.Items = append(result.Items, review.AuditAdvice{
			NoteID:           strings.TrimSpace(item.Get("note_id").String()),
			Summary:          strings.TrimSpace(item.Get("summary").String()),
			RecommendedRoute: strings.ToLower(strings.TrimSpace(item.Get("recommended_route").String())),
			Guidance:         strings.TrimSpace(item.Get("guidance").String()),
		})
		return true
	})
	return result, nil
}

func parsePlans(text string) ([]review.Plan, error) {
	root, err := parseRoot(text)
	if err != nil {
		return nil, err
	}

	var plans []review.Plan
	root.Get("plans").ForEach(func(_, item gjson.Result) bool {
		plan := review.Plan{
			ParentTaskID: strings.TrimSpace(item.Get("parent_task_id").String()),
			Status:       strings.ToLower(strings.TrimSpace(item.Get("status").String())),
			Rationale:    strings.TrimSpace(item.Get("rationale").String()),
		}
		item.Get("subtasks").ForEach(func(_, sub gjson.Result) bool {
			plan.Subtasks = append(plan.Subtasks, review.PlanSubtask{
				Title:         strings.TrimSpace(sub.Get("title").String()),
				Description:   strings.TrimSpace(sub.Get("description").String()),
				FirstStepHint: strings.TrimSpace(sub.Get("first_step_hint").String()),
			})
			return true
		})
		if plan.Status == "" {
			if len(plan.Subtasks) > 0 {
				plan.Status = review.PlanStatusReady
			} else {
				plan.Status = review.PlanStatusFailed
			}
		}
		plans = append(plans, plan)
		return true
	})
	return plans, nil
}

func parseRoot(text string) (gjson.Result, error) {
	payload, err := extractJSONObject(text)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.Valid(payload) {
		return gjson.Result{}, fmt.Errorf("invalid json in response")
	}
	return gjson.Parse(payload), nil
}
