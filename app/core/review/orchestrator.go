package review

import (
	"context"
	"fmt"
	"time"

	"clarity/app/pkg/logger"
)

// Options carries the tunables the orchestrator needs; they come from
// the review section of the config file.
type Options struct {
	WindowDays          int
	ZombieThresholdDays int
	Caps                Caps
	Tone                string
}

// Service is the read path: it resolves the window, collects digests,
// asks the engine for each category, and substitutes the fallback
// whenever the engine cannot answer. Categories are independent; one
// failing never degrades the others.
type Service struct {
	store     Store
	engine    SuggestionEngine
	fallback  Fallback
	collector *Collector
	opts      Options
}

// NewService builds the orchestrator. engine may be nil, in which case
// every category is answered by the fallback.
func NewService(st Store, engine SuggestionEngine, opts Options) *Service {
	return &Service{
		store:     st,
		engine:    engine,
		collector: NewCollector(st, opts.Caps),
		opts:      opts,
	}
}

// GenerateInsights runs the whole read path. The only error it can
// return is an unreachable store; engine trouble of any kind is
// absorbed into fallback payloads.
func (s *Service) GenerateInsights(ctx context.Context, req WindowRequest) (InsightsPayload, error) {
	window := ResolveWindow(req, s.opts.WindowDays, s.opts.ZombieThresholdDays)

	digests, err := s.collector.Collect(ctx, window)
	if err != nil {
		return InsightsPayload{}, fmt.Errorf("collect digests: %w", err)
	}

	payload := InsightsPayload{
		Highlights: s.generateHighlights(ctx, digests.Completed),
		Zombies:    s.generateZombies(ctx, digests.Zombies),
		NoteAudits: s.generateNoteAudits(ctx, digests.Notes),
		Meta: GenerationMeta{
			Window:      window,
			GeneratedAt: time.Now().Unix(),
		},
	}
	return payload, nil
}

func (s *Service) generateHighlights(ctx context.Context, digests []TaskDigest) HighlightsPayload {
	if len(digests) == 0 || s.engine == nil {
		return s.fallback.Highlights(digests)
	}

	result, err := safeHighlights(ctx, s.engine, digests, s.opts.Tone)
	if err != nil || len(result.Items) == 0 {
		if err != nil {
			logger.Error("highlights engine unavailable: %v", err)
		}
		return s.fallback.Highlights(digests)
	}

	items := result.Items
	if len(items) > len(digests) {
		items = items[:len(digests)]
	}
	payload := HighlightsPayload{
		Status: StatusReady,
		Intro:  result.Intro,
		Items:  make([]HighlightItem, 0, len(items)),
	}
	if payload.Intro == "" {
		payload.Intro = fmt.Sprintf("You completed %d task(s) in this window.", len(digests))
	}
	for i, item := range items {
		d := digests[i]
		if item.Title == "" {
			item.Title = highlightTitle(d)
		}
		if item.Description == "" {
			item.Description = highlightDescription(d)
		}
		if len(item.SourceTaskIDs) == 0 {
			item.SourceTaskIDs = []string{d.Task.ID}
		}
		payload.Items = append(payload.Items, item)
	}
	return payload
}

func (s *Service) generateZombies(ctx context.Context, digests []TaskDigest) ZombiePayload {
	if len(digests) == 0 || s.engine == nil {
		return s.fallback.Zombies(digests)
	}

	result, err := safeZombieSuggestions(ctx, s.engine, digests, s.opts.Tone)
	if err != nil || len(result.Items) == 0 {
		if err != nil {
			logger.Error("zombie engine unavailable: %v", err)
		}
		return s.fallback.Zombies(digests)
	}

	payload := ZombiePayload{
		Status: StatusReady,
		Tasks:  make([]ZombieTaskInsight, 0, len(digests)),
	}
	for i, d := range digests {
		insight := ZombieTaskInsight{
			TaskID:       d.Task.ID,
			Title:        d.Task.Title,
			StaleDays:    d.StaleDays,
			ProjectTitle: d.ProjectTitle,
			NoteExcerpt:  d.NoteExcerpt,
		}
		if i < len(result.Items) {
			insight.Suggestions = sanitizeSuggestions(result.Items[i].Suggestions)
		}
		if len(insight.Suggestions) == 0 {
			insight.Suggestions = zombieSuggestions(d)
		}
		payload.Tasks = append(payload.Tasks, insight)
	}
	return payload
}

func (s *Service) generateNoteAudits(ctx context.Context, digests []NoteDigest) NoteAuditPayload {
	if len(digests) == 0 || s.engine == nil {
		return s.fallback.NoteAudits(digests)
	}

	result, err := safeNoteAudits(ctx, s.engine, digests, s.opts.Tone)
	if err != nil || len(result.Items) == 0 {
		if err != nil {
			logger.Error("note audit engine unavailable: %v", err)
		}
		return s.fallback.NoteAudits(digests)
	}

	payload := NoteAuditPayload{
		Status: StatusReady,
		Audits: make([]NoteAudit, 0, len(digests)),
	}
	for i, d := range digests {
		fallbackRoute, fallbackGuidance := classifyNote(d)
		audit := NoteAudit{
			NoteID:           d.Note.ID,
			Summary:          noteSummary(d.Note.Title, d.Note.Content),
			RecommendedRoute: fallbackRoute,
			Guidance:         fallbackGuidance,
		}
		if i < len(result.Items) {
			advice := result.Items[i]
			if advice.Summary != "" {
				audit.Summary = truncateRunes(collapseWhitespace(advice.Summary), excerptMaxRunes)
			}
			if validRoute(advice.RecommendedRoute) {
				audit.RecommendedRoute = advice.RecommendedRoute
			}
			if advice.Guidance != "" {
				audit.Guidance = advice.Guidance
			}
		}
		if d.LinkedProject != nil {
			audit.LinkedProjectID = d.LinkedProject.ID
			audit.LinkedProjectTitle = d.LinkedProject.Title
		}
		payload.Audits = append(payload.Audits, audit)
	}
	return payload
}

func sanitizeSuggestions(suggestions []Suggestion) []Suggestion {
	kept := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if !validSuggestionAction(s.Action) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// The safe* wrappers turn an engine panic into a plain error so no
// failure mode escapes the read path.

func safeHighlights(ctx context.Context, engine SuggestionEngine, digests []TaskDigest, tone string) (result HighlightsResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return engine.GenerateHighlights(ctx, digests, tone)
}

func safeZombieSuggestions(ctx context.Context, engine SuggestionEngine, digests []TaskDigest, tone string) (result ZombieResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return engine.GenerateZombieSuggestions(ctx, digests, tone)
}

func safeNoteAudits(ctx context.Context, engine SuggestionEngine, digests []NoteDigest, tone string) (result AuditResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return engine.GenerateNoteAudits(ctx, digests, tone)
}
