// Package engine adapts hosted language models to the review
// pipeline's suggestion and planning contracts. Every failure mode it
// can produce (transport error, timeout, empty or malformed reply) is
// reported as a plain error; the caller decides what to fall back to.
package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	config "clarity/app/configs"
	"clarity/app/core/review"
)

const defaultTimeout = 60 * time.Second

type completer interface {
	complete(ctx context.Context, system string, prompt string) (string, error)
}

type Client struct {
	completer completer
	timeout   time.Duration
}

func NormalizeProviderName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "openai", "open_ai":
		return "openai"
	case "anthropic", "claude":
		return "anthropic"
	default:
		return ""
	}
}

func New(cfg config.EngineConfig) (*Client, error) {
	provider := NormalizeProviderName(cfg.Provider)
	if provider == "" {
		return nil, fmt.Errorf("unknown engine provider: %s", cfg.Provider)
	}
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("engine api key env %s is empty", cfg.APIKeyEnv)
	}

	var c completer
	switch provider {
	case "openai":
		c = newOpenAICompleter(apiKey, cfg.Model)
	case "anthropic":
		c = newAnthropicCompleter(apiKey, cfg.Model)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{completer: c, timeout: timeout}, nil
}

func (c *Client) GenerateHighlights(ctx context.Context, digests []review.TaskDigest, tone string) (review.HighlightsResult, error) {
	out, err := c.invoke(ctx, buildHighlightsPrompt(digests, tone))
	if err != nil {
		return review.HighlightsResult{}, err
	}
	return parseHighlights(out)
}

func (c *Client) GenerateZombieSuggestions(ctx context.Context, digests []review.TaskDigest, tone string) (review.ZombieResult, error) {
	out, err := c.invoke(ctx, buildZombiePrompt(digests, tone))
	if err != nil {
		return review.ZombieResult{}, err
	}
	return parseZombies(out)
}

func (c *Client) GenerateNoteAudits(ctx context.Context, digests []review.NoteDigest, tone string) (review.AuditResult, error) {
	out, err := c.invoke(ctx, buildAuditPrompt(digests, tone))
	if err != nil {
		return review.AuditResult{}, err
	}
	return parseAudits(out)
}

func (c *Client) PlanSubtasks(ctx context.Context, targets []review.SplitTarget) ([]review.Plan, error) {
	out, err := c.invoke(ctx, buildPlanPrompt(targets))
	if err != nil {
		return nil, err
	}
	return parsePlans(out)
}

func (c *Client) invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.completer.complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("empty response")
	}
	return out, nil
}
