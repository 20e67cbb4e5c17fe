package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DefaultConfig returns a normalized copy of the built-in default config.
func DefaultConfig() Config {
	cfg := defaultConfig()
	applyDefaults(&cfg)
	return cfg
}

// NormalizeConfig applies defaults and sanitization to a config copy.
func NormalizeConfig(cfg Config) Config {
	normalized := cfg
	applyDefaults(&normalized)
	return normalized
}

// LoadConfigFile reads and normalizes a config file without mutating it on disk.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// Warnings reports config values that are legal but probably mistakes.
func Warnings(cfg Config) []string {
	warnings := make([]string, 0, 4)
	provider := strings.ToLower(strings.TrimSpace(cfg.Engine.Provider))
	if provider != "openai" && provider != "anthropic" {
		warnings = append(warnings, fmt.Sprintf("unknown engine provider %q, insight generation will fall back to rules", cfg.Engine.Provider))
	}
	if os.Getenv(cfg.Engine.APIKeyEnv) == "" {
		warnings = append(warnings, fmt.Sprintf("env %s is not set, insight generation will fall back to rules", cfg.Engine.APIKeyEnv))
	}
	if cfg.Review.ZombieThresholdDays < cfg.Review.WindowDays {
		warnings = append(warnings, fmt.Sprintf("zombie threshold (%dd) is shorter than the review window (%dd)", cfg.Review.ZombieThresholdDays, cfg.Review.WindowDays))
	}
	if cfg.Engine.TimeoutSec > 300 {
		warnings = append(warnings, fmt.Sprintf("engine timeout %ds is unusually long", cfg.Engine.TimeoutSec))
	}
	return warnings
}
