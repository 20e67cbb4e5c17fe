package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Config struct {
	App    AppConfig    `json:"app"`
	Engine EngineConfig `json:"engine"`
	Review ReviewConfig `json:"review"`
}

type AppConfig struct {
	Name string `json:"name"`
}

type EngineConfig struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	APIKeyEnv  string `json:"api_key_env"`
	TimeoutSec int    `json:"timeout_sec"`
	Tone       string `json:"tone"`
}

type ReviewConfig struct {
	WindowDays          int `json:"window_days"`
	ZombieThresholdDays int `json:"zombie_threshold_days"`
	MaxCompleted        int `json:"max_completed"`
	MaxZombies          int `json:"max_zombies"`
	MaxNotes            int `json:"max_notes"`
}

type Manager struct {
	path string
	mu   sync.RWMutex
	cfg  Config
}

func DefaultPath() string {
	return filepath.Join("config", "config.json")
}

func NewManager(path string) (*Manager, error) {
	cfg := defaultConfig()
	mgr := &Manager{
		path: path,
		cfg:  cfg,
	}
	if err := mgr.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if err := mgr.save(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Update(apply func(*Config)) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(&m.cfg)
	applyDefaults(&m.cfg)
	if err := m.saveLocked(); err != nil {
		return Config{}, err
	}
	return m.cfg, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}
	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	m.cfg = fileCfg
	applyDefaults(&m.cfg)
	return nil
}

func (m *Manager) save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0644)
}

func defaultConfig() Config {
	return Config{
		App: AppConfig{
			Name: "Clarity",
		},
		Engine: EngineConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			APIKeyEnv:  "OPENAI_API_KEY",
			TimeoutSec: 60,
			Tone:       "supportive",
		},
		Review: ReviewConfig{
			WindowDays:          7,
			ZombieThresholdDays: 14,
			MaxCompleted:        50,
			MaxZombies:          20,
			MaxNotes:            30,
		},
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.App.Name) == "" {
		cfg.App.Name = "Clarity"
	}
	if strings.TrimSpace(cfg.Engine.Provider) == "" {
		cfg.Engine.Provider = "openai"
	}
	if strings.TrimSpace(cfg.Engine.Model) == "" {
		cfg.Engine.Model = "gpt-4o-mini"
	}
	if strings.TrimSpace(cfg.Engine.APIKeyEnv) == "" {
		switch strings.ToLower(strings.TrimSpace(cfg.Engine.Provider)) {
		case "anthropic":
			cfg.Engine.APIKeyEnv = "ANTHROPIC_API_KEY"
		default:
			cfg.Engine.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if cfg.Engine.TimeoutSec <= 0 {
		cfg.Engine.TimeoutSec = 60
	}
	if strings.TrimSpace(cfg.Engine.Tone) == "" {
		cfg.Engine.Tone = "supportive"
	}
	if cfg.Review.WindowDays <= 0 {
		cfg.Review.WindowDays = 7
	}
	if cfg.Review.ZombieThresholdDays <= 0 {
		cfg.Review.ZombieThresholdDays = 14
	}
	if cfg.Review.MaxCompleted <= 0 {
		cfg.Review.MaxCompleted = 50
	}
	if cfg.Review.MaxZombies <= 0 {
		cfg.Review.MaxZombies = 20
	}
	if cfg.Review.MaxNotes <= 0 {
		cfg.Review.MaxNotes = 30
	}
}
