package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration file.
const DefaultPath = "~/.geoai/config.yaml"

// DefaultSystemPrompt describes the geocoding tools to the model.
const DefaultSystemPrompt = `You are a helpful geography assistant with access to these tools:
1. get_coordinates - find the latitude and longitude of a place
2. calculate_distance - calculate the distance between two places
3. reverse_geocode - find the address or place name at given coordinates

Use the tools to answer location questions. Quote the numbers the tools return
and never invent coordinates. If a tool reports that a place was not found or
that the geocoding service failed, say so plainly.`

// Config represents the GeoAI configuration
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Agent    AgentConfig    `yaml:"agent"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LLMConfig holds the selectable models and the one currently in use.
type LLMConfig struct {
	Current   string                 `yaml:"current"`
	Available map[string]ModelConfig `yaml:"available"`
}

// ModelConfig identifies a provider and the model to request from it.
type ModelConfig struct {
	Provider string `yaml:"provider"` // "openai", "claude", "gemini"
	Model    string `yaml:"model"`
}

// AgentConfig configures the agentic loop.
type AgentConfig struct {
	SystemPrompt   string `yaml:"system_prompt"`
	TurnTimeoutSec int    `yaml:"turn_timeout_sec"`
	MaxIterations  int    `yaml:"max_iterations"`
	MaxMessages    int    `yaml:"max_messages"`

	// Computed
	TurnTimeout time.Duration `yaml:"-"`
}

// GeocoderConfig configures the Nominatim client.
type GeocoderConfig struct {
	BaseURL              string `yaml:"base_url"`
	UserAgent            string `yaml:"user_agent"`
	TimeoutSec           int    `yaml:"timeout_sec"`
	Language             string `yaml:"language"`
	MinRequestIntervalMs int    `yaml:"min_request_interval_ms"`

	// Computed
	Timeout            time.Duration `yaml:"-"`
	MinRequestInterval time.Duration `yaml:"-"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
	File  string `yaml:"file"`  // "" discards, "stderr" for console output
}

func defaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Current: "gpt-5-mini",
			Available: map[string]ModelConfig{
				"gpt-5-mini":    {Provider: "openai", Model: "gpt-5-mini"},
				"claude-sonnet": {Provider: "claude", Model: "claude-sonnet-4-20250514"},
				"gemini-flash":  {Provider: "gemini", Model: "gemini-2.0-flash"},
			},
		},
		Agent: AgentConfig{
			SystemPrompt:   DefaultSystemPrompt,
			TurnTimeoutSec: 120,
			MaxIterations:  10,
			MaxMessages:    200,
		},
		Geocoder: GeocoderConfig{
			BaseURL:              "https://nominatim.openstreetmap.org",
			UserAgent:            "geoai_agent_extended",
			TimeoutSec:           10,
			Language:             "en",
			MinRequestIntervalMs: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// CurrentModel returns the model config selected by Current.
func (l LLMConfig) CurrentModel() (ModelConfig, error) {
	mc, ok := l.Available[l.Current]
	if !ok {
		return ModelConfig{}, fmt.Errorf("current model %q not found in available models", l.Current)
	}
	return mc, nil
}

// ModelNames returns the available model keys in sorted order.
func (l LLMConfig) ModelNames() []string {
	names := make([]string, 0, len(l.Available))
	for name := range l.Available {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads the configuration at path on top of the defaults, applies
// environment overrides and derives the computed durations. A missing file
// is not an error. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		expanded, err := expandHome(path)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(expanded)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", expanded, err)
		default:
			// A file that lists models replaces the built-in list.
			defaults := cfg.LLM.Available
			cfg.LLM.Available = nil
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", expanded, err)
			}
			if len(cfg.LLM.Available) == 0 {
				cfg.LLM.Available = defaults
			}
		}
	}

	applyEnvOverrides(cfg)
	cfg.computeFields()

	return cfg, nil
}

// Save writes cfg as YAML to path, creating the parent directory.
func Save(cfg *Config, path string) error {
	expanded, err := expandHome(path)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", expanded, err)
	}
	return nil
}

// envModelKey names the model entry synthesized from GEOAI_LLM_* variables.
const envModelKey = "env"

func applyEnvOverrides(cfg *Config) {
	provider := os.Getenv("GEOAI_LLM_PROVIDER")
	model := os.Getenv("GEOAI_LLM_MODEL")
	if provider != "" || model != "" {
		mc, _ := cfg.LLM.CurrentModel()
		if provider != "" {
			mc.Provider = provider
		}
		if model != "" {
			mc.Model = model
		}
		if cfg.LLM.Available == nil {
			cfg.LLM.Available = make(map[string]ModelConfig)
		}
		cfg.LLM.Available[envModelKey] = mc
		cfg.LLM.Current = envModelKey
	}

	if v := os.Getenv("GEOAI_GEOCODER_URL"); v != "" {
		cfg.Geocoder.BaseURL = v
	}
	if v := os.Getenv("GEOAI_GEOCODER_USER_AGENT"); v != "" {
		cfg.Geocoder.UserAgent = v
	}
	if v := os.Getenv("GEOAI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) computeFields() {
	c.Agent.TurnTimeout = time.Duration(c.Agent.TurnTimeoutSec) * time.Second
	c.Geocoder.Timeout = time.Duration(c.Geocoder.TimeoutSec) * time.Second
	c.Geocoder.MinRequestInterval = time.Duration(c.Geocoder.MinRequestIntervalMs) * time.Millisecond
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
