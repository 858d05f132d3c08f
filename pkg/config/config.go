// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the root configuration loaded from config.json.
// Environment variables override file values after parsing.
type Config struct {
	Agents    AgentsConfig    `json:"agents"`
	Channels  ChannelsConfig  `json:"channels"`
	Providers ProvidersConfig `json:"providers"`
	Tools     ToolsConfig     `json:"tools"`
	Cron      CronConfig      `json:"cron"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
	CRM       CRMConfig       `json:"crm"`
	Logging   LoggingConfig   `json:"logging"`
}

type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults"`
	List     []AgentConfig `json:"list,omitempty"`
}

type AgentDefaults struct {
	Provider            string   `json:"provider" env:"SKIFF_PROVIDER"`
	Model               string   `json:"model" env:"SKIFF_MODEL"`
	ModelFallbacks      []string `json:"model_fallbacks,omitempty"`
	Workspace           string   `json:"workspace" env:"SKIFF_WORKSPACE"`
	MaxTokens           int      `json:"max_tokens"`
	Temperature         *float64 `json:"temperature,omitempty"`
	MaxToolIterations   int      `json:"max_tool_iterations"`
	RestrictToWorkspace bool     `json:"restrict_to_workspace"`
}

type AgentConfig struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Default      bool     `json:"default,omitempty"`
	Model        string   `json:"model,omitempty"`
	Workspace    string   `json:"workspace,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Channels     []string `json:"channels,omitempty"`
	Subagents    []string `json:"subagents,omitempty"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
	Slack    SlackConfig    `json:"slack"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token" env:"TELEGRAM_BOT_TOKEN"`
	AllowFrom []string `json:"allow_from,omitempty"`
}

type DiscordConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token" env:"DISCORD_BOT_TOKEN"`
	AllowFrom []string `json:"allow_from,omitempty"`
}

type SlackConfig struct {
	Enabled   bool     `json:"enabled"`
	BotToken  string   `json:"bot_token" env:"SLACK_BOT_TOKEN"`
	AppToken  string   `json:"app_token" env:"SLACK_APP_TOKEN"`
	AllowFrom []string `json:"allow_from,omitempty"`
}

type WhatsAppConfig struct {
	Enabled   bool     `json:"enabled"`
	BridgeURL string   `json:"bridge_url" env:"WHATSAPP_BRIDGE_URL"`
	AllowFrom []string `json:"allow_from,omitempty"`
}

type ProvidersConfig struct {
	Anthropic ProviderConfig `json:"anthropic"`
	OpenAI    ProviderConfig `json:"openai"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	APIBase string `json:"api_base,omitempty"`
}

type ToolsConfig struct {
	Web WebToolsConfig `json:"web"`
}

type WebToolsConfig struct {
	Brave BraveConfig `json:"brave"`
}

type BraveConfig struct {
	Enabled    bool   `json:"enabled"`
	APIKey     string `json:"api_key" env:"BRAVE_API_KEY"`
	MaxResults int    `json:"max_results,omitempty"`
}

type CronConfig struct {
	Enabled bool `json:"enabled"`
}

type HeartbeatConfig struct {
	Enabled     bool `json:"enabled"`
	IntervalMin int  `json:"interval_minutes,omitempty"`
}

type CRMConfig struct {
	Enabled bool   `json:"enabled"`
	BaseURL string `json:"base_url" env:"SKIFF_CRM_URL"`
	APIKey  string `json:"api_key" env:"SKIFF_CRM_API_KEY"`
}

type LoggingConfig struct {
	Level  string `json:"level" env:"SKIFF_LOG_LEVEL"`
	Pretty bool   `json:"pretty"`
}

// DefaultConfig returns a config with sensible defaults for a fresh install.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Agents: AgentsConfig{
			Defaults: AgentDefaults{
				Provider:            "anthropic",
				Model:               "claude-sonnet-4-20250514",
				Workspace:           filepath.Join(home, ".skiff", "workspace"),
				MaxTokens:           8192,
				MaxToolIterations:   20,
				RestrictToWorkspace: false,
			},
		},
		Heartbeat: HeartbeatConfig{
			Enabled:     false,
			IntervalMin: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// LoadConfig reads config.json from path and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes the config as indented JSON.
func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks invariants that would break the runtime later.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Agents.Defaults.Model) == "" {
		return fmt.Errorf("agents.defaults.model is required")
	}
	seen := make(map[string]bool)
	for _, a := range c.Agents.List {
		id := NormalizeAgentID(a.ID)
		if id == "" {
			return fmt.Errorf("agent entry missing id")
		}
		if seen[id] {
			return fmt.Errorf("duplicate agent id: %s", id)
		}
		seen[id] = true
	}
	return nil
}

// WorkspacePath returns the default agent workspace, home-expanded.
func (c *Config) WorkspacePath() string {
	return ExpandHome(c.Agents.Defaults.Workspace)
}

// GetAgent looks up an agent profile by normalized ID.
func (c *Config) GetAgent(id string) (*AgentConfig, bool) {
	id = NormalizeAgentID(id)
	for i := range c.Agents.List {
		if NormalizeAgentID(c.Agents.List[i].ID) == id {
			return &c.Agents.List[i], true
		}
	}
	return nil, false
}

// DefaultAgent returns the profile marked default, or nil when only
// the implicit main agent exists.
func (c *Config) DefaultAgent() *AgentConfig {
	for i := range c.Agents.List {
		if c.Agents.List[i].Default {
			return &c.Agents.List[i]
		}
	}
	if len(c.Agents.List) > 0 {
		return &c.Agents.List[0]
	}
	return nil
}

// NormalizeAgentID lowercases and trims an agent ID so routing and
// handoff targets compare consistently.
func NormalizeAgentID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ExpandHome expands a leading ~ to the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
