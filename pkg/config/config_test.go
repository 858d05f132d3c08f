// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Agents.Defaults.Provider)
	assert.Equal(t, 20, cfg.Agents.Defaults.MaxToolIterations)
	assert.Equal(t, 8192, cfg.Agents.Defaults.MaxTokens)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"agents": {
			"defaults": {
				"provider": "openai",
				"model": "gpt-4o",
				"workspace": "/tmp/ws",
				"max_tool_iterations": 5
			}
		}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Agents.Defaults.Provider)
	assert.Equal(t, "gpt-4o", cfg.Agents.Defaults.Model)
	assert.Equal(t, 5, cfg.Agents.Defaults.MaxToolIterations)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SKIFF_MODEL", "claude-opus-4")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok-from-env")

	path := writeConfig(t, `{
		"agents": {"defaults": {"model": "from-file"}},
		"channels": {"telegram": {"enabled": true, "token": "tok-from-file"}}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "claude-opus-4", cfg.Agents.Defaults.Model)
	assert.Equal(t, "tok-from-env", cfg.Channels.Telegram.Token)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate_DuplicateAgentID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agents.List = []AgentConfig{
		{ID: "Sales"},
		{ID: "sales "},
	}
	assert.Error(t, cfg.Validate())
}

func TestGetAgent_NormalizesID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agents.List = []AgentConfig{{ID: "Support", Name: "Support Agent"}}

	agent, ok := cfg.GetAgent("  support ")
	require.True(t, ok)
	assert.Equal(t, "Support Agent", agent.Name)

	_, ok = cfg.GetAgent("missing")
	assert.False(t, ok)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Agents.Defaults.Model = "claude-sonnet-4-20250514"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Agents.Defaults.Model, loaded.Agents.Defaults.Model)
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "x"), ExpandHome("~/x"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "", ExpandHome(""))
}
