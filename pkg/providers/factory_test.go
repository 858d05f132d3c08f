// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

package providers

import (
	"testing"

	"github.com/skiff-ai/skiff/pkg/config"
)

func TestCreateProvider(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*config.Config)
		wantErr   bool
		wantModel string
	}{
		{
			name: "anthropic with key",
			setup: func(cfg *config.Config) {
				cfg.Agents.Defaults.Provider = "anthropic"
				cfg.Agents.Defaults.Model = "claude-sonnet-4-20250514"
				cfg.Providers.Anthropic.APIKey = "sk-ant-test"
			},
			wantModel: "claude-sonnet-4-20250514",
		},
		{
			name: "anthropic missing key",
			setup: func(cfg *config.Config) {
				cfg.Agents.Defaults.Provider = "anthropic"
				cfg.Providers.Anthropic.APIKey = ""
			},
			wantErr: true,
		},
		{
			name: "empty provider defaults to anthropic",
			setup: func(cfg *config.Config) {
				cfg.Agents.Defaults.Provider = ""
				cfg.Providers.Anthropic.APIKey = "sk-ant-test"
			},
		},
		{
			name: "openai with key",
			setup: func(cfg *config.Config) {
				cfg.Agents.Defaults.Provider = "openai"
				cfg.Agents.Defaults.Model = "gpt-4o"
				cfg.Providers.OpenAI.APIKey = "sk-test"
			},
			wantModel: "gpt-4o",
		},
		{
			name: "openai missing key",
			setup: func(cfg *config.Config) {
				cfg.Agents.Defaults.Provider = "openai"
			},
			wantErr: true,
		},
		{
			name: "openai empty model falls back to provider default",
			setup: func(cfg *config.Config) {
				cfg.Agents.Defaults.Provider = "openai"
				cfg.Agents.Defaults.Model = ""
				cfg.Providers.OpenAI.APIKey = "sk-test"
			},
			wantModel: "gpt-4o",
		},
		{
			name: "unknown provider",
			setup: func(cfg *config.Config) {
				cfg.Agents.Defaults.Provider = "mystery"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.setup(cfg)

			provider, model, err := CreateProvider(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("CreateProvider() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateProvider() error = %v", err)
			}
			if provider == nil {
				t.Fatal("CreateProvider() returned nil provider")
			}
			if tt.wantModel != "" && model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}
		})
	}
}

func TestNormalizeToolCall(t *testing.T) {
	tests := []struct {
		name     string
		in       ToolCall
		wantName string
		wantArgs string
	}{
		{
			name:     "name from function",
			in:       ToolCall{ID: "1", Function: &FunctionCall{Name: "read_file", Arguments: `{"path":"a"}`}},
			wantName: "read_file",
			wantArgs: "a",
		},
		{
			name:     "already populated",
			in:       ToolCall{ID: "2", Name: "exec", Arguments: map[string]interface{}{"path": "b"}},
			wantName: "exec",
			wantArgs: "b",
		},
		{
			name:     "nil arguments",
			in:       ToolCall{ID: "3", Name: "list_dir"},
			wantName: "list_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeToolCall(tt.in)
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Arguments == nil {
				t.Fatal("Arguments is nil after normalization")
			}
			if got.Function == nil {
				t.Fatal("Function is nil after normalization")
			}
			if tt.wantArgs != "" {
				if got.Arguments["path"] != tt.wantArgs {
					t.Errorf("Arguments[path] = %v, want %q", got.Arguments["path"], tt.wantArgs)
				}
			}
		})
	}
}
