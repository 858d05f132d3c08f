// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

package providers

import (
	"fmt"
	"strings"

	"github.com/skiff-ai/skiff/pkg/config"
	anthropicprovider "github.com/skiff-ai/skiff/pkg/providers/anthropic"
	openaiprovider "github.com/skiff-ai/skiff/pkg/providers/openai"
)

// CreateProvider builds the LLM provider selected by config, returning
// the provider and the resolved default model.
func CreateProvider(cfg *config.Config) (LLMProvider, string, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Agents.Defaults.Provider))
	model := strings.TrimSpace(cfg.Agents.Defaults.Model)

	switch name {
	case "", "anthropic":
		pc := cfg.Providers.Anthropic
		if pc.APIKey == "" {
			return nil, "", fmt.Errorf("providers.anthropic.api_key is not set")
		}
		p := anthropicprovider.NewProviderWithBaseURL(pc.APIKey, pc.APIBase)
		if model == "" {
			model = p.GetDefaultModel()
		}
		return p, model, nil

	case "openai":
		pc := cfg.Providers.OpenAI
		if pc.APIKey == "" {
			return nil, "", fmt.Errorf("providers.openai.api_key is not set")
		}
		p := openaiprovider.NewProviderWithBaseURL(pc.APIKey, pc.APIBase)
		if model == "" {
			model = p.GetDefaultModel()
		}
		return p, model, nil

	default:
		return nil, "", fmt.Errorf("unknown provider: %s", name)
	}
}
