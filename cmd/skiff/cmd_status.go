// Skiff - Async conversational agent runtime
// License: MIT

package main

import (
	"fmt"
	"os"
)

func statusCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	configPath := getConfigPath()

	fmt.Printf("%s skiff Status\n", logo)
	fmt.Printf("Version: %s\n", formatVersion())
	build, _ := formatBuildInfo()
	if build != "" {
		fmt.Printf("Build: %s\n", build)
	}
	fmt.Println()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config:", configPath, "✓")
	} else {
		fmt.Println("Config:", configPath, "✗")
	}

	workspace := cfg.WorkspacePath()
	if _, err := os.Stat(workspace); err == nil {
		fmt.Println("Workspace:", workspace, "✓")
	} else {
		fmt.Println("Workspace:", workspace, "✗")
	}

	fmt.Printf("Model: %s\n", cfg.Agents.Defaults.Model)

	status := func(set bool) string {
		if set {
			return "✓"
		}
		return "not set"
	}
	fmt.Println("Anthropic API:", status(cfg.Providers.Anthropic.APIKey != ""))
	fmt.Println("OpenAI API:", status(cfg.Providers.OpenAI.APIKey != ""))

	fmt.Println()
	channelState := func(enabled bool) string {
		if enabled {
			return "enabled"
		}
		return "disabled"
	}
	fmt.Println("Telegram:", channelState(cfg.Channels.Telegram.Enabled))
	fmt.Println("Discord:", channelState(cfg.Channels.Discord.Enabled))
	fmt.Println("Slack:", channelState(cfg.Channels.Slack.Enabled))
	fmt.Println("WhatsApp:", channelState(cfg.Channels.WhatsApp.Enabled))
	fmt.Println("Cron:", channelState(cfg.Cron.Enabled))
	fmt.Println("Heartbeat:", channelState(cfg.Heartbeat.Enabled))
	fmt.Println("CRM:", channelState(cfg.CRM.Enabled))

	if len(cfg.Agents.List) > 0 {
		fmt.Println("\nAgents:")
		for _, a := range cfg.Agents.List {
			suffix := ""
			if a.Default {
				suffix = " (default)"
			}
			fmt.Printf("  %s%s\n", a.ID, suffix)
		}
	}
}
