// Skiff - Async conversational agent runtime
// License: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skiff-ai/skiff/pkg/config"
)

const agentsTemplate = `# Agent Notes

Standing instructions for the agent. This file is injected into every
system prompt, so keep it short and operational.
`

const identityTemplate = `# Identity

Describe who the agent is and how it should address people.
`

func onboard() {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Print("Overwrite? (y/n): ")
		var response string
		fmt.Scanln(&response)
		if response != "y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}

	workspace := cfg.WorkspacePath()
	createWorkspaceTemplates(workspace)

	fmt.Printf("%s skiff is ready!\n", logo)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Add your API key to", configPath)
	fmt.Println("     (providers.anthropic.api_key or providers.openai.api_key)")
	fmt.Println("  2. Chat: skiff agent -m \"Hello!\"")
	fmt.Println("  3. Run the gateway: skiff gateway")
}

func createWorkspaceTemplates(workspace string) {
	if err := os.MkdirAll(workspace, 0755); err != nil {
		fmt.Printf("Error creating workspace: %v\n", err)
		return
	}

	templates := map[string]string{
		"AGENTS.md":   agentsTemplate,
		"IDENTITY.md": identityTemplate,
	}
	for name, content := range templates {
		path := filepath.Join(workspace, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			fmt.Printf("Error writing %s: %v\n", name, err)
		}
	}
}
