// Skiff - Async conversational agent runtime
// License: MIT

package main

import (
	"fmt"
	"os"

	"github.com/skiff-ai/skiff/pkg/skills"
)

func skillsCmd() {
	if len(os.Args) < 3 {
		skillsHelp()
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	loader := skills.NewLoader(cfg.WorkspacePath(), skills.DefaultGlobalDir())

	switch os.Args[2] {
	case "list":
		skillsListCmd(loader)
	case "show":
		if len(os.Args) < 4 {
			fmt.Println("Usage: skiff skills show <skill-name>")
			return
		}
		skillsShowCmd(loader, os.Args[3])
	default:
		fmt.Printf("Unknown skills command: %s\n", os.Args[2])
		skillsHelp()
	}
}

func skillsHelp() {
	fmt.Println("\nSkills commands:")
	fmt.Println("  list           List installed skills")
	fmt.Println("  show <name>    Show skill content")
	fmt.Println()
	fmt.Println("Skills are directories with a SKILL.md file, under")
	fmt.Println("<workspace>/skills/ or ~/.skiff/skills/.")
}

func skillsListCmd(loader *skills.Loader) {
	allSkills := loader.List()

	if len(allSkills) == 0 {
		fmt.Println("No skills installed.")
		return
	}

	fmt.Println("\nInstalled Skills:")
	fmt.Println("------------------")
	for _, skill := range allSkills {
		fmt.Printf("  ✓ %s (%s)\n", skill.Name, skill.Source)
		if skill.Description != "" {
			fmt.Printf("    %s\n", skill.Description)
		}
	}
}

func skillsShowCmd(loader *skills.Loader, name string) {
	content, ok := loader.Load(name)
	if !ok {
		fmt.Printf("Skill not found: %s\n", name)
		return
	}

	fmt.Printf("\nSkill: %s\n", name)
	fmt.Println("----------------------")
	fmt.Println(content)
}
