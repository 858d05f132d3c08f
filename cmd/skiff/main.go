// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/skiff-ai/skiff/pkg/config"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const logo = "⛵"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s skiff %s\n", logo, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "onboard":
		onboard()
	case "agent":
		agentCmd()
	case "gateway":
		gatewayCmd()
	case "cron":
		cronCmd()
	case "skills":
		skillsCmd()
	case "status":
		statusCmd()
	case "version", "--version", "-v":
		printVersion()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s skiff - Async Conversational Agent Runtime v%s\n\n", logo, version)
	fmt.Println("Usage: skiff <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  onboard     Initialize skiff configuration and workspace")
	fmt.Println("  agent       Interact with the agent directly")
	fmt.Println("  gateway     Start the skiff gateway")
	fmt.Println("  cron        Manage scheduled tasks")
	fmt.Println("  skills      List and inspect skills")
	fmt.Println("  status      Show skiff status")
	fmt.Println("  version     Show version information")
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".skiff", "config.json")
}

func getCronStorePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".skiff", "cron.json")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}
