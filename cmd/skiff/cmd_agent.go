// Skiff - Async conversational agent runtime
// License: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/skiff-ai/skiff/pkg/agent"
	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/providers"
)

func agentCmd() {
	message := ""
	sessionKey := "cli:default"
	modelOverride := ""
	debug := false

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--debug", "-d":
			debug = true
		case "-m", "--message":
			if i+1 < len(args) {
				message = args[i+1]
				i++
			}
		case "-s", "--session":
			if i+1 < len(args) {
				sessionKey = args[i+1]
				i++
			}
		case "--model":
			if i+1 < len(args) {
				modelOverride = args[i+1]
				i++
			}
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
		fmt.Println("🔍 Debug mode enabled")
	}
	logger.Init(level, cfg.Logging.Pretty)

	if modelOverride != "" {
		cfg.Agents.Defaults.Model = modelOverride
	}

	provider, modelID, err := providers.CreateProvider(cfg)
	if err != nil {
		fmt.Printf("Error creating provider: %v\n", err)
		os.Exit(1)
	}
	if modelID != "" {
		cfg.Agents.Defaults.Model = modelID
	}

	msgBus := bus.NewMessageBus()
	instance := agent.NewAgentInstance(nil, cfg, agent.InstanceDeps{
		Provider: provider,
		Bus:      msgBus,
	})
	defer instance.Cleanup()
	agentLoop := agent.NewAgentLoop(instance, msgBus)

	if message != "" {
		ctx := context.Background()
		response, err := agentLoop.ProcessDirect(ctx, message, sessionKey)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n%s %s\n", logo, response)
	} else {
		fmt.Printf("%s Interactive mode (Ctrl+C to exit)\n\n", logo)
		interactiveMode(agentLoop, sessionKey)
	}
}

func interactiveMode(agentLoop *agent.AgentLoop, sessionKey string) {
	prompt := fmt.Sprintf("%s You: ", logo)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".skiff_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(agentLoop, sessionKey)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !handleInput(agentLoop, sessionKey, line) {
			return
		}
	}
}

func simpleInteractiveMode(agentLoop *agent.AgentLoop, sessionKey string) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", logo)
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if !handleInput(agentLoop, sessionKey, line) {
			return
		}
	}
}

// handleInput runs one REPL turn. Returns false when the user asked to
// exit.
func handleInput(agentLoop *agent.AgentLoop, sessionKey, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}
	if input == "exit" || input == "quit" {
		fmt.Println("Goodbye!")
		return false
	}

	response, err := agentLoop.ProcessDirect(context.Background(), input, sessionKey)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return true
	}

	fmt.Printf("\n%s %s\n\n", logo, response)
	return true
}
