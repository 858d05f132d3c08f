package heartbeat

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/tools"
)

const defaultHeartbeatTemplate = `# Heartbeat Tasks

Describe recurring background work here. On each heartbeat the agent
reads this file and acts on it. Leave it empty to skip heartbeats.
`

// HeartbeatHandler runs one heartbeat prompt through the agent and
// returns the outcome.
type HeartbeatHandler func(prompt, channel, chatID string) *tools.ToolResult

// HeartbeatService periodically wakes the agent with the contents of
// HEARTBEAT.md from the workspace root. Outcomes are appended to
// heartbeat.log next to it.
type HeartbeatService struct {
	workspace   string
	intervalMin int
	enabled     bool
	handler     HeartbeatHandler

	// mu guards stopChan so concurrent Start/Stop calls never
	// double-close it.
	mu       sync.Mutex
	stopChan chan struct{}
}

func NewHeartbeatService(workspace string, intervalMin int, enabled bool) *HeartbeatService {
	if intervalMin <= 0 {
		intervalMin = 30
	}
	return &HeartbeatService{
		workspace:   workspace,
		intervalMin: intervalMin,
		enabled:     enabled,
	}
}

func (hs *HeartbeatService) SetHandler(handler HeartbeatHandler) {
	hs.handler = handler
}

func (hs *HeartbeatService) Start() error {
	if !hs.enabled {
		logger.InfoC("heartbeat", "Heartbeat service disabled")
		return nil
	}
	hs.mu.Lock()
	if hs.stopChan != nil {
		hs.mu.Unlock()
		return fmt.Errorf("heartbeat service already started")
	}
	stop := make(chan struct{})
	hs.stopChan = stop
	hs.mu.Unlock()

	go hs.run(stop)

	logger.InfoCF("heartbeat", "Heartbeat service started", map[string]interface{}{
		"interval_min": hs.intervalMin,
	})
	return nil
}

func (hs *HeartbeatService) Stop() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.stopChan != nil {
		close(hs.stopChan)
		hs.stopChan = nil
	}
}

func (hs *HeartbeatService) run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Duration(hs.intervalMin) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			hs.executeHeartbeat()
		}
	}
}

func (hs *HeartbeatService) executeHeartbeat() {
	if hs.handler == nil {
		return
	}

	prompt := hs.buildPrompt()
	if prompt == "" {
		hs.log("INFO", "HEARTBEAT.md is empty, skipping")
		return
	}

	result := hs.handler(prompt, "heartbeat", "heartbeat")
	switch {
	case result == nil:
		hs.log("WARN", "Heartbeat handler returned no result")
	case result.IsError:
		hs.log("ERROR", result.ForLLM)
	default:
		hs.log("INFO", result.ForLLM)
	}
}

// buildPrompt reads HEARTBEAT.md, creating the default template on
// first use. Returns "" when there is nothing to do.
func (hs *HeartbeatService) buildPrompt() string {
	path := filepath.Join(hs.workspace, "HEARTBEAT.md")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		os.WriteFile(path, []byte(defaultHeartbeatTemplate), 0644)
		return ""
	}
	if err != nil {
		hs.log("ERROR", fmt.Sprintf("reading HEARTBEAT.md: %v", err))
		return ""
	}

	content := string(data)
	if content == "" || content == defaultHeartbeatTemplate {
		return ""
	}
	return content
}

func (hs *HeartbeatService) log(level, message string) {
	path := filepath.Join(hs.workspace, "heartbeat.log")
	line := fmt.Sprintf("%s [%s] %s\n", time.Now().Format(time.RFC3339), level, message)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.WarnCF("heartbeat", "Failed to write heartbeat log", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer f.Close()
	f.WriteString(line)
}
