package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/constants"
	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/providers"
	"github.com/skiff-ai/skiff/pkg/utils"
)

const subagentSystemPrompt = `You are a subagent executing a single focused task.
Complete the task using the tools available to you, then reply with a concise
summary of the outcome. Do not start conversations or ask questions.`

// SubagentManager runs background tasks in their own bounded tool
// loops. Completion is announced back to the originating chat through
// the message bus as a system message.
type SubagentManager struct {
	provider  providers.LLMProvider
	model     string
	workspace string
	msgBus    bus.Publisher

	maxTokens   int
	temperature float64

	mu      sync.Mutex
	running map[string]string // task ID -> label
	wg      sync.WaitGroup
}

func NewSubagentManager(provider providers.LLMProvider, model, workspace string, msgBus bus.Publisher) *SubagentManager {
	return &SubagentManager{
		provider:  provider,
		model:     model,
		workspace: workspace,
		msgBus:    msgBus,
		running:   make(map[string]string),
	}
}

// SetLLMOptions overrides the token and temperature settings used for
// subagent tool loops.
func (m *SubagentManager) SetLLMOptions(maxTokens int, temperature float64) {
	m.maxTokens = maxTokens
	m.temperature = temperature
}

// ActiveTasks returns the labels of currently running tasks.
func (m *SubagentManager) ActiveTasks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	labels := make([]string, 0, len(m.running))
	for _, label := range m.running {
		labels = append(labels, label)
	}
	return labels
}

// Wait blocks until all running subagents have finished.
func (m *SubagentManager) Wait() {
	m.wg.Wait()
}

// Spawn starts a background task and returns immediately with a short
// acknowledgement for the model.
func (m *SubagentManager) Spawn(ctx context.Context, task, label, originChannel, originChatID string, callback AsyncCallback) (string, error) {
	if strings.TrimSpace(task) == "" {
		return "", fmt.Errorf("task is required")
	}

	taskID := uuid.New().String()[:8]
	displayLabel := label
	if displayLabel == "" {
		displayLabel = "(unnamed)"
	}

	m.mu.Lock()
	m.running[taskID] = displayLabel
	m.mu.Unlock()

	logger.InfoCF("subagent", "Spawning subagent", map[string]interface{}{
		"task_id": taskID,
		"label":   displayLabel,
	})

	m.wg.Add(1)
	go m.run(context.WithoutCancel(ctx), taskID, task, displayLabel, originChannel, originChatID, callback)

	return fmt.Sprintf("Subagent [%s] started for task %s. It will report back when done.", displayLabel, taskID), nil
}

func (m *SubagentManager) run(ctx context.Context, taskID, task, label, originChannel, originChatID string, callback AsyncCallback) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		delete(m.running, taskID)
		m.mu.Unlock()
	}()

	registry := NewRegistry()
	registry.Register(NewReadFileTool(m.workspace, false))
	registry.Register(NewWriteFileTool(m.workspace, false))
	registry.Register(NewEditFileTool(m.workspace, false))
	registry.Register(NewAppendFileTool(m.workspace, false))
	registry.Register(NewListDirTool(m.workspace, false))
	registry.Register(NewExecTool(m.workspace, false))

	llmOpts := map[string]any{}
	if m.maxTokens > 0 {
		llmOpts["max_tokens"] = m.maxTokens
	}
	if m.temperature > 0 {
		llmOpts["temperature"] = m.temperature
	}

	messages := []providers.Message{
		{Role: "system", Content: subagentSystemPrompt},
		{Role: "user", Content: task},
	}

	tc := ToolContext{
		Channel:    originChannel,
		ChatID:     originChatID,
		SessionKey: originChannel + ":" + originChatID,
	}

	loopResult, err := RunToolLoop(ctx, ToolLoopConfig{
		Provider:      m.provider,
		Model:         m.model,
		Tools:         registry,
		MaxIterations: 10,
		LLMOptions:    llmOpts,
	}, messages, tc)

	var outcome string
	var isErr bool
	if err != nil {
		outcome = fmt.Sprintf("Task failed: %v", err)
		isErr = true
		logger.ErrorCF("subagent", "Subagent task failed", map[string]interface{}{
			"task_id": taskID,
			"label":   label,
			"error":   err.Error(),
		})
	} else {
		outcome = loopResult.Content
		if outcome == "" {
			outcome = "Background task completed."
		}
		logger.InfoCF("subagent", "Subagent task completed", map[string]interface{}{
			"task_id":    taskID,
			"label":      label,
			"iterations": loopResult.Iterations,
		})
	}

	m.announce(taskID, label, outcome, originChannel, originChatID)

	if callback != nil {
		result := &ToolResult{
			ForLLM:  fmt.Sprintf("Subagent [%s]: %s", label, outcome),
			ForUser: utils.Truncate(outcome, 500),
			IsError: isErr,
		}
		callback(ctx, result)
	}
}

// announce feeds the completion report back through the bus as a
// system message. The origin is encoded in the chat ID so the turn
// engine can route the announcement to the right conversation.
func (m *SubagentManager) announce(taskID, label, outcome, originChannel, originChatID string) {
	if m.msgBus == nil {
		return
	}

	content := fmt.Sprintf("Task '%s' completed.\n\nResult:\n%s", label, outcome)
	m.msgBus.PublishInbound(bus.InboundMessage{
		Channel:  constants.ChannelSystem,
		SenderID: "subagent",
		ChatID:   originChannel + ":" + originChatID,
		Content:  content,
		Metadata: map[string]string{"task_id": taskID},
	})
}
