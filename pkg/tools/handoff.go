package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/config"
	"github.com/skiff-ai/skiff/pkg/constants"
)

// HandoffTool transfers the current conversation to another agent. It
// publishes the request back onto the bus under the handoff channel;
// the dispatcher owning the target agent claims it from there.
type HandoffTool struct {
	msgBus    bus.Publisher
	agents    []string
	selfID    string
	allowlist []string
}

func NewHandoffTool(msgBus bus.Publisher, selfID string, agents []string) *HandoffTool {
	return &HandoffTool{
		msgBus: msgBus,
		selfID: config.NormalizeAgentID(selfID),
		agents: agents,
	}
}

// SetAllowlist restricts which agents may be handed off to. Empty
// means any known agent.
func (t *HandoffTool) SetAllowlist(agents []string) {
	t.allowlist = agents
}

func (t *HandoffTool) Name() string {
	return "handoff"
}

func (t *HandoffTool) Description() string {
	agentList := strings.Join(t.agents, ", ")
	if agentList == "" {
		agentList = "none configured"
	}
	return fmt.Sprintf("Hand the current conversation off to another agent. Available agents: %s. Include everything the target agent needs to continue, it does not see this conversation.", agentList)
}

func (t *HandoffTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"agent_id": map[string]interface{}{
				"type":        "string",
				"description": "ID of the agent to hand off to",
			},
			"task": map[string]interface{}{
				"type":        "string",
				"description": "Full context and instructions for the target agent",
			},
		},
		"required": []string{"agent_id", "task"},
	}
}

func (t *HandoffTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	agentID, _ := args["agent_id"].(string)
	task, _ := args["task"].(string)

	target := config.NormalizeAgentID(agentID)
	if target == "" {
		return ErrorResult("agent_id is required")
	}
	if task == "" {
		return ErrorResult("task is required")
	}
	if target == t.selfID {
		return ErrorResult("cannot hand off to self")
	}

	if !t.targetKnown(target) {
		return ErrorResult(fmt.Sprintf("unknown agent %q", agentID))
	}
	if !t.targetAllowed(target) {
		return ErrorResult(fmt.Sprintf("not allowed to hand off to agent %q", agentID))
	}

	if t.msgBus == nil {
		return ErrorResult("Handoff not configured")
	}

	t.msgBus.PublishInbound(bus.InboundMessage{
		Channel:  constants.HandoffPrefix + target,
		SenderID: t.selfID,
		ChatID:   tc.ChatID,
		Content:  task,
		Metadata: map[string]string{
			"origin_channel": tc.Channel,
			"origin_chat_id": tc.ChatID,
			"from_agent":     t.selfID,
		},
	})

	return SilentResult(fmt.Sprintf("Conversation handed off to agent %s", target))
}

func (t *HandoffTool) targetKnown(target string) bool {
	for _, a := range t.agents {
		if config.NormalizeAgentID(a) == target {
			return true
		}
	}
	return false
}

func (t *HandoffTool) targetAllowed(target string) bool {
	if len(t.allowlist) == 0 {
		return true
	}
	for _, a := range t.allowlist {
		if config.NormalizeAgentID(a) == target {
			return true
		}
	}
	return false
}
