package tools

import (
	"context"
	"fmt"
)

type SpawnTool struct {
	manager  *SubagentManager
	callback AsyncCallback
}

func NewSpawnTool(manager *SubagentManager) *SpawnTool {
	return &SpawnTool{manager: manager}
}

// SetCallback implements AsyncTool for async completion notification.
func (t *SpawnTool) SetCallback(cb AsyncCallback) {
	t.callback = cb
}

func (t *SpawnTool) Name() string {
	return "spawn"
}

func (t *SpawnTool) Description() string {
	return "Spawn a subagent to handle a task in the background. Use this for complex or time-consuming tasks that can run independently. The subagent will complete the task and report back when done."
}

func (t *SpawnTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"task": map[string]interface{}{
				"type":        "string",
				"description": "The task for subagent to complete",
			},
			"label": map[string]interface{}{
				"type":        "string",
				"description": "Optional short label for the task (for display)",
			},
		},
		"required": []string{"task"},
	}
}

func (t *SpawnTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	task, ok := args["task"].(string)
	if !ok {
		return ErrorResult("task is required").WithError(fmt.Errorf("task is required"))
	}

	label, _ := args["label"].(string)

	if t.manager == nil {
		return ErrorResult("Subagent manager not configured")
	}

	originChannel := tc.Channel
	originChatID := tc.ChatID
	if originChannel == "" {
		originChannel = "cli"
	}
	if originChatID == "" {
		originChatID = "direct"
	}

	result, err := t.manager.Spawn(ctx, task, label, originChannel, originChatID, t.callback)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to spawn subagent: %v", err)).WithError(err)
	}

	return AsyncResult(result)
}
