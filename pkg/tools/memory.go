package tools

import (
	"context"
	"fmt"
)

// ProfileManager interface avoids an import cycle with pkg/agent.
type ProfileManager interface {
	WriteProfileKey(key, value string) error
	DeleteProfileKey(key string) error
}

type MemoryStoreTool struct {
	memoryStore ProfileManager
}

func NewMemoryStoreTool(ms ProfileManager) *MemoryStoreTool {
	return &MemoryStoreTool{memoryStore: ms}
}

func (t *MemoryStoreTool) Name() string {
	return "memory_store"
}

func (t *MemoryStoreTool) Description() string {
	return "Store a permanent fact or user preference in the core profile. Use this to remember long-term information."
}

func (t *MemoryStoreTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"description": "The unique identifier for the memory (e.g., 'user_name', 'coding_lang')",
			},
			"value": map[string]interface{}{
				"type":        "string",
				"description": "The information to remember",
			},
		},
		"required": []string{"key", "value"},
	}
}

func (t *MemoryStoreTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	key, ok1 := args["key"].(string)
	value, ok2 := args["value"].(string)

	if !ok1 || !ok2 {
		return ErrorResult("Missing or invalid 'key' or 'value' parameters")
	}

	if err := t.memoryStore.WriteProfileKey(key, value); err != nil {
		return ErrorResult(fmt.Sprintf("Failed to store memory: %v", err))
	}

	return SuccessResult(fmt.Sprintf("Successfully stored memory: %s = %s", key, value))
}

type MemoryDeleteTool struct {
	memoryStore ProfileManager
}

func NewMemoryDeleteTool(ms ProfileManager) *MemoryDeleteTool {
	return &MemoryDeleteTool{memoryStore: ms}
}

func (t *MemoryDeleteTool) Name() string {
	return "memory_delete"
}

func (t *MemoryDeleteTool) Description() string {
	return "Delete a specific fact or preference from the core profile."
}

func (t *MemoryDeleteTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"description": "The unique identifier of the memory to delete",
			},
		},
		"required": []string{"key"},
	}
}

func (t *MemoryDeleteTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	key, ok := args["key"].(string)
	if !ok {
		return ErrorResult("Missing or invalid 'key' parameter")
	}

	if err := t.memoryStore.DeleteProfileKey(key); err != nil {
		return ErrorResult(fmt.Sprintf("Failed to delete memory: %v", err))
	}

	return SuccessResult(fmt.Sprintf("Successfully deleted memory: %s", key))
}
