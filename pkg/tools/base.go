package tools

import "context"

// ToolContext carries the origin of the message being processed. It is
// passed explicitly to every execution instead of being mutated onto
// tools, so concurrent sessions never observe each other's context.
type ToolContext struct {
	Channel    string
	ChatID     string
	SessionKey string
}

// Tool is the interface that all tools must implement.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult
}

// AsyncCallback is invoked by async tools when their background work
// completes. The callback runs on the tool's goroutine.
type AsyncCallback func(ctx context.Context, result *ToolResult)

// AsyncTool is an optional interface for tools that return immediately
// with an AsyncResult and notify completion via the callback.
type AsyncTool interface {
	Tool
	SetCallback(cb AsyncCallback)
}

func ToolToSchema(tool Tool) map[string]interface{} {
	return map[string]interface{}{
		"type": "function",
		"function": map[string]interface{}{
			"name":        tool.Name(),
			"description": tool.Description(),
			"parameters":  tool.Parameters(),
		},
	}
}
