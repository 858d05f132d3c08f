package tools

import (
	"context"
	"fmt"
	"sync"
)

type SendCallback func(channel, chatID, content string) error

// MessageTool sends a message to the user mid-turn. Sends are tracked
// per session key so the turn engine can suppress a duplicate final
// reply; per-session serialization keeps that tracking race-free.
type MessageTool struct {
	sendCallback SendCallback

	mu   sync.Mutex
	sent map[string]bool
}

func NewMessageTool() *MessageTool {
	return &MessageTool{
		sent: make(map[string]bool),
	}
}

func (t *MessageTool) Name() string {
	return "message"
}

func (t *MessageTool) Description() string {
	return "Send a message to user on a chat channel. Use this when you want to communicate something."
}

func (t *MessageTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "The message content to send",
			},
			"channel": map[string]interface{}{
				"type":        "string",
				"description": "Optional: target channel (telegram, whatsapp, etc.)",
			},
			"chat_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional: target chat/user ID",
			},
		},
		"required": []string{"content"},
	}
}

func (t *MessageTool) SetSendCallback(callback SendCallback) {
	t.sendCallback = callback
}

// BeginTurn resets send tracking for a session before a new turn.
func (t *MessageTool) BeginTurn(sessionKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sent, sessionKey)
}

// SentInTurn reports whether a message went out during the current
// turn of the given session.
func (t *MessageTool) SentInTurn(sessionKey string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sent[sessionKey]
}

func (t *MessageTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	content, ok := args["content"].(string)
	if !ok {
		return ErrorResult("content is required")
	}

	channel, _ := args["channel"].(string)
	chatID, _ := args["chat_id"].(string)

	if channel == "" {
		channel = tc.Channel
	}
	if chatID == "" {
		chatID = tc.ChatID
	}

	if channel == "" || chatID == "" {
		return ErrorResult("No target channel/chat specified")
	}

	if t.sendCallback == nil {
		return ErrorResult("Message sending not configured")
	}

	if err := t.sendCallback(channel, chatID, content); err != nil {
		return ErrorResult(fmt.Sprintf("sending message: %v", err)).WithError(err)
	}

	if tc.SessionKey != "" {
		t.mu.Lock()
		t.sent[tc.SessionKey] = true
		t.mu.Unlock()
	}

	// Silent: user already received the message directly.
	return SilentResult(fmt.Sprintf("Message sent to %s:%s", channel, chatID))
}
