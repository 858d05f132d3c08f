// Package channels holds the adapters that translate platform-native
// events into bus messages and deliver replies back.
package channels

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/logger"
)

// Channel is one chat platform adapter.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
}

// BaseChannel carries the shared adapter plumbing: inbound publication
// and the sender allowlist.
type BaseChannel struct {
	name      string
	bus       bus.Publisher
	allowFrom []string
	running   atomic.Bool
}

func NewBaseChannel(name string, msgBus bus.Publisher, allowFrom []string) *BaseChannel {
	return &BaseChannel{
		name:      name,
		bus:       msgBus,
		allowFrom: allowFrom,
	}
}

func (b *BaseChannel) Name() string {
	return b.name
}

func (b *BaseChannel) IsRunning() bool {
	return b.running.Load()
}

func (b *BaseChannel) setRunning(running bool) {
	b.running.Store(running)
}

// IsAllowed checks the sender against the allowlist. An empty list
// admits everyone. Entries match the whole ID or any "|"-separated
// part of it (platforms report "id|username" composites).
func (b *BaseChannel) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	parts := strings.Split(senderID, "|")
	for _, allowed := range b.allowFrom {
		if allowed == senderID {
			return true
		}
		for _, p := range parts {
			if allowed == p {
				return true
			}
		}
	}
	return false
}

// HandleMessage publishes a platform event onto the inbound queue.
func (b *BaseChannel) HandleMessage(senderID, chatID, content string, media []string, metadata map[string]string) {
	if !b.IsAllowed(senderID) {
		logger.DebugCF(b.name, "Message rejected by allowlist", map[string]interface{}{
			"sender_id": senderID,
		})
		return
	}

	b.bus.PublishInbound(bus.InboundMessage{
		Channel:  b.name,
		SenderID: senderID,
		ChatID:   chatID,
		Content:  content,
		Media:    media,
		Metadata: metadata,
	})
}
