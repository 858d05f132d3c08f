package channels

import (
	"context"
	"fmt"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/config"
	"github.com/skiff-ai/skiff/pkg/logger"
)

// Manager starts the configured adapters and fans outbound messages
// to whichever adapter owns the target channel.
type Manager struct {
	bus      bus.Broker
	channels map[string]Channel
}

// NewManager builds adapters for every enabled channel in cfg.
func NewManager(cfg *config.Config, msgBus bus.Broker) (*Manager, error) {
	m := &Manager{
		bus:      msgBus,
		channels: make(map[string]Channel),
	}

	if cfg.Channels.Telegram.Enabled {
		ch, err := NewTelegramChannel(cfg.Channels.Telegram, msgBus)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		m.Register(ch)
	}
	if cfg.Channels.Discord.Enabled {
		ch, err := NewDiscordChannel(cfg.Channels.Discord, msgBus)
		if err != nil {
			return nil, fmt.Errorf("discord: %w", err)
		}
		m.Register(ch)
	}
	if cfg.Channels.Slack.Enabled {
		ch, err := NewSlackChannel(cfg.Channels.Slack, msgBus)
		if err != nil {
			return nil, fmt.Errorf("slack: %w", err)
		}
		m.Register(ch)
	}
	if cfg.Channels.WhatsApp.Enabled {
		ch, err := NewWhatsAppChannel(cfg.Channels.WhatsApp, msgBus)
		if err != nil {
			return nil, fmt.Errorf("whatsapp: %w", err)
		}
		m.Register(ch)
	}

	return m, nil
}

func (m *Manager) Register(ch Channel) {
	m.channels[ch.Name()] = ch
}

// Names returns the registered adapter names.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	return names
}

// StartAll starts every adapter. A failing adapter is logged and
// skipped; the rest keep running.
func (m *Manager) StartAll(ctx context.Context) {
	for name, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			logger.ErrorCF("channels", "Failed to start channel", map[string]interface{}{
				"channel": name,
				"error":   err.Error(),
			})
		}
	}
}

func (m *Manager) StopAll(ctx context.Context) {
	for name, ch := range m.channels {
		if err := ch.Stop(ctx); err != nil {
			logger.WarnCF("channels", "Failed to stop channel", map[string]interface{}{
				"channel": name,
				"error":   err.Error(),
			})
		}
	}
}

// Run pumps outbound messages to their adapters until ctx is done.
// Messages for channels without an adapter (cron, cli, system) are
// dropped with a debug log; they have no user to reach.
func (m *Manager) Run(ctx context.Context) {
	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		ch, found := m.channels[msg.Channel]
		if !found {
			logger.DebugCF("channels", "No adapter for outbound channel", map[string]interface{}{
				"channel": msg.Channel,
			})
			continue
		}

		if err := ch.Send(ctx, msg); err != nil {
			logger.ErrorCF("channels", "Failed to deliver message", map[string]interface{}{
				"channel": msg.Channel,
				"chat_id": msg.ChatID,
				"error":   err.Error(),
			})
		}
	}
}
