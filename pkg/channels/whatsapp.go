package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/config"
	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/utils"
)

// WhatsAppChannel talks to an external bridge process over a websocket.
// The bridge owns the WhatsApp session; we only exchange JSON frames.
type WhatsAppChannel struct {
	*BaseChannel
	bridgeURL string
	conn      *websocket.Conn
	writeMu   sync.Mutex
	cancel    context.CancelFunc
}

type whatsappFrame struct {
	Type    string   `json:"type"`
	From    string   `json:"from,omitempty"`
	Chat    string   `json:"chat,omitempty"`
	To      string   `json:"to,omitempty"`
	Content string   `json:"content,omitempty"`
	Media   []string `json:"media,omitempty"`
}

func NewWhatsAppChannel(cfg config.WhatsAppConfig, msgBus bus.Broker) (*WhatsAppChannel, error) {
	if cfg.BridgeURL == "" {
		return nil, fmt.Errorf("whatsapp bridge_url is empty")
	}
	return &WhatsAppChannel{
		BaseChannel: NewBaseChannel("whatsapp", msgBus, cfg.AllowFrom),
		bridgeURL:   cfg.BridgeURL,
	}, nil
}

func (c *WhatsAppChannel) Start(ctx context.Context) error {
	logger.InfoCF("whatsapp", "Connecting to bridge", map[string]interface{}{
		"url": c.bridgeURL,
	})

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.bridgeURL, nil)
	if err != nil {
		return fmt.Errorf("dial whatsapp bridge: %w", err)
	}
	c.conn = conn

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.listen(runCtx)

	c.setRunning(true)
	logger.InfoC("whatsapp", "WhatsApp bridge connected")
	return nil
}

func (c *WhatsAppChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("close bridge connection: %w", err)
		}
	}
	return nil
}

func (c *WhatsAppChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() || c.conn == nil {
		return fmt.Errorf("whatsapp bridge not connected")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("whatsapp chat ID is empty")
	}

	frame := whatsappFrame{
		Type:    "message",
		To:      msg.ChatID,
		Content: msg.Content,
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("write to bridge: %w", err)
	}
	return nil
}

func (c *WhatsAppChannel) listen(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && c.IsRunning() {
				logger.WarnCF("whatsapp", "Bridge connection lost", map[string]interface{}{
					"error": err.Error(),
				})
				c.setRunning(false)
			}
			return
		}

		var frame whatsappFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.WarnCF("whatsapp", "Ignoring malformed bridge frame", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		if frame.Type != "message" || frame.Content == "" {
			continue
		}

		chatID := frame.Chat
		if chatID == "" {
			chatID = frame.From
		}

		logger.DebugCF("whatsapp", "Received message", map[string]interface{}{
			"sender_id": frame.From,
			"chat_id":   chatID,
			"preview":   utils.Truncate(frame.Content, 50),
		})

		c.HandleMessage(frame.From, chatID, frame.Content, frame.Media, map[string]string{
			"from": frame.From,
		})
	}
}
