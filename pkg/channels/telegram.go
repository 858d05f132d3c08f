package channels

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/config"
	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/utils"
)

// Telegram caps messages at 4096 chars; leave headroom.
const telegramMessageLimit = 4000

type TelegramChannel struct {
	*BaseChannel
	bot     *telego.Bot
	handler *th.BotHandler
}

func NewTelegramChannel(cfg config.TelegramConfig, msgBus bus.Broker) (*TelegramChannel, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", msgBus, cfg.AllowFrom),
		bot:         bot,
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot (polling mode)")

	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{Timeout: 30})
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	bh, err := th.NewBotHandler(c.bot, updates)
	if err != nil {
		return fmt.Errorf("create bot handler: %w", err)
	}
	c.handler = bh

	bh.HandleMessage(func(hctx *th.Context, message telego.Message) error {
		c.handleUpdate(&message)
		return nil
	}, th.Or(th.AnyMessageWithText(), th.AnyMessageWithCaption()))

	c.setRunning(true)
	logger.InfoCF("telegram", "Telegram bot connected", map[string]interface{}{
		"username": c.bot.Username(),
	})

	go bh.Start()
	go func() {
		<-ctx.Done()
		bh.Stop()
	}()

	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.handler != nil {
		c.handler.Stop()
	}
	return nil
}

func (c *TelegramChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("telegram bot not running")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat ID %q: %w", msg.ChatID, err)
	}

	for _, chunk := range utils.SplitMessage(msg.Content, telegramMessageLimit) {
		_, err := c.bot.SendMessage(ctx, &telego.SendMessageParams{
			ChatID: tu.ID(chatID),
			Text:   chunk,
		})
		if err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	}
	return nil
}

func (c *TelegramChannel) handleUpdate(message *telego.Message) {
	if message == nil || message.From == nil {
		return
	}
	user := message.From

	senderID := fmt.Sprintf("%d", user.ID)
	if user.Username != "" {
		senderID = fmt.Sprintf("%d|%s", user.ID, user.Username)
	}

	content := message.Text
	if message.Caption != "" {
		if content != "" {
			content += "\n"
		}
		content += message.Caption
	}
	if content == "" {
		return
	}

	chatID := fmt.Sprintf("%d", message.Chat.ID)
	logger.DebugCF("telegram", "Received message", map[string]interface{}{
		"sender_id": senderID,
		"chat_id":   chatID,
		"preview":   utils.Truncate(content, 50),
	})

	c.HandleMessage(senderID, chatID, content, nil, map[string]string{
		"message_id": fmt.Sprintf("%d", message.MessageID),
		"user_id":    fmt.Sprintf("%d", user.ID),
		"username":   user.Username,
		"is_group":   fmt.Sprintf("%t", message.Chat.Type != "private"),
	})
}
