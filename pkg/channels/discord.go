package channels

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/config"
	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/utils"
)

const discordMessageLimit = 2000

type DiscordChannel struct {
	*BaseChannel
	session   *discordgo.Session
	botUserID string
}

func NewDiscordChannel(cfg config.DiscordConfig, msgBus bus.Broker) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", msgBus, cfg.AllowFrom),
		session:     session,
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord bot")

	// Resolve the bot identity before opening so the message handler
	// can filter self-authored events from the first event on.
	botUser, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("get bot user: %w", err)
	}
	c.botUserID = botUser.ID

	c.session.AddHandler(c.handleMessageCreate)
	c.session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	c.setRunning(true)
	logger.InfoCF("discord", "Discord bot connected", map[string]interface{}{
		"username": botUser.Username,
	})
	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

func (c *DiscordChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("discord bot not running")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	for _, chunk := range utils.SplitMessage(msg.Content, discordMessageLimit) {
		if _, err := c.session.ChannelMessageSend(msg.ChatID, chunk); err != nil {
			return fmt.Errorf("send discord message: %w", err)
		}
	}
	return nil
}

func (c *DiscordChannel) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == c.botUserID || m.Author.Bot {
		return
	}
	if m.Content == "" {
		return
	}

	senderID := m.Author.ID
	if m.Author.Username != "" {
		senderID = fmt.Sprintf("%s|%s", m.Author.ID, m.Author.Username)
	}

	logger.DebugCF("discord", "Received message", map[string]interface{}{
		"sender_id": senderID,
		"chat_id":   m.ChannelID,
		"preview":   utils.Truncate(m.Content, 50),
	})

	c.HandleMessage(senderID, m.ChannelID, m.Content, nil, map[string]string{
		"message_id": m.ID,
		"user_id":    m.Author.ID,
		"username":   m.Author.Username,
		"guild_id":   m.GuildID,
	})
}
