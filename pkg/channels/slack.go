package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/config"
	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/utils"
)

const slackMessageLimit = 4000

// SlackChannel connects via Socket Mode so no public HTTP endpoint is
// needed. Chat IDs are either "channel" or "channel:threadTS" when the
// message lives in a thread.
type SlackChannel struct {
	*BaseChannel
	api       *slack.Client
	socket    *socketmode.Client
	botUserID string
	cancel    context.CancelFunc
}

func NewSlackChannel(cfg config.SlackConfig, msgBus bus.Broker) (*SlackChannel, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, fmt.Errorf("slack requires both bot_token and app_token")
	}

	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	socket := socketmode.New(api)

	return &SlackChannel{
		BaseChannel: NewBaseChannel("slack", msgBus, cfg.AllowFrom),
		api:         api,
		socket:      socket,
	}, nil
}

func (c *SlackChannel) Start(ctx context.Context) error {
	logger.InfoC("slack", "Starting Slack bot")

	auth, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}
	c.botUserID = auth.UserID

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go c.eventLoop(runCtx)
	go func() {
		if err := c.socket.RunContext(runCtx); err != nil && runCtx.Err() == nil {
			logger.ErrorCF("slack", "Socket mode stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	c.setRunning(true)
	logger.InfoCF("slack", "Slack bot connected", map[string]interface{}{
		"user": auth.User,
	})
	return nil
}

func (c *SlackChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *SlackChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("slack bot not running")
	}

	channelID := msg.ChatID
	threadTS := ""
	if idx := strings.Index(channelID, ":"); idx > 0 {
		threadTS = channelID[idx+1:]
		channelID = channelID[:idx]
	}

	for _, chunk := range utils.SplitMessage(msg.Content, slackMessageLimit) {
		opts := []slack.MsgOption{slack.MsgOptionText(chunk, false)}
		if threadTS != "" {
			opts = append(opts, slack.MsgOptionTS(threadTS))
		}
		if _, _, err := c.api.PostMessageContext(ctx, channelID, opts...); err != nil {
			return fmt.Errorf("send slack message: %w", err)
		}
	}
	return nil
}

func (c *SlackChannel) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.socket.Events:
			if !ok {
				return
			}
			switch evt.Type {
			case socketmode.EventTypeConnected:
				logger.DebugC("slack", "Socket mode connected")
			case socketmode.EventTypeEventsAPI:
				eventsAPI, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				c.socket.Ack(*evt.Request)
				c.handleEventsAPI(eventsAPI)
			}
		}
	}
}

func (c *SlackChannel) handleEventsAPI(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	msgEvent, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return
	}
	// Skip our own messages, other bots, and edits/deletes.
	if msgEvent.User == "" || msgEvent.User == c.botUserID || msgEvent.BotID != "" || msgEvent.SubType != "" {
		return
	}
	if msgEvent.Text == "" {
		return
	}

	chatID := msgEvent.Channel
	if msgEvent.ThreadTimeStamp != "" {
		chatID = fmt.Sprintf("%s:%s", msgEvent.Channel, msgEvent.ThreadTimeStamp)
	}

	logger.DebugCF("slack", "Received message", map[string]interface{}{
		"sender_id": msgEvent.User,
		"chat_id":   chatID,
		"preview":   utils.Truncate(msgEvent.Text, 50),
	})

	c.HandleMessage(msgEvent.User, chatID, msgEvent.Text, nil, map[string]string{
		"ts":      msgEvent.TimeStamp,
		"user_id": msgEvent.User,
	})
}
