// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/constants"
	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/providers"
	"github.com/skiff-ai/skiff/pkg/tools"
	"github.com/skiff-ai/skiff/pkg/utils"
)

const (
	// inboundPollTimeout bounds each wait on the inbound queue so the
	// stop flag stays observable.
	inboundPollTimeout = time.Second

	// defaultChunkDelay paces multi-chunk replies. The delay runs under
	// this session's lock only; other sessions are unaffected.
	defaultChunkDelay = 800 * time.Millisecond

	fallbackResponse       = "I've completed processing but have no response to give."
	fallbackSystemResponse = "Background task completed."
)

// AgentLoop dispatches inbound messages to one agent instance. It
// claims messages for the channels the agent serves, serializes turns
// per session, and publishes replies to the outbound queue. Several
// loops for differently configured agents may share one bus.
type AgentLoop struct {
	bus     bus.Broker
	agent   *AgentInstance
	running atomic.Bool
	wg      sync.WaitGroup

	// chunkDelay is the pacing between outbound chunks of one reply.
	chunkDelay time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAgentLoop(agent *AgentInstance, msgBus bus.Broker) *AgentLoop {
	return &AgentLoop{
		bus:        msgBus,
		agent:      agent,
		chunkDelay: defaultChunkDelay,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Agent returns the instance this loop dispatches for.
func (al *AgentLoop) Agent() *AgentInstance {
	return al.agent
}

// Run consumes inbound messages until ctx is done or Stop is called.
// Each message is handled on its own goroutine so one slow session
// never blocks consumption. Scratch resources are released on exit.
func (al *AgentLoop) Run(ctx context.Context) error {
	al.running.Store(true)
	logger.InfoCF("agent", "Agent loop started", map[string]interface{}{
		"agent_id": al.agent.ID,
		"channels": al.agent.Channels,
	})

	for al.running.Load() && ctx.Err() == nil {
		pollCtx, cancel := context.WithTimeout(ctx, inboundPollTimeout)
		msg, ok := al.bus.ConsumeInbound(pollCtx)
		cancel()
		if !ok {
			continue
		}

		al.wg.Add(1)
		go func(m bus.InboundMessage) {
			defer al.wg.Done()
			al.handleMessage(ctx, m)
		}(msg)
	}

	al.wg.Wait()
	al.agent.Cleanup()
	logger.InfoCF("agent", "Agent loop stopped", map[string]interface{}{"agent_id": al.agent.ID})
	return nil
}

// Stop ends the run loop after the current poll.
func (al *AgentLoop) Stop() {
	al.running.Store(false)
}

// handleMessage routes one inbound message: handoff rewrite, ownership
// filter, per-session serialization, turn execution, reply publication.
// A failure here is contained to this message.
func (al *AgentLoop) handleMessage(ctx context.Context, msg bus.InboundMessage) {
	if constants.IsHandoffChannel(msg.Channel) {
		target := constants.HandoffTarget(msg.Channel)
		if target != al.agent.ID {
			// Another agent's handoff; give it back untouched.
			al.bus.PublishInbound(msg)
			return
		}
		origin := msg.Metadata["origin_channel"]
		if origin == "" {
			origin = constants.ChannelCLI
		}
		msg = msg.WithChannel(origin)
		logger.InfoCF("agent", "Accepted handoff", map[string]interface{}{
			"agent_id":   al.agent.ID,
			"from_agent": msg.Metadata["from_agent"],
			"channel":    origin,
		})
	}

	if !al.agent.ServesChannel(msg.Channel) {
		// Not ours; republish unchanged so the owning agent can claim it.
		logger.DebugCF("agent", "Republishing unowned message", map[string]interface{}{
			"agent_id": al.agent.ID,
			"channel":  msg.Channel,
		})
		al.bus.PublishInbound(msg)
		return
	}

	req, ok := al.buildTurnRequest(msg)
	if !ok {
		return
	}

	lock := al.sessionLock(req.SessionKey)
	lock.Lock()
	defer lock.Unlock()

	al.agent.MessageTool().BeginTurn(req.SessionKey)

	content, err := al.runTurn(ctx, req)
	if err != nil {
		logger.ErrorCF("agent", "Turn failed", map[string]interface{}{
			"agent_id":    al.agent.ID,
			"session_key": req.SessionKey,
			"error":       err.Error(),
		})
		al.bus.PublishOutbound(bus.OutboundMessage{
			Channel: req.Channel,
			ChatID:  req.ChatID,
			Content: fmt.Sprintf("Sorry, I hit an error processing that: %v", err),
		})
		return
	}

	// The message tool already delivered a reply mid-turn; a second
	// final message would read as a duplicate.
	if al.agent.MessageTool().SentInTurn(req.SessionKey) {
		return
	}

	for i, chunk := range utils.SplitChunks(content) {
		if i > 0 {
			time.Sleep(al.chunkDelay)
		}
		al.bus.PublishOutbound(bus.OutboundMessage{
			Channel: req.Channel,
			ChatID:  req.ChatID,
			Content: chunk,
		})
	}
}

// turnRequest is the resolved identity of one turn: the session it
// belongs to and where the reply goes.
type turnRequest struct {
	SessionKey  string
	Channel     string
	ChatID      string
	UserMessage string
	Media       []string
	Fallback    string
	NoHistory   bool
}

// buildTurnRequest resolves a message to a turn. System messages carry
// their origin encoded in chat_id ("channel:chat_id") and run against
// the origin session so the announcement lands in the conversation
// that spawned the background work. Announcements whose origin is a
// process-internal channel have no user to reach and are dropped.
func (al *AgentLoop) buildTurnRequest(msg bus.InboundMessage) (turnRequest, bool) {
	if msg.Channel != constants.ChannelSystem {
		return turnRequest{
			SessionKey:  msg.SessionKey(),
			Channel:     msg.Channel,
			ChatID:      msg.ChatID,
			UserMessage: msg.Content,
			Media:       msg.Media,
			Fallback:    fallbackResponse,
		}, true
	}

	originChannel := constants.ChannelCLI
	originChatID := msg.ChatID
	if idx := strings.Index(msg.ChatID, ":"); idx > 0 {
		originChannel = msg.ChatID[:idx]
		originChatID = msg.ChatID[idx+1:]
	}

	if constants.IsInternalChannel(originChannel) {
		logger.InfoCF("agent", "Background task completed (internal origin)", map[string]interface{}{
			"sender_id":   msg.SenderID,
			"channel":     originChannel,
			"content_len": len(msg.Content),
		})
		return turnRequest{}, false
	}

	return turnRequest{
		SessionKey:  originChannel + ":" + originChatID,
		Channel:     originChannel,
		ChatID:      originChatID,
		UserMessage: fmt.Sprintf("[System: %s] %s", msg.SenderID, msg.Content),
		Fallback:    fallbackSystemResponse,
	}, true
}

// runTurn executes one bounded model/tool iteration cycle and persists
// the exchange. On failure nothing is persisted; the session stays as
// it was before the turn.
func (al *AgentLoop) runTurn(ctx context.Context, req turnRequest) (string, error) {
	logger.InfoCF("agent", fmt.Sprintf("Processing message: %s", utils.Truncate(req.UserMessage, 80)), map[string]interface{}{
		"agent_id":    al.agent.ID,
		"session_key": req.SessionKey,
		"channel":     req.Channel,
	})

	messages := al.agent.ContextBuilder.BuildMessages(al.historyFor(req), req.UserMessage, req.Media, req.Channel, req.ChatID)

	tc := tools.ToolContext{
		Channel:    req.Channel,
		ChatID:     req.ChatID,
		SessionKey: req.SessionKey,
	}

	result, err := tools.RunToolLoop(ctx, tools.ToolLoopConfig{
		Provider:      al.agent.Provider,
		Model:         al.agent.Model,
		Tools:         al.agent.Tools,
		MaxIterations: al.agent.MaxIterations,
		LLMOptions: map[string]any{
			"max_tokens":  al.agent.MaxTokens,
			"temperature": al.agent.Temperature,
		},
	}, messages, tc)
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(result.Content)
	if content == "" {
		content = req.Fallback
	}

	al.agent.Sessions.AddMessage(req.SessionKey, "user", req.UserMessage)
	al.agent.Sessions.AddMessage(req.SessionKey, "assistant", content)
	if err := al.agent.Sessions.Save(req.SessionKey); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}

	logger.InfoCF("agent", fmt.Sprintf("Response: %s", utils.Truncate(content, 120)), map[string]interface{}{
		"agent_id":    al.agent.ID,
		"session_key": req.SessionKey,
		"iterations":  result.Iterations,
	})
	return content, nil
}

// ProcessDirect runs a turn synchronously for the CLI, bypassing the
// inbound queue but still honoring per-session serialization.
func (al *AgentLoop) ProcessDirect(ctx context.Context, content, sessionKey string) (string, error) {
	return al.ProcessDirectWithChannel(ctx, content, sessionKey, constants.ChannelCLI, "direct")
}

func (al *AgentLoop) ProcessDirectWithChannel(ctx context.Context, content, sessionKey, channel, chatID string) (string, error) {
	lock := al.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	al.agent.MessageTool().BeginTurn(sessionKey)
	return al.runTurn(ctx, turnRequest{
		SessionKey:  sessionKey,
		Channel:     channel,
		ChatID:      chatID,
		UserMessage: content,
		Fallback:    fallbackResponse,
	})
}

// ProcessHeartbeat runs a heartbeat prompt without session history;
// each beat is independent and accumulates no context.
func (al *AgentLoop) ProcessHeartbeat(ctx context.Context, prompt, channel, chatID string) (string, error) {
	sessionKey := "heartbeat"
	lock := al.sessionLock(sessionKey)
	lock.Lock()
	defer lock.Unlock()

	al.agent.MessageTool().BeginTurn(sessionKey)
	return al.runTurn(ctx, turnRequest{
		SessionKey:  sessionKey,
		Channel:     channel,
		ChatID:      chatID,
		UserMessage: prompt,
		Fallback:    fallbackResponse,
		NoHistory:   true,
	})
}

func (al *AgentLoop) historyFor(req turnRequest) []providers.Message {
	if req.NoHistory {
		return nil
	}
	return al.agent.Sessions.History(req.SessionKey, al.agent.MaxHistory)
}

// sessionLock returns the mutex for a session key, creating it on
// first touch. Two near-simultaneous first messages for a new session
// converge on one lock object.
func (al *AgentLoop) sessionLock(key string) *sync.Mutex {
	al.mu.Lock()
	defer al.mu.Unlock()
	if l, ok := al.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	al.locks[key] = l
	return l
}
