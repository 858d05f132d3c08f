// Skiff - Async conversational agent runtime
// License: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/skiff-ai/skiff/pkg/agent"
	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/channels"
	"github.com/skiff-ai/skiff/pkg/config"
	"github.com/skiff-ai/skiff/pkg/crm"
	"github.com/skiff-ai/skiff/pkg/cron"
	"github.com/skiff-ai/skiff/pkg/heartbeat"
	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/providers"
	"github.com/skiff-ai/skiff/pkg/tools"
)

func gatewayCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	provider, modelID, err := providers.CreateProvider(cfg)
	if err != nil {
		fmt.Printf("Error creating provider: %v\n", err)
		os.Exit(1)
	}
	if modelID != "" {
		cfg.Agents.Defaults.Model = modelID
	}

	msgBus := bus.NewMessageBus()
	defer msgBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := agent.InstanceDeps{
		Provider: provider,
		Bus:      msgBus,
	}
	if cfg.Cron.Enabled {
		deps.Cron = cron.NewService(getCronStorePath(), msgBus)
	}
	if cfg.CRM.Enabled {
		deps.CRM = crm.NewClient(cfg.CRM.BaseURL, cfg.CRM.APIKey, nil)
	}

	loops := buildAgentLoops(cfg, msgBus, deps)
	if len(loops) == 0 {
		fmt.Println("No agents configured")
		os.Exit(1)
	}

	var wg sync.WaitGroup
	for _, loop := range loops {
		wg.Add(1)
		go func(al *agent.AgentLoop) {
			defer wg.Done()
			if err := al.Run(ctx); err != nil && ctx.Err() == nil {
				logger.ErrorCF("gateway", "Agent loop stopped", map[string]interface{}{
					"agent": al.Agent().ID,
					"error": err.Error(),
				})
			}
		}(loop)
	}

	channelManager, err := channels.NewManager(cfg, msgBus)
	if err != nil {
		fmt.Printf("Error building channels: %v\n", err)
		os.Exit(1)
	}
	channelManager.StartAll(ctx)
	go channelManager.Run(ctx)

	if deps.Cron != nil {
		deps.Cron.Start(ctx)
	}

	hb := startHeartbeat(ctx, cfg, loops[0])

	logger.InfoCF("gateway", "Gateway running", map[string]interface{}{
		"agents":   len(loops),
		"channels": channelManager.Names(),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.InfoC("gateway", "Shutting down")
	if hb != nil {
		hb.Stop()
	}
	if deps.Cron != nil {
		deps.Cron.Stop()
	}
	channelManager.StopAll(ctx)
	for _, loop := range loops {
		loop.Stop()
	}
	cancel()
	wg.Wait()
	logger.InfoC("gateway", "Goodbye")
}

// buildAgentLoops creates one loop per configured agent profile, or a
// single implicit main agent when no profiles are listed.
func buildAgentLoops(cfg *config.Config, msgBus bus.Broker, deps agent.InstanceDeps) []*agent.AgentLoop {
	var loops []*agent.AgentLoop

	if len(cfg.Agents.List) == 0 {
		instance := agent.NewAgentInstance(nil, cfg, deps)
		return append(loops, agent.NewAgentLoop(instance, msgBus))
	}

	for i := range cfg.Agents.List {
		instance := agent.NewAgentInstance(&cfg.Agents.List[i], cfg, deps)
		loops = append(loops, agent.NewAgentLoop(instance, msgBus))
	}
	return loops
}

func startHeartbeat(ctx context.Context, cfg *config.Config, loop *agent.AgentLoop) *heartbeat.HeartbeatService {
	hb := heartbeat.NewHeartbeatService(loop.Agent().Workspace, cfg.Heartbeat.IntervalMin, cfg.Heartbeat.Enabled)
	hb.SetHandler(func(prompt, channel, chatID string) *tools.ToolResult {
		response, err := loop.ProcessHeartbeat(ctx, prompt, channel, chatID)
		if err != nil {
			return tools.ErrorResult(err.Error())
		}
		return tools.SuccessResult(response)
	})
	if err := hb.Start(); err != nil {
		logger.WarnCF("gateway", "Heartbeat not started", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return hb
}
