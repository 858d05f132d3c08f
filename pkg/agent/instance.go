// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

package agent

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/config"
	"github.com/skiff-ai/skiff/pkg/constants"
	"github.com/skiff-ai/skiff/pkg/crm"
	"github.com/skiff-ai/skiff/pkg/cron"
	"github.com/skiff-ai/skiff/pkg/providers"
	"github.com/skiff-ai/skiff/pkg/session"
	"github.com/skiff-ai/skiff/pkg/skills"
	"github.com/skiff-ai/skiff/pkg/tools"
)

// DefaultAgentID is the implicit agent used when no profiles are configured.
const DefaultAgentID = "main"

// AgentInstance is one fully configured agent: its own workspace,
// session manager, memory, context builder and tool registry. Served
// channels limit which inbound traffic it claims; nil means all.
type AgentInstance struct {
	ID             string
	Name           string
	Model          string
	Channels       []string
	Workspace      string
	MaxIterations  int
	MaxTokens      int
	Temperature    float64
	MaxHistory     int
	Provider       providers.LLMProvider
	Sessions       *session.Manager
	ContextBuilder *ContextBuilder
	Tools          *tools.Registry
	Memory         *MemoryStore
	Skills         *skills.Loader

	// Typed handles for the tools the turn engine has to consult
	// directly, so no name-string lookup plus type assertion is needed.
	messageTool *tools.MessageTool
	subagents   *tools.SubagentManager

	scratchDir string
}

// InstanceDeps are the process-wide collaborators injected into every
// agent instance at construction.
type InstanceDeps struct {
	Provider providers.LLMProvider
	Bus      bus.Broker
	Cron     *cron.Service
	CRM      *crm.Client
}

// NewAgentInstance builds an agent from its profile (nil for the
// implicit main agent) and the shared defaults.
func NewAgentInstance(agentCfg *config.AgentConfig, cfg *config.Config, deps InstanceDeps) *AgentInstance {
	defaults := &cfg.Agents.Defaults

	workspace := resolveAgentWorkspace(agentCfg, defaults)
	os.MkdirAll(workspace, 0755)

	agentID := DefaultAgentID
	agentName := ""
	systemPrompt := ""
	var served []string
	var handoffAllow []string
	if agentCfg != nil {
		agentID = config.NormalizeAgentID(agentCfg.ID)
		agentName = agentCfg.Name
		systemPrompt = agentCfg.SystemPrompt
		served = agentCfg.Channels
		handoffAllow = agentCfg.Subagents
	}

	model := defaults.Model
	if agentCfg != nil && strings.TrimSpace(agentCfg.Model) != "" {
		model = strings.TrimSpace(agentCfg.Model)
	}

	maxIter := defaults.MaxToolIterations
	if maxIter == 0 {
		maxIter = 20
	}
	maxTokens := defaults.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}
	temperature := 0.7
	if defaults.Temperature != nil {
		temperature = *defaults.Temperature
	}

	restrict := defaults.RestrictToWorkspace
	registry := tools.NewRegistry()
	registry.Register(tools.NewReadFileTool(workspace, restrict))
	registry.Register(tools.NewWriteFileTool(workspace, restrict))
	registry.Register(tools.NewListDirTool(workspace, restrict))
	registry.Register(tools.NewExecTool(workspace, restrict))
	registry.Register(tools.NewEditFileTool(workspace, restrict))
	registry.Register(tools.NewAppendFileTool(workspace, restrict))

	memoryStore := NewMemoryStore(workspace)
	registry.Register(tools.NewMemoryStoreTool(memoryStore))
	registry.Register(tools.NewMemoryDeleteTool(memoryStore))

	if cfg.Tools.Web.Brave.Enabled && cfg.Tools.Web.Brave.APIKey != "" {
		registry.Register(tools.NewWebSearchTool(cfg.Tools.Web.Brave.APIKey, cfg.Tools.Web.Brave.MaxResults))
	}
	registry.Register(tools.NewWebFetchTool())

	messageTool := tools.NewMessageTool()
	messageTool.SetSendCallback(func(channel, chatID, content string) error {
		deps.Bus.PublishOutbound(bus.OutboundMessage{
			Channel: channel,
			ChatID:  chatID,
			Content: content,
		})
		return nil
	})
	registry.Register(messageTool)

	scratchDir, _ := os.MkdirTemp("", "skiff-"+agentID+"-")

	// Subagents run their own bounded tool loop in the scratch dir so
	// background file churn stays out of the agent workspace.
	subagentWorkspace := scratchDir
	if subagentWorkspace == "" {
		subagentWorkspace = workspace
	}
	subagentManager := tools.NewSubagentManager(deps.Provider, model, subagentWorkspace, deps.Bus)
	subagentManager.SetLLMOptions(maxTokens, temperature)
	registry.Register(tools.NewSpawnTool(subagentManager))

	var peers []string
	for _, a := range cfg.Agents.List {
		if id := config.NormalizeAgentID(a.ID); id != agentID {
			peers = append(peers, id)
		}
	}
	if len(peers) > 0 {
		handoffTool := tools.NewHandoffTool(deps.Bus, agentID, peers)
		if len(handoffAllow) > 0 {
			handoffTool.SetAllowlist(handoffAllow)
		}
		registry.Register(handoffTool)
	}

	if deps.Cron != nil {
		registry.Register(tools.NewCronTool(deps.Cron))
	}
	if deps.CRM != nil {
		registry.Register(tools.NewCustomerTool(deps.CRM))
	}

	sessions := session.NewManager(filepath.Join(workspace, "sessions"))

	skillsLoader := skills.NewLoader(workspace, skills.DefaultGlobalDir())

	contextBuilder := NewContextBuilder(agentName, workspace, systemPrompt, memoryStore)
	contextBuilder.SetToolsRegistry(registry)
	contextBuilder.SetSkillsLoader(skillsLoader)

	return &AgentInstance{
		ID:             agentID,
		Name:           agentName,
		Model:          model,
		Channels:       served,
		Workspace:      workspace,
		MaxIterations:  maxIter,
		MaxTokens:      maxTokens,
		Temperature:    temperature,
		MaxHistory:     50,
		Provider:       deps.Provider,
		Sessions:       sessions,
		ContextBuilder: contextBuilder,
		Tools:          registry,
		Memory:         memoryStore,
		Skills:         skillsLoader,
		messageTool:    messageTool,
		subagents:      subagentManager,
		scratchDir:     scratchDir,
	}
}

// ServesChannel reports whether this agent claims messages on the
// given channel. The system channel is always claimed.
func (a *AgentInstance) ServesChannel(channel string) bool {
	if channel == constants.ChannelSystem {
		return true
	}
	if len(a.Channels) == 0 {
		return true
	}
	for _, c := range a.Channels {
		if c == channel {
			return true
		}
	}
	return false
}

// MessageTool returns the typed send-message capability.
func (a *AgentInstance) MessageTool() *tools.MessageTool {
	return a.messageTool
}

// Subagents returns the background task manager.
func (a *AgentInstance) Subagents() *tools.SubagentManager {
	return a.subagents
}

// Cleanup waits for in-flight subagents and removes the scratch dir.
func (a *AgentInstance) Cleanup() {
	if a.subagents != nil {
		a.subagents.Wait()
	}
	if a.scratchDir != "" {
		os.RemoveAll(a.scratchDir)
		a.scratchDir = ""
	}
}

func resolveAgentWorkspace(agentCfg *config.AgentConfig, defaults *config.AgentDefaults) string {
	if agentCfg != nil && strings.TrimSpace(agentCfg.Workspace) != "" {
		return config.ExpandHome(strings.TrimSpace(agentCfg.Workspace))
	}
	if agentCfg == nil || agentCfg.Default || config.NormalizeAgentID(agentCfg.ID) == DefaultAgentID {
		return config.ExpandHome(defaults.Workspace)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".skiff", "workspace-"+config.NormalizeAgentID(agentCfg.ID))
}
