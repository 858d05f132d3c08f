package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/skiff-ai/skiff/pkg/providers"
	"github.com/skiff-ai/skiff/pkg/skills"
	"github.com/skiff-ai/skiff/pkg/tools"
)

// ContextBuilder assembles the model-ready message list for a turn:
// system prompt, bounded history, the new user content, and the
// ephemeral routing context of the current request.
type ContextBuilder struct {
	agentName    string
	workspace    string
	systemPrompt string
	memory       *MemoryStore
	skills       *skills.Loader
	tools        *tools.Registry
}

func NewContextBuilder(agentName, workspace, systemPrompt string, memory *MemoryStore) *ContextBuilder {
	return &ContextBuilder{
		agentName:    agentName,
		workspace:    workspace,
		systemPrompt: systemPrompt,
		memory:       memory,
	}
}

// SetToolsRegistry wires the registry used for the tool summary section.
// Called once after all tools are registered.
func (cb *ContextBuilder) SetToolsRegistry(registry *tools.Registry) {
	cb.tools = registry
}

// SetSkillsLoader wires the loader used for the skills sections.
func (cb *ContextBuilder) SetSkillsLoader(loader *skills.Loader) {
	cb.skills = loader
}

func (cb *ContextBuilder) identity() string {
	now := time.Now().Format("2006-01-02 15:04 (Monday)")
	workspacePath, _ := filepath.Abs(cb.workspace)
	rt := fmt.Sprintf("%s %s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())

	name := cb.agentName
	if name == "" {
		name = "skiff"
	}

	persona := cb.systemPrompt
	if persona == "" {
		persona = fmt.Sprintf("You are %s, a helpful AI assistant.", name)
	}

	return fmt.Sprintf(`# %s

%s

## Current Time
%s

## Runtime
%s

## Workspace
Your workspace is at: %s
- Core Profile: %s/memory/profile.json
- Daily Notes: %s/memory/YYYYMM/YYYYMMDD.md

%s

## Important Rules

1. **ALWAYS use tools** - When you need to perform an action (schedule reminders, send messages, execute commands, etc.), you MUST call the appropriate tool. Do NOT just say you'll do it.

2. **Memory management** - Permanent facts about the user go through the 'memory_store' tool; remove them with 'memory_delete'. Never edit files under memory/ with the file or shell tools.`,
		name, persona, now, rt, workspacePath, workspacePath, workspacePath, cb.toolsSection())
}

func (cb *ContextBuilder) toolsSection() string {
	if cb.tools == nil {
		return ""
	}
	names := cb.tools.List()
	if len(names) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Available Tools\n\n")
	for _, name := range names {
		if tool, ok := cb.tools.Get(name); ok {
			fmt.Fprintf(&sb, "- **%s**: %s\n", name, tool.Description())
		}
	}
	return sb.String()
}

// BuildSystemPrompt joins identity, workspace bootstrap files and
// memory context with "---" separators.
func (cb *ContextBuilder) BuildSystemPrompt() string {
	parts := []string{cb.identity()}

	if bootstrap := cb.loadBootstrapFiles(); bootstrap != "" {
		parts = append(parts, bootstrap)
	}

	if cb.memory != nil {
		if memoryContext := cb.memory.MemoryContext(); memoryContext != "" {
			parts = append(parts, memoryContext)
		}
	}

	if cb.skills != nil {
		// Skills marked always are injected in full; the rest appear in
		// the catalog and are loaded by the model on demand.
		if always := cb.skills.AlwaysSkills(); len(always) > 0 {
			if content := cb.skills.ContextFor(always); content != "" {
				parts = append(parts, "# Active Skills\n\n"+content)
			}
		}
		if summary := cb.skills.Summary(); summary != "" {
			parts = append(parts, fmt.Sprintf("# Skills\n\nThe following skills extend your capabilities. To use a skill, read its SKILL.md file with the read_file tool.\n\n%s", summary))
		}
	}

	return strings.Join(parts, "\n\n---\n\n")
}

func (cb *ContextBuilder) loadBootstrapFiles() string {
	var out string
	for _, filename := range []string{"AGENTS.md", "IDENTITY.md"} {
		path := filepath.Join(cb.workspace, filename)
		if data, err := os.ReadFile(path); err == nil {
			out += fmt.Sprintf("## %s\n\n%s\n\n", filename, string(data))
		}
	}
	return out
}

// BuildMessages produces the full message list for one turn. Channel
// and chat ID describe where the reply will go; they are appended to
// the system prompt and never stored on the builder.
func (cb *ContextBuilder) BuildMessages(history []providers.Message, currentMessage string, media []string, channel, chatID string) []providers.Message {
	systemPrompt := cb.BuildSystemPrompt()
	if channel != "" && chatID != "" {
		systemPrompt += fmt.Sprintf("\n\n## Current Session\nChannel: %s\nChat ID: %s", channel, chatID)
	}

	messages := make([]providers.Message, 0, len(history)+2)
	messages = append(messages, providers.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)

	content := strings.TrimSpace(currentMessage)
	if len(media) > 0 {
		var refs []string
		for _, m := range media {
			refs = append(refs, fmt.Sprintf("[media: %s]", m))
		}
		if content != "" {
			content += "\n"
		}
		content += strings.Join(refs, "\n")
	}
	if content != "" {
		messages = append(messages, providers.Message{Role: "user", Content: content})
	}

	return messages
}
