package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skiff-ai/skiff/pkg/providers"
	"github.com/skiff-ai/skiff/pkg/skills"
)

func newTestContextBuilder(t *testing.T) *ContextBuilder {
	t.Helper()
	workspace := t.TempDir()
	return NewContextBuilder("helper", workspace, "", NewMemoryStore(workspace))
}

func TestBuildMessagesShape(t *testing.T) {
	cb := newTestContextBuilder(t)

	history := []providers.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	messages := cb.BuildMessages(history, "new question", nil, "telegram", "42")

	if len(messages) != 4 {
		t.Fatalf("Got %d messages, want system + 2 history + user", len(messages))
	}
	if messages[0].Role != "system" {
		t.Errorf("First message role = %s", messages[0].Role)
	}
	if messages[3].Role != "user" || messages[3].Content != "new question" {
		t.Errorf("Last message = %+v", messages[3])
	}
}

func TestBuildMessagesSessionContext(t *testing.T) {
	cb := newTestContextBuilder(t)

	messages := cb.BuildMessages(nil, "hi", nil, "telegram", "42")
	system := messages[0].Content
	if !strings.Contains(system, "## Current Session") {
		t.Error("System prompt missing session section")
	}
	if !strings.Contains(system, "Channel: telegram") || !strings.Contains(system, "Chat ID: 42") {
		t.Errorf("Session routing not in system prompt:\n%s", system)
	}

	// No routing section when the origin is unknown.
	messages = cb.BuildMessages(nil, "hi", nil, "", "")
	if strings.Contains(messages[0].Content, "## Current Session") {
		t.Error("Session section present without channel/chat")
	}
}

func TestBuildMessagesMediaReferences(t *testing.T) {
	cb := newTestContextBuilder(t)

	messages := cb.BuildMessages(nil, "look at this", []string{"/tmp/photo.jpg"}, "telegram", "42")
	user := messages[len(messages)-1]
	if !strings.Contains(user.Content, "[media: /tmp/photo.jpg]") {
		t.Errorf("Media reference missing: %q", user.Content)
	}
}

func TestBuildMessagesEmptyContentOmitsUserMessage(t *testing.T) {
	cb := newTestContextBuilder(t)

	messages := cb.BuildMessages(nil, "   ", nil, "telegram", "42")
	if len(messages) != 1 {
		t.Errorf("Blank content should yield only the system message, got %d", len(messages))
	}
}

func TestSystemPromptIncludesBootstrapFiles(t *testing.T) {
	workspace := t.TempDir()
	os.WriteFile(filepath.Join(workspace, "AGENTS.md"), []byte("Always answer in haiku."), 0644)

	cb := NewContextBuilder("helper", workspace, "", NewMemoryStore(workspace))
	prompt := cb.BuildSystemPrompt()
	if !strings.Contains(prompt, "Always answer in haiku.") {
		t.Error("Bootstrap file content missing from system prompt")
	}
	if !strings.Contains(prompt, "## AGENTS.md") {
		t.Error("Bootstrap section header missing")
	}
}

func TestSystemPromptIncludesSkillsCatalog(t *testing.T) {
	workspace := t.TempDir()
	skillDir := filepath.Join(workspace, "skills", "github")
	os.MkdirAll(skillDir, 0755)
	os.WriteFile(filepath.Join(skillDir, "SKILL.md"),
		[]byte("---\nname: github\ndescription: Work with GitHub repos\n---\nUse the gh CLI.\n"), 0644)

	cb := NewContextBuilder("helper", workspace, "", NewMemoryStore(workspace))
	cb.SetSkillsLoader(skills.NewLoader(workspace, ""))

	prompt := cb.BuildSystemPrompt()
	if !strings.Contains(prompt, "# Skills") {
		t.Error("Skills section missing from system prompt")
	}
	if !strings.Contains(prompt, "<name>github</name>") {
		t.Errorf("Skill catalog entry missing:\n%s", prompt)
	}
	// On-demand skills are listed, not inlined.
	if strings.Contains(prompt, "Use the gh CLI.") {
		t.Error("On-demand skill body should not be inlined")
	}
}

func TestSystemPromptInlinesAlwaysSkills(t *testing.T) {
	workspace := t.TempDir()
	skillDir := filepath.Join(workspace, "skills", "core")
	os.MkdirAll(skillDir, 0755)
	os.WriteFile(filepath.Join(skillDir, "SKILL.md"),
		[]byte("---\nname: core\ndescription: standing rules\nalways: true\n---\nNever delete backups.\n"), 0644)

	cb := NewContextBuilder("helper", workspace, "", NewMemoryStore(workspace))
	cb.SetSkillsLoader(skills.NewLoader(workspace, ""))

	prompt := cb.BuildSystemPrompt()
	if !strings.Contains(prompt, "# Active Skills") {
		t.Error("Active skills section missing")
	}
	if !strings.Contains(prompt, "Never delete backups.") {
		t.Error("Always-on skill body not inlined")
	}
}

func TestSystemPromptWithoutSkillsLoader(t *testing.T) {
	cb := newTestContextBuilder(t)
	prompt := cb.BuildSystemPrompt()
	if strings.Contains(prompt, "# Skills") {
		t.Error("Skills section present without a loader")
	}
}

func TestSystemPromptUsesConfiguredPersona(t *testing.T) {
	workspace := t.TempDir()
	cb := NewContextBuilder("billing", workspace, "You handle billing questions only.", NewMemoryStore(workspace))

	prompt := cb.BuildSystemPrompt()
	if !strings.Contains(prompt, "You handle billing questions only.") {
		t.Error("Configured system prompt not used")
	}
}
