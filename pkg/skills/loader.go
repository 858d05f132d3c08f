// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

// Package skills discovers markdown skill packages and prepares them
// for prompt injection. A skill is a directory containing SKILL.md
// with optional YAML frontmatter (name, description, always).
package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/skiff-ai/skiff/pkg/logger"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+)*$`)

const (
	maxNameLength        = 64
	maxDescriptionLength = 1024
)

var frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n*`)

// Info describes one discovered skill.
type Info struct {
	Name        string
	Path        string
	Source      string
	Description string
	Always      bool
}

func (info Info) validate() error {
	if info.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(info.Name) > maxNameLength {
		return fmt.Errorf("name exceeds %d characters", maxNameLength)
	}
	if !namePattern.MatchString(info.Name) {
		return fmt.Errorf("name must be alphanumeric with hyphens")
	}
	if len(info.Description) > maxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", maxDescriptionLength)
	}
	return nil
}

// Loader resolves skills from two tiers: the agent workspace
// (<workspace>/skills) and the shared global directory
// (~/.skiff/skills). Workspace skills shadow global ones by name.
type Loader struct {
	workspaceSkills string
	globalSkills    string
}

func NewLoader(workspace, globalSkills string) *Loader {
	return &Loader{
		workspaceSkills: filepath.Join(workspace, "skills"),
		globalSkills:    globalSkills,
	}
}

// DefaultGlobalDir returns the shared skills directory under the user
// home.
func DefaultGlobalDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".skiff", "skills")
}

// List returns every valid skill, workspace tier first. A global skill
// whose name collides with a workspace skill is omitted.
func (l *Loader) List() []Info {
	skills := l.scanDir(l.workspaceSkills, "workspace", nil)

	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		seen[s.Name] = true
	}
	return append(skills, l.scanDir(l.globalSkills, "global", seen)...)
}

func (l *Loader) scanDir(dir, source string, shadowed map[string]bool) []Info {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var skills []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillFile := filepath.Join(dir, entry.Name(), "SKILL.md")
		if _, err := os.Stat(skillFile); err != nil {
			continue
		}

		info := Info{
			Name:   entry.Name(),
			Path:   skillFile,
			Source: source,
		}
		if meta := readMetadata(skillFile); meta != nil {
			if meta["name"] != "" {
				info.Name = meta["name"]
			}
			info.Description = meta["description"]
			info.Always = meta["always"] == "true"
		}
		if shadowed[info.Name] {
			continue
		}
		if err := info.validate(); err != nil {
			logger.WarnCF("skills", "Skipping invalid skill", map[string]interface{}{
				"path":   skillFile,
				"source": source,
				"error":  err.Error(),
			})
			continue
		}
		skills = append(skills, info)
	}
	return skills
}

// Load returns a skill's body with frontmatter stripped, resolving the
// workspace tier before the global one.
func (l *Loader) Load(name string) (string, bool) {
	for _, dir := range []string{l.workspaceSkills, l.globalSkills} {
		if dir == "" {
			continue
		}
		if content, err := os.ReadFile(filepath.Join(dir, name, "SKILL.md")); err == nil {
			return stripFrontmatter(string(content)), true
		}
	}
	return "", false
}

// AlwaysSkills returns the names of skills marked always: true; their
// full content is injected into every system prompt.
func (l *Loader) AlwaysSkills() []string {
	var names []string
	for _, s := range l.List() {
		if s.Always {
			names = append(names, s.Name)
		}
	}
	return names
}

// ContextFor loads the named skills and formats them as prompt sections.
func (l *Loader) ContextFor(names []string) string {
	var parts []string
	for _, name := range names {
		if content, ok := l.Load(name); ok {
			parts = append(parts, fmt.Sprintf("### Skill: %s\n\n%s", name, content))
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// Summary renders the skill catalog as an XML block for the system
// prompt, so the model can discover skills without loading them.
func (l *Loader) Summary() string {
	skills := l.List()
	if len(skills) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("<skills>\n")
	for _, s := range skills {
		sb.WriteString("  <skill>\n")
		fmt.Fprintf(&sb, "    <name>%s</name>\n", escapeXML(s.Name))
		fmt.Fprintf(&sb, "    <description>%s</description>\n", escapeXML(s.Description))
		fmt.Fprintf(&sb, "    <location>%s</location>\n", escapeXML(s.Path))
		fmt.Fprintf(&sb, "    <source>%s</source>\n", s.Source)
		sb.WriteString("  </skill>\n")
	}
	sb.WriteString("</skills>")
	return sb.String()
}

func readMetadata(path string) map[string]string {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	match := frontmatterPattern.FindStringSubmatch(normalizeNewlines(string(content)))
	if len(match) < 2 {
		return nil
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(match[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		value := strings.TrimSpace(parts[1])
		meta[strings.TrimSpace(parts[0])] = strings.Trim(value, `"'`)
	}
	return meta
}

func stripFrontmatter(content string) string {
	return frontmatterPattern.ReplaceAllString(normalizeNewlines(content), "")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}
