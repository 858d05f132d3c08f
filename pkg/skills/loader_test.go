package skills

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, content string) {
	t.Helper()
	skillDir := filepath.Join(dir, "skills", name)
	require.NoError(t, os.MkdirAll(skillDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0644))
}

func TestListReadsFrontmatter(t *testing.T) {
	workspace := t.TempDir()
	writeSkill(t, workspace, "github", "---\nname: github\ndescription: \"Work with GitHub repos\"\n---\n\nUse the gh CLI.\n")

	loader := NewLoader(workspace, "")
	skills := loader.List()

	require.Len(t, skills, 1)
	assert.Equal(t, "github", skills[0].Name)
	assert.Equal(t, "Work with GitHub repos", skills[0].Description)
	assert.Equal(t, "workspace", skills[0].Source)
	assert.False(t, skills[0].Always)
}

func TestWorkspaceShadowsGlobal(t *testing.T) {
	workspace := t.TempDir()
	global := t.TempDir()
	writeSkill(t, workspace, "deploy", "---\nname: deploy\ndescription: workspace variant\n---\nworkspace body\n")
	writeSkill(t, global, "deploy", "---\nname: deploy\ndescription: global variant\n---\nglobal body\n")
	writeSkill(t, global, "backup", "---\nname: backup\ndescription: global only\n---\nbackup body\n")

	loader := NewLoader(workspace, filepath.Join(global, "skills"))
	skills := loader.List()

	require.Len(t, skills, 2)
	assert.Equal(t, "deploy", skills[0].Name)
	assert.Equal(t, "workspace", skills[0].Source)
	assert.Equal(t, "backup", skills[1].Name)
	assert.Equal(t, "global", skills[1].Source)

	body, ok := loader.Load("deploy")
	require.True(t, ok)
	assert.Equal(t, "workspace body\n", body)
}

func TestInvalidSkillsSkipped(t *testing.T) {
	workspace := t.TempDir()
	writeSkill(t, workspace, "bad name", "---\nname: \"bad name\"\ndescription: spaces are invalid\n---\nbody\n")
	writeSkill(t, workspace, "ok", "---\nname: ok\ndescription: fine\n---\nbody\n")

	loader := NewLoader(workspace, "")
	skills := loader.List()

	require.Len(t, skills, 1)
	assert.Equal(t, "ok", skills[0].Name)
}

func TestLoadStripsFrontmatter(t *testing.T) {
	workspace := t.TempDir()
	writeSkill(t, workspace, "notes", "---\nname: notes\ndescription: d\n---\n\n# Notes\n\nBody text.\n")

	loader := NewLoader(workspace, "")
	body, ok := loader.Load("notes")

	require.True(t, ok)
	assert.False(t, strings.Contains(body, "---"))
	assert.True(t, strings.HasPrefix(body, "# Notes"))

	_, ok = loader.Load("missing")
	assert.False(t, ok)
}

func TestAlwaysSkills(t *testing.T) {
	workspace := t.TempDir()
	writeSkill(t, workspace, "core", "---\nname: core\ndescription: always on\nalways: true\n---\ncore body\n")
	writeSkill(t, workspace, "extra", "---\nname: extra\ndescription: on demand\n---\nextra body\n")

	loader := NewLoader(workspace, "")

	assert.Equal(t, []string{"core"}, loader.AlwaysSkills())

	context := loader.ContextFor(loader.AlwaysSkills())
	assert.Contains(t, context, "### Skill: core")
	assert.Contains(t, context, "core body")
	assert.NotContains(t, context, "extra body")
}

func TestSummaryEscapesXML(t *testing.T) {
	workspace := t.TempDir()
	writeSkill(t, workspace, "query", "---\nname: query\ndescription: \"use <sql> & friends\"\n---\nbody\n")

	loader := NewLoader(workspace, "")
	summary := loader.Summary()

	assert.Contains(t, summary, "<skills>")
	assert.Contains(t, summary, "&lt;sql&gt; &amp; friends")
	assert.NotContains(t, summary, "<sql>")
}

func TestSummaryEmptyWithoutSkills(t *testing.T) {
	loader := NewLoader(t.TempDir(), "")
	assert.Equal(t, "", loader.Summary())
}

func TestMissingFrontmatterUsesDirName(t *testing.T) {
	workspace := t.TempDir()
	writeSkill(t, workspace, "plain", "Just a body, no frontmatter.\n")

	loader := NewLoader(workspace, "")
	skills := loader.List()

	require.Len(t, skills, 1)
	assert.Equal(t, "plain", skills[0].Name)
	assert.Equal(t, "", skills[0].Description)
}
