package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiff-ai/skiff/pkg/providers"
)

func TestGetOrCreate_SameObject(t *testing.T) {
	m := NewManager("")

	s1 := m.GetOrCreate("telegram:100")
	s2 := m.GetOrCreate("telegram:100")
	assert.Same(t, s1, s2)

	s3 := m.GetOrCreate("telegram:200")
	assert.NotSame(t, s1, s3)
}

func TestHistory_Projection(t *testing.T) {
	m := NewManager("")
	m.GetOrCreate("cli:direct")

	m.AddMessage("cli:direct", "user", "hello")
	m.AddFullMessage("cli:direct", Message{
		Role:    "assistant",
		Content: "hi there",
		ToolCalls: []providers.ToolCall{
			{ID: "tc1", Name: "read_file", Arguments: map[string]interface{}{"path": "x"}},
		},
	})

	history := m.History("cli:direct", 0)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	// Tool plumbing is dropped in the projection.
	assert.Empty(t, history[1].ToolCalls)
	assert.Equal(t, "hi there", history[1].Content)
}

func TestHistory_MaxWindow(t *testing.T) {
	m := NewManager("")
	m.GetOrCreate("k")

	for i := 0; i < 10; i++ {
		m.AddMessage("k", "user", strings.Repeat("x", i+1))
	}

	history := m.History("k", 3)
	require.Len(t, history, 3)
	assert.Equal(t, strings.Repeat("x", 8), history[0].Content)
	assert.Equal(t, strings.Repeat("x", 10), history[2].Content)
}

func TestHistory_UnknownKey(t *testing.T) {
	m := NewManager("")
	assert.Empty(t, m.History("nope", 5))
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	m.GetOrCreate("telegram:42")
	m.AddMessage("telegram:42", "user", "first")
	m.AddMessage("telegram:42", "assistant", "second")
	m.SetMetadata("telegram:42", "origin_channel", "telegram")
	require.NoError(t, m.Save("telegram:42"))

	// Colon is replaced in the filename.
	_, err := os.Stat(filepath.Join(dir, "telegram_42.jsonl"))
	require.NoError(t, err)

	reloaded := NewManager(dir)
	history := reloaded.History("telegram:42", 0)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)

	s := reloaded.GetOrCreate("telegram:42")
	assert.Equal(t, "telegram", s.Metadata["origin_channel"])
}

func TestSaveFileIsJSONL(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	m.GetOrCreate("cli:direct")
	m.AddMessage("cli:direct", "user", "hello")
	require.NoError(t, m.Save("cli:direct"))

	data, err := os.ReadFile(filepath.Join(dir, "cli_direct.jsonl"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"_type":"metadata"`)
	assert.Contains(t, lines[0], `"key":"cli:direct"`)
	assert.Contains(t, lines[1], `"role":"user"`)
}

func TestSaveRejectsTraversalKeys(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	for _, key := range []string{"../evil", "a/b", `a\b`, ".."} {
		m.GetOrCreate(key)
		assert.Error(t, m.Save(key), "key %q should be rejected", key)
	}
}

func TestSaveUnknownKeyIsNoop(t *testing.T) {
	m := NewManager(t.TempDir())
	assert.NoError(t, m.Save("never-created"))
}

func TestClear(t *testing.T) {
	m := NewManager("")
	m.GetOrCreate("k")
	m.AddMessage("k", "user", "hi")
	m.Clear("k")
	assert.Empty(t, m.History("k", 0))
}

func TestConcurrentAppend(t *testing.T) {
	m := NewManager("")
	m.GetOrCreate("k")

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				m.AddMessage("k", "user", "msg")
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Len(t, m.History("k", 0), 500)
}
