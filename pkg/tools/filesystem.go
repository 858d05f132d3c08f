package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// resolvePath expands a possibly relative path against the workspace
// and, when restrict is set, rejects anything that escapes it.
func resolvePath(workspace, path string, restrict bool) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(workspace, resolved)
	}
	resolved = filepath.Clean(resolved)

	if restrict {
		absWorkspace, err := filepath.Abs(workspace)
		if err != nil {
			return "", err
		}
		absPath, err := filepath.Abs(resolved)
		if err != nil {
			return "", err
		}
		rel, err := filepath.Rel(absWorkspace, absPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("path %q is outside the workspace", path)
		}
	}

	return resolved, nil
}

type ReadFileTool struct {
	workspace string
	restrict  bool
}

func NewReadFileTool(workspace string, restrict bool) *ReadFileTool {
	return &ReadFileTool{workspace: workspace, restrict: restrict}
}

func (t *ReadFileTool) Name() string {
	return "read_file"
}

func (t *ReadFileTool) Description() string {
	return "Read the contents of a file"
}

func (t *ReadFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to read",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	path, _ := args["path"].(string)
	resolved, err := resolvePath(t.workspace, path, t.restrict)
	if err != nil {
		return ErrorResult(err.Error())
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to read %s: %v", path, err))
	}

	const maxLen = 50000
	content := string(data)
	if len(content) > maxLen {
		content = content[:maxLen] + fmt.Sprintf("\n... (truncated, %d more bytes)", len(data)-maxLen)
	}
	return SuccessResult(content)
}

type WriteFileTool struct {
	workspace string
	restrict  bool
}

func NewWriteFileTool(workspace string, restrict bool) *WriteFileTool {
	return &WriteFileTool{workspace: workspace, restrict: restrict}
}

func (t *WriteFileTool) Name() string {
	return "write_file"
}

func (t *WriteFileTool) Description() string {
	return "Write content to a file, creating parent directories as needed"
}

func (t *WriteFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to write",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Content to write",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)

	resolved, err := resolvePath(t.workspace, path, t.restrict)
	if err != nil {
		return ErrorResult(err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return ErrorResult(fmt.Sprintf("failed to create directories: %v", err))
	}
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return ErrorResult(fmt.Sprintf("failed to write %s: %v", path, err))
	}

	return SuccessResult(fmt.Sprintf("Wrote %d bytes to %s", len(content), path))
}

type AppendFileTool struct {
	workspace string
	restrict  bool
}

func NewAppendFileTool(workspace string, restrict bool) *AppendFileTool {
	return &AppendFileTool{workspace: workspace, restrict: restrict}
}

func (t *AppendFileTool) Name() string {
	return "append_file"
}

func (t *AppendFileTool) Description() string {
	return "Append content to the end of a file, creating it if missing"
}

func (t *AppendFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to append to",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Content to append",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *AppendFileTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)

	resolved, err := resolvePath(t.workspace, path, t.restrict)
	if err != nil {
		return ErrorResult(err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return ErrorResult(fmt.Sprintf("failed to create directories: %v", err))
	}

	f, err := os.OpenFile(resolved, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to open %s: %v", path, err))
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return ErrorResult(fmt.Sprintf("failed to append to %s: %v", path, err))
	}

	return SuccessResult(fmt.Sprintf("Appended %d bytes to %s", len(content), path))
}

type EditFileTool struct {
	workspace string
	restrict  bool
}

func NewEditFileTool(workspace string, restrict bool) *EditFileTool {
	return &EditFileTool{workspace: workspace, restrict: restrict}
}

func (t *EditFileTool) Name() string {
	return "edit_file"
}

func (t *EditFileTool) Description() string {
	return "Replace an exact string in a file. The old string must appear exactly once."
}

func (t *EditFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file to edit",
			},
			"old_string": map[string]interface{}{
				"type":        "string",
				"description": "Exact text to replace",
			},
			"new_string": map[string]interface{}{
				"type":        "string",
				"description": "Replacement text",
			},
		},
		"required": []string{"path", "old_string", "new_string"},
	}
}

func (t *EditFileTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	path, _ := args["path"].(string)
	oldStr, _ := args["old_string"].(string)
	newStr, _ := args["new_string"].(string)

	if oldStr == "" {
		return ErrorResult("old_string is required")
	}

	resolved, err := resolvePath(t.workspace, path, t.restrict)
	if err != nil {
		return ErrorResult(err.Error())
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to read %s: %v", path, err))
	}

	content := string(data)
	count := strings.Count(content, oldStr)
	if count == 0 {
		return ErrorResult(fmt.Sprintf("old_string not found in %s", path))
	}
	if count > 1 {
		return ErrorResult(fmt.Sprintf("old_string appears %d times in %s, must be unique", count, path))
	}

	content = strings.Replace(content, oldStr, newStr, 1)
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return ErrorResult(fmt.Sprintf("failed to write %s: %v", path, err))
	}

	return SuccessResult(fmt.Sprintf("Edited %s", path))
}

type ListDirTool struct {
	workspace string
	restrict  bool
}

func NewListDirTool(workspace string, restrict bool) *ListDirTool {
	return &ListDirTool{workspace: workspace, restrict: restrict}
}

func (t *ListDirTool) Name() string {
	return "list_dir"
}

func (t *ListDirTool) Description() string {
	return "List the entries of a directory"
}

func (t *ListDirTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory to list, defaults to the workspace root",
			},
		},
	}
}

func (t *ListDirTool) Execute(ctx context.Context, args map[string]interface{}, tc ToolContext) *ToolResult {
	path, _ := args["path"].(string)
	if path == "" {
		path = "."
	}

	resolved, err := resolvePath(t.workspace, path, t.restrict)
	if err != nil {
		return ErrorResult(err.Error())
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to list %s: %v", path, err))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return SuccessResult("(empty directory)")
	}
	return SuccessResult(strings.Join(names, "\n"))
}
