package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/skiff-ai/skiff/pkg/logger"
	"github.com/skiff-ai/skiff/pkg/providers"
)

// Registry holds the tools available to an agent. Registration order
// is preserved so the definitions sent to the model are stable across
// turns.
type Registry struct {
	tools map[string]Tool
	order []string
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Re-registering a name replaces the tool but
// keeps its original position.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		return
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns registered tool names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Execute runs a tool by name. It never returns nil and never lets a
// tool failure escape: unknown tools, invalid arguments and panics all
// come back as error results the model can read.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}, tc ToolContext) (result *ToolResult) {
	logger.InfoCF("tool", "Tool execution started", map[string]interface{}{
		"tool":    name,
		"session": tc.SessionKey,
	})

	tool, ok := r.Get(name)
	if !ok {
		logger.ErrorCF("tool", "Tool not found", map[string]interface{}{
			"tool": name,
		})
		return ErrorResult(fmt.Sprintf("tool %q not found", name)).WithError(fmt.Errorf("tool not found"))
	}

	if args == nil {
		args = map[string]interface{}{}
	}

	if err := validateArgs(tool, args); err != nil {
		logger.WarnCF("tool", "Tool arguments rejected", map[string]interface{}{
			"tool":  name,
			"error": err.Error(),
		})
		return ErrorResult(fmt.Sprintf("invalid arguments for %s: %v", name, err)).WithError(err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorCF("tool", "Tool panicked", map[string]interface{}{
				"tool":  name,
				"panic": fmt.Sprint(rec),
			})
			result = ErrorResult(fmt.Sprintf("tool %s crashed: %v", name, rec)).
				WithError(fmt.Errorf("tool panic: %v", rec))
		}
	}()

	start := time.Now()
	result = tool.Execute(ctx, args, tc)
	duration := time.Since(start)

	if result == nil {
		result = ErrorResult(fmt.Sprintf("tool %s returned no result", name))
	}

	if result.IsError {
		logger.ErrorCF("tool", "Tool execution failed", map[string]interface{}{
			"tool":        name,
			"duration_ms": duration.Milliseconds(),
			"error":       result.ForLLM,
		})
	} else if result.Async {
		logger.InfoCF("tool", "Tool started (async)", map[string]interface{}{
			"tool":        name,
			"duration_ms": duration.Milliseconds(),
		})
	} else {
		logger.InfoCF("tool", "Tool execution completed", map[string]interface{}{
			"tool":          name,
			"duration_ms":   duration.Milliseconds(),
			"result_length": len(result.ForLLM),
		})
	}

	return result
}

// validateArgs checks the arguments against the tool's JSON schema.
// Tools with no declared properties accept anything.
func validateArgs(tool Tool, args map[string]interface{}) error {
	params := tool.Parameters()
	if len(params) == 0 {
		return nil
	}
	if props, ok := params["properties"].(map[string]interface{}); ok && len(props) == 0 {
		if _, hasReq := params["required"]; !hasReq {
			return nil
		}
	}

	schemaLoader := gojsonschema.NewGoLoader(params)
	docLoader := gojsonschema.NewGoLoader(args)

	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		// The schema itself is malformed. Let the tool decide.
		return nil
	}
	if res.Valid() {
		return nil
	}

	msg := ""
	for _, e := range res.Errors() {
		if msg != "" {
			msg += "; "
		}
		msg += e.String()
	}
	return fmt.Errorf("%s", msg)
}

func (r *Registry) GetDefinitions() []map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]map[string]interface{}, 0, len(r.order))
	for _, name := range r.order {
		definitions = append(definitions, ToolToSchema(r.tools[name]))
	}
	return definitions
}

// ToProviderDefs converts registered tools to the definition format
// the LLM provider APIs expect, in registration order.
func (r *Registry) ToProviderDefs() []providers.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]providers.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		definitions = append(definitions, providers.ToolDefinition{
			Type: "function",
			Function: providers.ToolFunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		})
	}
	return definitions
}
