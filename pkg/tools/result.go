package tools

// ToolResult is the outcome of a tool execution. ForLLM goes back into
// the conversation as the tool result; ForUser, when set, is surfaced
// to the user directly. Silent results produce no user-facing output.
type ToolResult struct {
	ForLLM  string
	ForUser string
	Silent  bool
	IsError bool
	Async   bool
	Err     error
}

// Text returns the string shown to the user, falling back to ForLLM.
func (r *ToolResult) Text() string {
	if r.ForUser != "" {
		return r.ForUser
	}
	return r.ForLLM
}

func (r *ToolResult) WithError(err error) *ToolResult {
	r.Err = err
	return r
}

func SuccessResult(content string) *ToolResult {
	return &ToolResult{ForLLM: content}
}

func UserResult(forLLM, forUser string) *ToolResult {
	return &ToolResult{ForLLM: forLLM, ForUser: forUser}
}

func SilentResult(content string) *ToolResult {
	return &ToolResult{ForLLM: content, Silent: true}
}

func ErrorResult(message string) *ToolResult {
	return &ToolResult{ForLLM: message, IsError: true}
}

// AsyncResult marks a tool that returned immediately and will report
// completion later through its callback.
func AsyncResult(content string) *ToolResult {
	return &ToolResult{ForLLM: content, Async: true}
}
