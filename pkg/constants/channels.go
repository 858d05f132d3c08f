package constants

import "strings"

const (
	// ChannelSystem carries announce messages from background work
	// (subagents, heartbeat). It is never filtered by channel ownership.
	ChannelSystem = "system"

	// HandoffPrefix marks a control message that transfers a conversation
	// to another agent: "handoff:<target>".
	HandoffPrefix = "handoff:"

	ChannelCLI = "cli"
)

var internalChannels = map[string]bool{
	"cli":       true,
	"system":    true,
	"subagent":  true,
	"cron":      true,
	"heartbeat": true,
}

// IsInternalChannel reports whether ch is a process-internal channel
// rather than a user-facing chat platform.
func IsInternalChannel(ch string) bool {
	return internalChannels[ch]
}

// IsHandoffChannel reports whether ch is a handoff control channel.
func IsHandoffChannel(ch string) bool {
	return strings.HasPrefix(ch, HandoffPrefix)
}

// HandoffTarget extracts the target agent name from a handoff channel.
func HandoffTarget(ch string) string {
	return strings.TrimPrefix(ch, HandoffPrefix)
}
