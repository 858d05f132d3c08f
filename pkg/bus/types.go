package bus

// InboundMessage is a platform-neutral message entering the system.
// It is treated as immutable once constructed; a copy with a rewritten
// channel (WithChannel) is how handoff redirection is expressed.
type InboundMessage struct {
	Channel  string            `json:"channel"`
	SenderID string            `json:"sender_id"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Media    []string          `json:"media,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SessionKey derives the conversation identity for this message.
func (m InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// WithChannel returns a copy of the message routed to a different channel.
// All other fields, including metadata, are carried through untouched.
func (m InboundMessage) WithChannel(channel string) InboundMessage {
	m.Channel = channel
	return m
}

// OutboundMessage is a reply headed back to a channel adapter.
type OutboundMessage struct {
	Channel string `json:"channel"`
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
}
