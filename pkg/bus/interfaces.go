package bus

import "context"

type Publisher interface {
	PublishInbound(InboundMessage)
	PublishOutbound(OutboundMessage)
}

type Subscriber interface {
	ConsumeInbound(context.Context) (InboundMessage, bool)
	SubscribeOutbound(context.Context) (OutboundMessage, bool)
}

// Broker is the full in-memory bus contract shared by channel adapters
// and agent loops.
type Broker interface {
	Publisher
	Subscriber
	Close()
}
