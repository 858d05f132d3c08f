package bus

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestPublishConsumeInbound(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	sent := InboundMessage{
		Channel:  "telegram",
		SenderID: "42",
		ChatID:   "100",
		Content:  "hello",
		Metadata: map[string]string{"user_name": "ada"},
	}
	mb.PublishInbound(sent)

	got, ok := mb.ConsumeInbound(context.Background())
	if !ok {
		t.Fatal("expected a message")
	}
	if !reflect.DeepEqual(got, sent) {
		t.Fatalf("message altered in transit: got %+v want %+v", got, sent)
	}
}

func TestConsumeInboundRespectsContext(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := mb.ConsumeInbound(ctx)
	if ok {
		t.Fatal("expected no message")
	}
	if time.Since(start) > time.Second {
		t.Fatal("consume did not return promptly after context deadline")
	}
}

func TestSingleProducerOrdering(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	for i := 0; i < 10; i++ {
		mb.PublishInbound(InboundMessage{Channel: "cli", ChatID: "a", Content: string(rune('0' + i))})
	}
	for i := 0; i < 10; i++ {
		msg, ok := mb.ConsumeInbound(context.Background())
		if !ok {
			t.Fatal("expected a message")
		}
		if want := string(rune('0' + i)); msg.Content != want {
			t.Fatalf("out of order: got %q want %q", msg.Content, want)
		}
	}
}

func TestRepublishPreservesMessage(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	orig := InboundMessage{
		Channel:  "discord",
		SenderID: "7",
		ChatID:   "c1",
		Content:  "claim me",
		Media:    []string{"/tmp/a.png"},
		Metadata: map[string]string{"guild_id": "g"},
	}
	mb.PublishInbound(orig)

	msg, _ := mb.ConsumeInbound(context.Background())
	mb.PublishInbound(msg)

	again, _ := mb.ConsumeInbound(context.Background())
	if !reflect.DeepEqual(again, orig) {
		t.Fatalf("republish mutated message: got %+v want %+v", again, orig)
	}
}

func TestSessionKeyDerivation(t *testing.T) {
	msg := InboundMessage{Channel: "slack", ChatID: "C123"}
	if got := msg.SessionKey(); got != "slack:C123" {
		t.Fatalf("SessionKey() = %q", got)
	}
}

func TestWithChannelCopies(t *testing.T) {
	orig := InboundMessage{Channel: "handoff:sales", ChatID: "c", Metadata: map[string]string{"origin_channel": "telegram"}}
	rewritten := orig.WithChannel("telegram")

	if rewritten.Channel != "telegram" {
		t.Fatalf("rewritten channel = %q", rewritten.Channel)
	}
	if orig.Channel != "handoff:sales" {
		t.Fatal("WithChannel mutated the original")
	}
	if rewritten.Metadata["origin_channel"] != "telegram" {
		t.Fatal("metadata not carried through")
	}
}

func TestPublishAfterCloseDoesNotPanic(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()
	mb.PublishInbound(InboundMessage{Channel: "cli"})
	mb.PublishOutbound(OutboundMessage{Channel: "cli"})
	mb.Close()
}
