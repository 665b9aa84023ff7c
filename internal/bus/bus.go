// Package bus carries chat messages between channels and the gateway.
package bus

import (
	"context"
	"log"
	"sync"
	"time"
)

type InboundMessage struct {
	Channel   string
	SenderID  string
	ChatID    string
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

// SessionKey identifies the conversation a message belongs to. One session per
// (channel, chat) pair.
func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

type OutboundMessage struct {
	Channel  string
	ChatID   string
	Content  string
	ReplyTo  string
	Metadata map[string]any
}

// MessageBus decouples channels from the gateway: channels push to Inbound,
// the gateway pushes to Outbound, and DispatchOutbound fans replies back to
// the subscribed channel by name.
type MessageBus struct {
	Inbound  chan InboundMessage
	Outbound chan OutboundMessage

	mu          sync.RWMutex
	subscribers map[string]func(OutboundMessage)
}

func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 1
	}
	return &MessageBus{
		Inbound:     make(chan InboundMessage, bufSize),
		Outbound:    make(chan OutboundMessage, bufSize),
		subscribers: make(map[string]func(OutboundMessage)),
	}
}

// SubscribeOutbound registers the handler that delivers outbound messages for
// one channel. A second subscription under the same name replaces the first.
func (b *MessageBus) SubscribeOutbound(channel string, handler func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = handler
}

// DispatchOutbound routes outbound messages to their channel handler until the
// context is cancelled. Messages for unknown channels are dropped with a log.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			handler, ok := b.subscribers[msg.Channel]
			b.mu.RUnlock()
			if !ok {
				log.Printf("[bus] no subscriber for channel %s, dropping message", msg.Channel)
				continue
			}
			handler(msg)
		case <-ctx.Done():
			return
		}
	}
}
