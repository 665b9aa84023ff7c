// Package channel implements the chat surfaces that feed the gateway: the
// embedded web UI and a Telegram bot.
package channel

import (
	"context"

	"github.com/stellarlinkco/anova/internal/bus"
)

// Channel is one chat surface. Start must not block; Stop is idempotent.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
}

// BaseChannel holds what every channel shares: its name, the bus, and the
// sender allowlist. An empty allowlist admits everyone.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowFrom map[string]bool
}

func NewBaseChannel(name string, b *bus.MessageBus, allowFrom []string) BaseChannel {
	allowed := make(map[string]bool, len(allowFrom))
	for _, id := range allowFrom {
		allowed[id] = true
	}
	return BaseChannel{name: name, bus: b, allowFrom: allowed}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowFrom) == 0 {
		return true
	}
	return c.allowFrom[senderID]
}
