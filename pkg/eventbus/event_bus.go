// Package eventbus decouples platform adapters from the flow engine: adapters
// publish inbound events, the engine consumes them.
package eventbus

import (
	"context"

	"github.com/flowbotio/flowbot/pkg/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, key string, event events.Inbound) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event events.Inbound) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
