package pubsub

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Broker fans change events out to live subscribers.
type Broker interface {
	Publish(ctx context.Context, channel string, payload string) error
	// Subscribe returns a channel of payloads and a close func. The payload
	// channel is nil when the broker cannot deliver events.
	Subscribe(ctx context.Context, channel string) (<-chan string, func(), error)
}

// MessageChannel is the channel that carries new-message events for one application.
func MessageChannel(applicationID uuid.UUID) string {
	return fmt.Sprintf("application_messages:%s", applicationID)
}

type redisBroker struct {
	client *redis.Client
}

// New returns a Redis-backed broker, or a no-op broker when client is nil.
func New(client *redis.Client) Broker {
	if client == nil {
		return Noop{}
	}
	return &redisBroker{client: client}
}

func (b *redisBroker) Publish(ctx context.Context, channel string, payload string) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *redisBroker) Subscribe(ctx context.Context, channel string) (<-chan string, func(), error) {
	sub := b.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, func() {}, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(out)
		in := sub.Channel()
		for {
			select {
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	closeFn := func() {
		close(done)
		_ = sub.Close()
	}
	return out, closeFn, nil
}

// Noop drops published events; subscribers only ever see a nil channel.
type Noop struct{}

func (Noop) Publish(ctx context.Context, channel string, payload string) error { return nil }

func (Noop) Subscribe(ctx context.Context, channel string) (<-chan string, func(), error) {
	return nil, func() {}, nil
}
