// Package notifications delivers draft changes and sink events to WebSocket
// clients, optionally fanned out through Redis pub/sub.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"postdeck/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	// EventsChannel carries sink events for every connected client.
	EventsChannel = "postdeck:events"

	sessionChannelPattern = "postdeck:session:*"
)

// SessionChannel returns the Redis channel for a session's change stream.
func SessionChannel(sessionID string) string {
	return fmt.Sprintf("postdeck:session:%s", sessionID)
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether the notifier has a Redis client.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishSession sends a payload to one session's channel.
func (n *Notifier) PublishSession(ctx context.Context, sessionID, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, SessionChannel(sessionID), payload).Err()
}

// PublishEvent sends a payload to every connected client.
func (n *Notifier) PublishEvent(ctx context.Context, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, EventsChannel, payload).Err()
}

// StartSubscriber subscribes to the session pattern and the events channel
// and calls onMessage for each incoming message until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, sessionChannelPattern, EventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
