package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Fanout pushes frames to live clients. Broadcast targets one conversation group and
// Announce targets every connection.
type Fanout interface {
	Broadcast(ctx context.Context, conversationID string, msg *domain.MessageView) error
	Announce(ctx context.Context, payload []byte) error
}

// LocalBroadcaster delivers straight into this process's hub.
type LocalBroadcaster struct {
	hub *Hub
}

func NewLocalBroadcaster(hub *Hub) *LocalBroadcaster {
	return &LocalBroadcaster{hub: hub}
}

func (b *LocalBroadcaster) Broadcast(_ context.Context, conversationID string, msg *domain.MessageView) error {
	payload, err := json.Marshal(newMessageFrame(msg))
	if err != nil {
		return fmt.Errorf("failed to encode message %v: %w", msg.ID, err)
	}
	b.hub.Deliver(conversationID, payload)
	return nil
}

func (b *LocalBroadcaster) Announce(_ context.Context, payload []byte) error {
	b.hub.BroadcastAll(payload)
	return nil
}

const (
	channelPrefix   = "chat:"
	convChannel     = channelPrefix + "conv:"
	announceChannel = channelPrefix + "all"
)

// RedisBroadcaster publishes frames on Redis so every replica can fan them out to the
// clients it holds.
type RedisBroadcaster struct {
	client *redis.Client
	hub    *Hub
}

func NewRedisBroadcaster(client *redis.Client, hub *Hub) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, hub: hub}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, conversationID string, msg *domain.MessageView) error {
	payload, err := json.Marshal(newMessageFrame(msg))
	if err != nil {
		return fmt.Errorf("failed to encode message %v: %w", msg.ID, err)
	}
	if err := b.client.Publish(ctx, convChannel+conversationID, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish message %v: %w", msg.ID, err)
	}
	return nil
}

func (b *RedisBroadcaster) Announce(ctx context.Context, payload []byte) error {
	if err := b.client.Publish(ctx, announceChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish announcement: %w", err)
	}
	return nil
}

// Subscribe confirms the subscription and then relays published frames to the local hub
// until ctx is done.
func (b *RedisBroadcaster) Subscribe(ctx context.Context) error {
	sub := b.client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("failed to subscribe to chat channels: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.relay(msg)
			}
		}
	}()
	return nil
}

func (b *RedisBroadcaster) relay(msg *redis.Message) {
	payload := []byte(msg.Payload)
	switch {
	case msg.Channel == announceChannel:
		b.hub.BroadcastAll(payload)
	case strings.HasPrefix(msg.Channel, convChannel):
		b.hub.Deliver(strings.TrimPrefix(msg.Channel, convChannel), payload)
	default:
		log.Printf("ignoring message on channel %v", msg.Channel)
	}
}
