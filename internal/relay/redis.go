// Package relay bridges broadcast hubs across server instances through
// Redis pub/sub, so an edit made on one instance reaches observers
// connected to any other.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/broadcast"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const outboxSize = 256

var errSubscriptionClosed = errors.New("relay subscription closed")

type envelope struct {
	Origin string              `json:"origin"`
	Type   broadcast.EventType `json:"type"`
	Data   json.RawMessage     `json:"data"`
}

// Redis publishes every event to the local hub and to a Redis channel, and
// forwards events from other instances to the local hub. Messages carry the
// publishing instance id so an instance never re-delivers its own events.
// Outgoing messages wait in a bounded outbox drained by Run.
type Redis struct {
	client  *redis.Client
	channel string
	origin  string
	local   broadcast.Publisher
	ready   chan struct{}
	outbox  chan []byte
}

func NewRedis(client *redis.Client, channel string, local broadcast.Publisher) *Redis {
	return &Redis{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		ready:   make(chan struct{}),
		outbox:  make(chan []byte, outboxSize),
	}
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return client, nil
}

// Publish delivers locally and queues the event for Redis. It never waits
// on Redis; when the outbox is full the event only reaches local observers.
func (r *Redis) Publish(ev broadcast.Event) {
	r.local.Publish(ev)

	data, err := json.Marshal(ev.Data)
	if err != nil {
		slog.Error("relay encode failed", "event", ev.Type, "error", err.Error())
		return
	}
	msg, err := json.Marshal(envelope{Origin: r.origin, Type: ev.Type, Data: data})
	if err != nil {
		slog.Error("relay encode failed", "event", ev.Type, "error", err.Error())
		return
	}

	select {
	case r.outbox <- msg:
	default:
		slog.Warn("relay outbox full, event not sent to other instances", "event", ev.Type)
	}
}

func (r *Redis) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.outbox:
			pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := r.client.Publish(pubCtx, r.channel, msg).Err(); err != nil {
				slog.Warn("relay publish failed", "error", err.Error())
			}
			cancel()
		}
	}
}

// Ready is closed once the subscription is live.
func (r *Redis) Ready() <-chan struct{} {
	return r.ready
}

// Run subscribes to the channel, sends queued events and forwards remote
// events until ctx ends. A subscription that closes underneath it is
// reported as an error.
func (r *Redis) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("relay subscribe: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.drain(ctx)

	close(r.ready)
	slog.Info("relay subscribed", "channel", r.channel, "origin", r.origin)
	return r.consume(ctx, sub.Channel())
}

func (r *Redis) consume(ctx context.Context, ch <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			r.forward(msg.Payload)
		}
	}
}

func (r *Redis) forward(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		slog.Warn("relay dropped malformed message", "error", err.Error())
		return
	}
	if env.Origin == r.origin {
		return
	}
	r.local.Publish(broadcast.Event{Type: env.Type, Data: env.Data})
}
