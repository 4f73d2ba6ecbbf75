// Package pubsub relays sync bus events between leadsync processes that
// share a Redis, so a second client on the same host sees the same pushes.
package pubsub

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadsync/internal/application/syncbus"
	"leadsync/internal/shared/goroutine"
	"leadsync/internal/shared/logger"
)

const (
	DefaultChannel = "leadsync:syncbus"
	publishBuffer  = 256
)

// RedisBusRelay publishes locally raised bus events and re-emits events
// published by other instances. Socket pushes reach every instance through
// its own connection and are not relayed. Relayed events carry the source
// instance id as their origin and are never published again.
type RedisBusRelay struct {
	client     *redis.Client
	channel    string
	bus        *syncbus.Bus
	logger     logger.Interface
	instanceID string

	outbox chan syncbus.Event
}

func NewRedisBusRelay(client *redis.Client, channel string, bus *syncbus.Bus, log logger.Interface) *RedisBusRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBusRelay{
		client:     client,
		channel:    channel,
		bus:        bus,
		logger:     log.Named("relay"),
		instanceID: uuid.NewString(),
		outbox:     make(chan syncbus.Event, publishBuffer),
	}
}

// InstanceID identifies this process on the channel.
func (r *RedisBusRelay) InstanceID() string {
	return r.instanceID
}

// Run forwards and receives events until ctx is done.
func (r *RedisBusRelay) Run(ctx context.Context) error {
	unsubscribe := r.bus.SubscribeAll(func(e syncbus.Event) {
		if e.Origin() != "" {
			return
		}
		select {
		case r.outbox <- e:
		default:
			r.logger.Warnw("relay outbox full, event dropped", "type", e.EventType())
		}
	})
	defer unsubscribe()

	goroutine.SafeGo(r.logger, "relay-publisher", func() {
		r.publishLoop(ctx)
	})

	return r.subscribeWithReconnect(ctx)
}

func (r *RedisBusRelay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-r.outbox:
			if err := r.Publish(ctx, e); err != nil && ctx.Err() == nil {
				r.logger.Warnw("failed to relay event", "type", e.EventType(), "error", err)
			}
		}
	}
}

// Publish sends one event stamped with this instance's id.
func (r *RedisBusRelay) Publish(ctx context.Context, e syncbus.Event) error {
	data, err := syncbus.Marshal(syncbus.WithOrigin(e, r.instanceID))
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish bus event: %w", err)
	}
	r.logger.Debugw("bus event relayed", "type", e.EventType())
	return nil
}

// subscribeWithReconnect resubscribes with exponential backoff until ctx
// is done.
func (r *RedisBusRelay) subscribeWithReconnect(ctx context.Context) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := r.subscribe(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.logger.Warnw("relay subscription disconnected, reconnecting",
			"channel", r.channel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (r *RedisBusRelay) subscribe(ctx context.Context) error {
	ps := r.client.Subscribe(ctx, r.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", r.channel, err)
	}
	r.logger.Infow("subscribed to relay channel", "channel", r.channel, "instance_id", r.instanceID)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				r.logger.Warnw("relay channel closed", "channel", r.channel)
				return nil
			}
			r.deliver(msg.Payload)
		}
	}
}

// deliver runs on the subscriber goroutine so relayed events keep their
// publish order.
func (r *RedisBusRelay) deliver(payload string) {
	e, err := syncbus.Unmarshal([]byte(payload))
	if err != nil {
		r.logger.Warnw("failed to decode relayed event", "error", err)
		return
	}
	switch e.Origin() {
	case "", syncbus.OriginSocket, r.instanceID:
		return
	}
	r.bus.Emit(e)
}
