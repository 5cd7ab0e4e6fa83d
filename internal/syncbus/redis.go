package syncbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"classnet/api/internal/util"
)

// RedisBus fans events out over one pub/sub channel per profile. Every bus
// instance carries a random origin ID stamped on outgoing events; incoming
// events with a matching origin are dropped, so a publisher never observes
// its own publish.
type RedisBus struct {
	client  *redis.Client
	channel string
	origin  string

	mu       sync.Mutex
	closed   bool
	nextID   int
	handlers map[int]func()
	pubsub   *redis.PubSub
}

// NewRedisBus connects to Redis and verifies the connection. Callers should
// substitute NoopBus when this fails.
func NewRedisBus(redisURL, profile string) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisBusWithClient(client, profile), nil
}

// NewRedisBusWithClient creates a bus from an existing Redis client.
func NewRedisBusWithClient(client *redis.Client, profile string) *RedisBus {
	return &RedisBus{
		client:   client,
		channel:  "classnet:" + profile + ":sync",
		origin:   util.NewSessionID(),
		handlers: make(map[int]func()),
	}
}

func (b *RedisBus) Publish(ctx context.Context) error {
	payload, err := json.Marshal(Event{Type: EventContentRefresh, Origin: b.origin})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(handler func()) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}, errors.New("syncbus: bus closed")
	}

	if b.pubsub == nil {
		pubsub := b.client.Subscribe(context.Background(), b.channel)
		// Wait for the subscription to be active so a Publish right after
		// Subscribe returns is not lost.
		if _, err := pubsub.Receive(context.Background()); err != nil {
			_ = pubsub.Close()
			return func() {}, fmt.Errorf("subscribe: %w", err)
		}
		b.pubsub = pubsub
		go b.receive(pubsub.Channel())
	}

	id := b.nextID
	b.nextID++
	b.handlers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}, nil
}

func (b *RedisBus) receive(messages <-chan *redis.Message) {
	for msg := range messages {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Printf("syncbus: dropping malformed event: %v", err)
			continue
		}
		if ev.Origin == b.origin {
			continue
		}

		b.mu.Lock()
		handlers := make([]func(), 0, len(b.handlers))
		for _, h := range b.handlers {
			handlers = append(handlers, h)
		}
		b.mu.Unlock()

		for _, h := range handlers {
			h()
		}
	}
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.handlers = make(map[int]func())
	if b.pubsub != nil {
		if err := b.pubsub.Close(); err != nil {
			return err
		}
	}
	return b.client.Close()
}
