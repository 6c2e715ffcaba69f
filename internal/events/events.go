// Package events carries grievance lifecycle events between the pipeline, the
// escalation sweep and the live subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"grievance/backend/internal/models"
)

// Channel is the Redis pub/sub channel all grievance events are published on.
const Channel = "grievance:events"

type Publisher interface {
	Publish(ctx context.Context, e models.Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, models.Event) error { return nil }

// RedisPublisher publishes JSON encoded events on Channel.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, e models.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.rdb.Publish(ctx, Channel, payload).Err()
}

// Subscribe opens a subscription on Channel. The caller closes it.
func (p *RedisPublisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.rdb.Subscribe(ctx, Channel)
}

// Decode parses a payload received on Channel.
func Decode(payload string) (models.Event, error) {
	var e models.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return models.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}

// Fanout publishes to every publisher and returns the first error.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e models.Event) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
