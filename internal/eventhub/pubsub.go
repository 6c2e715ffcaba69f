package eventhub

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"grievance/backend/internal/events"
)

// Subscriber opens the shared event channel. events.RedisPublisher implements it.
type Subscriber interface {
	Subscribe(ctx context.Context) *redis.PubSub
}

// StartPubSubListener forwards every event received from Redis into the hub, so
// events published by any replica reach the clients connected to this one. It
// returns once the subscription is confirmed.
func (m *ManagerService) StartPubSubListener(ctx context.Context, sub Subscriber) error {
	ps := sub.Subscribe(ctx)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return err
	}

	go func() {
		defer ps.Close()
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				e, err := events.Decode(msg.Payload)
				if err != nil {
					m.logger.Warn("Skipping malformed event", zap.Error(err))
					continue
				}
				if err := m.Publish(ctx, e); err != nil {
					return
				}
			}
		}
	}()
	return nil
}
