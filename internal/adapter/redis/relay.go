package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/repository"
)

// Relay forwards every event published through Redis to a local publisher,
// normally the websocket registry of this instance.
type Relay struct {
	client *redis.Client
	target repository.Publisher
	logger *zap.Logger
}

// NewRelay creates a new instance of Relay.
func NewRelay(client *redis.Client, target repository.Publisher, logger *zap.Logger) *Relay {
	return &Relay{client: client, target: target, logger: logger}
}

// Run subscribes to all event channels and blocks until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, eventChannelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("event relay subscribed", zap.String("pattern", eventChannelPrefix+"*"))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			channelID, env, err := decode(msg.Channel, []byte(msg.Payload))
			if err != nil {
				r.logger.Warn("dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			r.target.Publish(ctx, env.Event, channelID, env.Payload)
		}
	}
}
