package redis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/events"
)

const eventChannelPrefix = "harvester:events:"

// envelope is the relayed form of events.Message with the payload kept raw.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func encode(event string, payload any) ([]byte, error) {
	return json.Marshal(events.Message{Event: event, Payload: payload})
}

func decode(channel string, data []byte) (string, envelope, error) {
	var env envelope
	err := json.Unmarshal(data, &env)
	return strings.TrimPrefix(channel, eventChannelPrefix), env, err
}

// PublisherImpl provides a concrete implementation for the Publisher interface using Redis pub/sub,
// so operator sessions attached to another instance still see the events.
type PublisherImpl struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPublisher creates a new instance of PublisherImpl.
func NewPublisher(client *redis.Client, logger *zap.Logger) *PublisherImpl {
	return &PublisherImpl{client: client, logger: logger}
}

// Publish sends the event on the channel's pub/sub topic. Failures are logged only.
func (p *PublisherImpl) Publish(ctx context.Context, event, channelID string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		p.logger.Warn("failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, eventChannelPrefix+channelID, data).Err(); err != nil {
		p.logger.Warn("failed to publish event", zap.String("event", event), zap.String("channel", channelID), zap.Error(err))
	}
}
