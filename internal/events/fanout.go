package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/repository"
)

// Fanout publishes every event to each of its publishers in order.
type Fanout []repository.Publisher

func (f Fanout) Publish(ctx context.Context, event, channelID string, payload any) {
	for _, p := range f {
		p.Publish(ctx, event, channelID, payload)
	}
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event, channelID string, payload any) {
	p.logger.Debug("event", zap.String("event", event), zap.String("channel", channelID), zap.Any("payload", payload))
}
