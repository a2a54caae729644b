package repository

import "context"

// Publisher delivers an event to every operator session listening on channelID.
// Delivery is best-effort: there is no error and no backpressure.
type Publisher interface {
	Publish(ctx context.Context, event, channelID string, payload any)
}
