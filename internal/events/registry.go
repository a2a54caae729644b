// Package events delivers pipeline events to operator sessions.
package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Message is the wire form of one event.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// ErrSubscriberClosed is returned by Subscriber.Send once the session is gone.
var ErrSubscriberClosed = errors.New("subscriber closed")

// Subscriber receives messages for one operator session. Send must not block.
type Subscriber interface {
	Send(msg Message) error
}

// Registry maps channel IDs to their connected subscribers. Publishing to a
// channel with nobody listening is a no-op.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[Subscriber]struct{}
	logger   *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{channels: make(map[string]map[Subscriber]struct{}), logger: logger}
}

// Add registers sub on channelID and returns a func that removes it.
func (r *Registry) Add(channelID string, sub Subscriber) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.channels[channelID]
	if !ok {
		subs = make(map[Subscriber]struct{})
		r.channels[channelID] = subs
	}
	subs[sub] = struct{}{}
	r.logger.Debug("subscriber added", zap.String("channel", channelID), zap.Int("subscribers", len(subs)))
	return func() { r.remove(channelID, sub) }
}

func (r *Registry) remove(channelID string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.channels[channelID]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(r.channels, channelID)
	}
}

// Count returns the number of subscribers on channelID.
func (r *Registry) Count(channelID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channelID])
}

// Publish delivers the event to every subscriber of channelID. Closed
// subscribers are dropped.
func (r *Registry) Publish(_ context.Context, event, channelID string, payload any) {
	r.mu.RLock()
	subs := make([]Subscriber, 0, len(r.channels[channelID]))
	for s := range r.channels[channelID] {
		subs = append(subs, s)
	}
	r.mu.RUnlock()

	msg := Message{Event: event, Payload: payload}
	for _, s := range subs {
		if err := s.Send(msg); err != nil {
			r.remove(channelID, s)
		}
	}
}
