package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/user/illust-harvester/internal/entity"
)

const (
	subscriberBuffer = 64
	writeTimeout     = 10 * time.Second
)

// socketSubscriber buffers messages for one websocket connection. When the
// buffer is full new messages are dropped.
type socketSubscriber struct {
	ch   chan Message
	done chan struct{}
	once sync.Once
}

func newSocketSubscriber() *socketSubscriber {
	return &socketSubscriber{ch: make(chan Message, subscriberBuffer), done: make(chan struct{})}
}

func (s *socketSubscriber) Send(msg Message) error {
	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}
	select {
	case s.ch <- msg:
	default:
	}
	return nil
}

func (s *socketSubscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// WebSocketHandler upgrades /ws/{channel} requests and streams every event
// published on that channel as JSON.
type WebSocketHandler struct {
	registry *Registry
	logger   *zap.Logger
}

// NewWebSocketHandler creates a WebSocketHandler.
func NewWebSocketHandler(registry *Registry, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{registry: registry, logger: logger}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channel")
	if channelID == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	// clients never send; CloseRead handles control frames and cancels ctx on disconnect
	ctx := conn.CloseRead(r.Context())

	sub := newSocketSubscriber()
	unregister := h.registry.Add(channelID, sub)
	defer func() {
		sub.close()
		unregister()
	}()

	log := h.logger.With(zap.String("channel", channelID))
	log.Info("operator session connected")

	_ = sub.Send(Message{Event: entity.EventLog, Payload: entity.LogEvent{
		Message: channelID + ": connected",
		State:   entity.LogSuccess,
	}})

	for {
		select {
		case <-ctx.Done():
			log.Info("operator session disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case msg := <-sub.ch:
			if err := write(ctx, conn, msg); err != nil {
				log.Warn("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
