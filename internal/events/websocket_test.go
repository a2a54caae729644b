package events

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/user/illust-harvester/internal/entity"
)

func TestWebSocketHandlerStreamsChannelEvents(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	r := chi.NewRouter()
	r.Get("/ws/{channel}", NewWebSocketHandler(registry, zap.NewNop()).ServeHTTP)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/desk-1", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var greeting struct {
		Event   string          `json:"event"`
		Payload entity.LogEvent `json:"payload"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &greeting))
	assert.Equal(t, entity.EventLog, greeting.Event)
	assert.Equal(t, "desk-1: connected", greeting.Payload.Message)
	assert.Equal(t, 1, registry.Count("desk-1"))

	registry.Publish(ctx, entity.EventDownload, "desk-2", entity.ProgressEvent{Number: "P9_9"})
	registry.Publish(ctx, entity.EventDownload, "desk-1", entity.ProgressEvent{Number: "P1_2", ImageName: "a.jpg"})

	var progress struct {
		Event   string               `json:"event"`
		Payload entity.ProgressEvent `json:"payload"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &progress))
	assert.Equal(t, entity.EventDownload, progress.Event)
	assert.Equal(t, "P1_2", progress.Payload.Number)
}
