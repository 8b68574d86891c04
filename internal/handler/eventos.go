package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/middleware"
	"github.com/romann003/Sistema-de-Gesti-n-de-Inventario-sub000/internal/sse"
)

// EventosHandler streams cache invalidations so open views refetch only the
// collections that changed.
type EventosHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

func NewEventosHandler(hub *sse.Hub) *EventosHandler {
	return &EventosHandler{hub: hub, heartbeat: 30 * time.Second}
}

// Stream GET /v1/eventos
func (h *EventosHandler) Stream(c *gin.Context) {
	clientID := uuid.NewString()
	client := &sse.Client{
		ID:     clientID,
		UserID: middleware.GetActor(c).ID.String(),
		Events: make(chan sse.Event, 64),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(clientID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	// The server WriteTimeout would cut the stream; clients reconnect anyway
	// when the writer does not support lifting it.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
