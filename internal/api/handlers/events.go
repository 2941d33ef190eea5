package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"supply-rounds/internal/events"
)

// HeartbeatInterval is how often an idle event stream sends a heartbeat.
var HeartbeatInterval = 15 * time.Second

// Events handles GET /api/v1/session/events as a server-sent event stream.
// The stream follows ?session_id= or the current session and closes once
// that session ends or fails.
func (h *SessionHandler) Events(c *gin.Context) {
	id := c.Query("session_id")
	if id == "" {
		if s := h.current(); s != nil {
			id = s.ID()
		}
	}
	if id == "" {
		writeError(c, http.StatusNotFound, "NO_SESSION", "no session to follow", nil)
		return
	}
	broker := h.opts.Broker
	if broker == nil {
		writeError(c, http.StatusServiceUnavailable, "EVENTS_DISABLED", "no event broker configured", nil)
		return
	}

	ch := broker.Subscribe(id)
	defer broker.Unsubscribe(id, ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("heartbeat", gin.H{"session_id": id, "ts": time.Now().UTC().Format(time.RFC3339)})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(evt.Type, evt)
			return evt.Type != events.TypeSessionEnded && evt.Type != events.TypeSessionFailed
		case <-time.After(HeartbeatInterval):
			c.SSEvent("heartbeat", gin.H{"session_id": id, "ts": time.Now().UTC().Format(time.RFC3339)})
			return true
		}
	})
}
