package handlers

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/homeagent/pkg/device"
)

// EventHub fans registry changes out to stream subscribers. Slow subscribers
// miss events rather than block the mutating goroutine.
type EventHub struct {
	mu          sync.Mutex
	subscribers []chan device.Change
}

// NewEventHub creates a hub fed by reg.
func NewEventHub(reg *device.Registry) *EventHub {
	h := &EventHub{}
	reg.Subscribe(h.publish)
	return h
}

func (h *EventHub) Subscribe() chan device.Change {
	ch := make(chan device.Change, 16)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

func (h *EventHub) Unsubscribe(ch chan device.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, sub := range h.subscribers {
		if sub == ch {
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (h *EventHub) publish(c device.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- c:
		default:
			log.Debug().Str("device", c.DeviceID).Msg("event subscriber full, dropping change")
		}
	}
}

// EventsHandler streams device changes
type EventsHandler struct {
	hub       *EventHub
	heartbeat time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *EventHub) *EventsHandler {
	return &EventsHandler{hub: hub, heartbeat: 30 * time.Second}
}

// Stream handles GET /events (SSE stream)
// @Summary      Subscribe to device changes
// @Description  Server-Sent Events stream with one "state" event per device state change
// @Tags         devices
// @Produce      text/event-stream
// @Success      200  {string}  string  "SSE event stream"
// @Router       /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	changes := h.hub.Subscribe()
	defer h.hub.Unsubscribe(changes)

	sendSSEEvent(c.Writer, "connected", map[string]any{"timestamp": time.Now()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return

		case change, ok := <-changes:
			if !ok {
				return
			}
			sendSSEEvent(c.Writer, "state", change)
			c.Writer.Flush()

		case <-ticker.C:
			sendSSEEvent(c.Writer, "heartbeat", map[string]any{"timestamp": time.Now()})
			c.Writer.Flush()
		}
	}
}

func sendSSEEvent(w io.Writer, event string, data any) {
	payload, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+event+"\n")
	_, _ = io.WriteString(w, "data: "+string(payload)+"\n\n")
}
