package handler

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

// SSE event names of the sync events stream
const (
	SSEEventConnected = "connected"
	SSEEventStatus    = "status"
	SSEEventHeartbeat = "heartbeat"
)

// SSEMessage is one server-sent event
type SSEMessage struct {
	Event string
	ID    string
	Data  string
}

func newSSEMessage(event, id string, payload any) (SSEMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return SSEMessage{}, err
	}
	return SSEMessage{Event: event, ID: id, Data: string(data)}, nil
}

// prepareSSE sets the event stream headers
func prepareSSE(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// writeSSE writes one event and flushes it to the client
func writeSSE(c *gin.Context, msg SSEMessage) error {
	if err := encodeSSE(c.Writer, msg); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

func encodeSSE(w io.Writer, msg SSEMessage) error {
	if msg.Event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", msg.Event); err != nil {
			return err
		}
	}
	if msg.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", msg.ID); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", msg.Data)
	return err
}
