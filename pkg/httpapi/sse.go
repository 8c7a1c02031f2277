package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ravi-parthasarathy/webforge/pkg/events"
)

// streamEvents serves the SSE feed: matching history is replayed first,
// then live events until the client disconnects or, for project-scoped
// streams, a terminal event arrives.
func (s *Server) streamEvents(c *gin.Context) {
	f := filterFromQuery(c)

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	// Project-scoped streams end at the run's terminal event; a wildcard
	// stream observes many runs and stays open until the client leaves.
	scoped := f.ProjectID != ""

	// Registering and snapshotting under one lock means events published
	// during replay queue on the subscription instead of being missed.
	sub, history := s.broadcaster.RegisterWithHistory(f)
	defer s.broadcaster.Unregister(sub)

	for _, env := range history {
		terminal, err := writeEvent(c.Writer, env)
		if err != nil {
			return
		}
		if terminal && scoped {
			writeDone(c.Writer)
			return
		}
	}
	c.Writer.Flush()

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(c.Writer, ": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case env := <-sub.Events():
			terminal, err := writeEvent(c.Writer, env)
			if err != nil {
				return
			}
			if terminal && scoped {
				writeDone(c.Writer)
				return
			}
		}
	}
}

// writeEvent frames one envelope and flushes it. Reports whether the event
// terminates a stream.
func writeEvent(w gin.ResponseWriter, env events.Envelope) (bool, error) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("marshal event for SSE", "event_type", env.EventType, "error", err)
		return false, nil
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return false, err
	}
	w.Flush()
	return env.EventType.Terminal(), nil
}

func writeDone(w io.Writer) {
	fmt.Fprint(w, "data: [DONE]\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
