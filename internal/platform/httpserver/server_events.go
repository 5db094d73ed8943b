package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const eventsKeepAlive = 25 * time.Second

// handleEvents godoc
// @Summary Stream drop and claim changes
// @Description Server-Sent Events. The first frame is "hello" with the server version; every later frame is named after the event type and carries the envelope.
// @Tags events
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /events [get]
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok || s.events == nil {
		writeDropError(w, http.StatusNotImplemented, "streaming_unsupported", "event streaming is not available", nil)
		return
	}

	sub := s.events.Subscribe()
	defer sub.Close()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSE(w, "hello", map[string]string{"version": s.version}); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(eventsKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.streams.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case envelope, open := <-sub.Events():
			if !open {
				return
			}
			if err := writeSSE(w, envelope.EventType, envelope); err != nil {
				s.logger.Debug("event stream write failed",
					"event", "events_stream_write_failed",
					"module", "internal/platform/httpserver",
					"layer", "platform",
					"error", err.Error(),
				)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
