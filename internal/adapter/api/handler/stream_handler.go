package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/juncraft/craftboard/internal/domain"
)

// EventStream is the stream handler's view of the router: a way to
// attach and detach a live subscriber.
type EventStream interface {
	Subscribe() (<-chan domain.StreamMessage, func())
}

// StreamHandler serves the live event feed over SSE. Each connected
// client gets its own subscription; slow clients miss messages rather
// than stall the publishers.
type StreamHandler struct {
	stream EventStream
	logger *slog.Logger
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(stream EventStream, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{stream: stream, logger: logger.With("component", "stream_handler")}
}

// ServeHTTP handles new client connections for the SSE stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	messages, unsubscribe := h.stream.Subscribe()
	defer unsubscribe()

	h.logger.Info("stream client connected", "remote_addr", r.RemoteAddr)
	defer h.logger.Info("stream client disconnected", "remote_addr", r.RemoteAddr)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("failed to marshal stream message", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
