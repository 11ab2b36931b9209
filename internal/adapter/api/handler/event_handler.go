package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/juncraft/craftboard/internal/domain"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// LogReader reads the raw tail of the server log, classified on the fly.
type LogReader interface {
	ReadLastLines(count int) ([]domain.Event, error)
}

// EventHandler serves the stored event history and the raw log tail.
type EventHandler struct {
	events domain.EventRepository
	log    LogReader
	logger *slog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events domain.EventRepository, log LogReader, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, log: log, logger: logger}
}

// GetRecent handles requests for recent stored events.
// GET /api/events?kind={kind}&limit={limit}
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxEventLimit)
	}

	kind := domain.EventKind(r.URL.Query().Get("kind"))
	events, err := h.events.RecentEvents(r.Context(), kind, limit)
	if err != nil {
		h.logger.Error("failed to load recent events", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	respondWithJSON(w, http.StatusOK, events)
}

// GetCounts handles requests for per-kind event totals.
// GET /api/events/counts
func (h *EventHandler) GetCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.events.EventCounts(r.Context())
	if err != nil {
		h.logger.Error("failed to load event counts", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, counts)
}

// GetLogTail handles requests for the classified tail of the raw log.
// GET /api/logs/recent?limit={limit}
func (h *EventHandler) GetLogTail(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxEventLimit)
	}

	events, err := h.log.ReadLastLines(limit)
	if err != nil {
		h.logger.Error("failed to read log tail", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	respondWithJSON(w, http.StatusOK, events)
}
