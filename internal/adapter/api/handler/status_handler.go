package handler

import (
	"log/slog"
	"net/http"

	"github.com/juncraft/craftboard/internal/adapter/mctext"
	"github.com/juncraft/craftboard/internal/domain"
)

// StatusSource yields the most recent server observation.
type StatusSource interface {
	LastStatus() domain.StatusSnapshot
}

// StatusHandler serves the current server status and the static server
// configuration.
type StatusHandler struct {
	source StatusSource
	config domain.ConfigReader
	logger *slog.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(source StatusSource, config domain.ConfigReader, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{source: source, config: config, logger: logger}
}

type statusResponse struct {
	domain.StatusSnapshot
	MOTDSegments []mctext.Segment `json:"motdSegments,omitempty"`
}

// GetStatus handles requests for the latest status snapshot.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := h.source.LastStatus()
	resp := statusResponse{StatusSnapshot: status}
	if status.MOTD != "" {
		resp.MOTDSegments = mctext.DecodeMOTD(status.MOTD)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// GetConfig handles requests for the parsed server configuration.
// GET /api/config
func (h *StatusHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if h.config == nil || !h.config.IsReadable() {
		http.Error(w, "server configuration not available", http.StatusNotFound)
		return
	}
	respondWithJSON(w, http.StatusOK, h.config.ReadConfig())
}
