package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/juncraft/craftboard/internal/domain"
)

const defaultSessionLimit = 25

// PlayerHandler serves player presence and session history.
type PlayerHandler struct {
	sessions domain.SessionRepository
	logger   *slog.Logger
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(sessions domain.SessionRepository, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{sessions: sessions, logger: logger}
}

// GetOnline handles requests for currently open sessions.
// GET /api/players/online
func (h *PlayerHandler) GetOnline(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.OpenSessions(r.Context())
	if err != nil {
		h.logger.Error("failed to load open sessions", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []domain.PlayerSession{}
	}
	respondWithJSON(w, http.StatusOK, sessions)
}

// GetSessions handles requests for a player's session history.
// GET /api/players/{username}/sessions?limit={limit}
func (h *PlayerHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	limit := defaultSessionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	sessions, err := h.sessions.SessionsForPlayer(r.Context(), username, limit)
	if err != nil {
		h.logger.Error("failed to load player sessions", "username", username, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []domain.PlayerSession{}
	}
	respondWithJSON(w, http.StatusOK, sessions)
}

// GetStats handles requests for a player's aggregated stats.
// GET /api/players/{username}/stats
func (h *PlayerHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	stats, err := h.sessions.StatsForPlayer(r.Context(), username)
	if err != nil {
		h.logger.Error("failed to load player stats", "username", username, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		http.Error(w, "player not found", http.StatusNotFound)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
