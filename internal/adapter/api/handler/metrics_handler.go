package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/juncraft/craftboard/internal/domain"
)

const defaultMetricsWindow = time.Hour

// MetricsHandler serves the stored performance history.
type MetricsHandler struct {
	metrics domain.MetricsRepository
	logger  *slog.Logger
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(metrics domain.MetricsRepository, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, logger: logger}
}

// GetHistory handles requests for performance samples over a window.
// GET /api/metrics/history?window={duration}
func (h *MetricsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	window := defaultMetricsWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid window parameter", http.StatusBadRequest)
			return
		}
		window = parsed
	}

	samples, err := h.metrics.MetricsSince(r.Context(), time.Now().Add(-window))
	if err != nil {
		h.logger.Error("failed to load metric samples", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if samples == nil {
		samples = []domain.MetricSample{}
	}
	respondWithJSON(w, http.StatusOK, samples)
}
