package api

import (
	"log/slog"
	"net/http"

	"github.com/juncraft/craftboard/internal/adapter/api/handler"
	"github.com/juncraft/craftboard/internal/adapter/api/middleware"
	"github.com/juncraft/craftboard/internal/domain"
)

// Deps bundles everything the HTTP layer serves.
type Deps struct {
	Status   handler.StatusSource
	Config   domain.ConfigReader
	Events   domain.EventRepository
	Sessions domain.SessionRepository
	Metrics  domain.MetricsRepository
	Log      handler.LogReader
	Gateway  handler.CommandGateway
	Stream   handler.EventStream
}

// NewRouter creates and configures the main HTTP router for the
// monitoring service. Mutating endpoints are guarded by the bearer
// token; read endpoints are open.
func NewRouter(deps Deps, apiToken string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	statusHandler := handler.NewStatusHandler(deps.Status, deps.Config, logger)
	eventHandler := handler.NewEventHandler(deps.Events, deps.Log, logger)
	playerHandler := handler.NewPlayerHandler(deps.Sessions, logger)
	metricsHandler := handler.NewMetricsHandler(deps.Metrics, logger)
	commandHandler := handler.NewCommandHandler(deps.Gateway, logger)
	streamHandler := handler.NewStreamHandler(deps.Stream, logger)

	auth := middleware.Auth(apiToken, logger)

	mux.HandleFunc("GET /api/status", statusHandler.GetStatus)
	mux.HandleFunc("GET /api/config", statusHandler.GetConfig)
	mux.HandleFunc("GET /api/events", eventHandler.GetRecent)
	mux.HandleFunc("GET /api/events/counts", eventHandler.GetCounts)
	mux.HandleFunc("GET /api/logs/recent", eventHandler.GetLogTail)
	mux.HandleFunc("GET /api/players/online", playerHandler.GetOnline)
	mux.HandleFunc("GET /api/players/{username}/sessions", playerHandler.GetSessions)
	mux.HandleFunc("GET /api/players/{username}/stats", playerHandler.GetStats)
	mux.HandleFunc("GET /api/metrics/history", metricsHandler.GetHistory)
	mux.Handle("GET /api/stream", streamHandler)

	mux.Handle("POST /api/command", auth(http.HandlerFunc(commandHandler.Execute)))
	mux.Handle("GET /api/command/history", auth(http.HandlerFunc(commandHandler.History)))
	mux.HandleFunc("GET /api/whitelist", commandHandler.GetWhitelist)
	mux.Handle("POST /api/whitelist", auth(http.HandlerFunc(commandHandler.UpdateWhitelist)))

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}
