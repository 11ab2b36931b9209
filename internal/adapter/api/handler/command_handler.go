package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/juncraft/craftboard/internal/domain"
)

// CommandGateway is the handler's view of the serialized command
// gateway.
type CommandGateway interface {
	domain.Commander
	History() []domain.CommandRecord
	Whitelist(ctx context.Context) []string
	WhitelistAdd(ctx context.Context, player string) domain.CommandResult
	WhitelistRemove(ctx context.Context, player string) domain.CommandResult
	WhitelistEnabled(ctx context.Context, enabled bool) domain.CommandResult
}

// CommandHandler exposes remote command execution and the recent
// command history.
type CommandHandler struct {
	gateway CommandGateway
	logger  *slog.Logger
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(gateway CommandGateway, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{gateway: gateway, logger: logger.With("component", "command_handler")}
}

// Execute handles raw command execution requests.
// POST /api/command
func (h *CommandHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	command := strings.TrimSpace(payload.Command)
	if command == "" {
		http.Error(w, "command is required", http.StatusBadRequest)
		return
	}

	result := h.gateway.Execute(r.Context(), command)
	h.logger.Info("command executed", "command", command, "success", result.Success)
	respondWithJSON(w, http.StatusOK, result)
}

// History handles requests for the recent command history.
// GET /api/command/history
func (h *CommandHandler) History(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.gateway.History())
}

// GetWhitelist handles requests for the current whitelist.
// GET /api/whitelist
func (h *CommandHandler) GetWhitelist(w http.ResponseWriter, r *http.Request) {
	players := h.gateway.Whitelist(r.Context())
	respondWithJSON(w, http.StatusOK, map[string][]string{"players": players})
}

// UpdateWhitelist handles whitelist mutations.
// POST /api/whitelist
func (h *CommandHandler) UpdateWhitelist(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Action string `json:"action"` // add, remove, on, off
		Player string `json:"player"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var result domain.CommandResult
	switch payload.Action {
	case "add":
		if payload.Player == "" {
			http.Error(w, "player is required", http.StatusBadRequest)
			return
		}
		result = h.gateway.WhitelistAdd(r.Context(), payload.Player)
	case "remove":
		if payload.Player == "" {
			http.Error(w, "player is required", http.StatusBadRequest)
			return
		}
		result = h.gateway.WhitelistRemove(r.Context(), payload.Player)
	case "on":
		result = h.gateway.WhitelistEnabled(r.Context(), true)
	case "off":
		result = h.gateway.WhitelistEnabled(r.Context(), false)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	h.logger.Info("whitelist updated", "action", payload.Action, "player", payload.Player, "success", result.Success)
	respondWithJSON(w, http.StatusOK, result)
}
