package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"teikipass/internal/config"
	"teikipass/internal/planner"
	"teikipass/internal/realtime"
)

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	planner *planner.Planner
	rt      *realtime.Store // nil when no alerts feed is configured
	cfg     *config.Config
	logger  *slog.Logger
}

// New creates a Handler.
func New(p *planner.Planner, rt *realtime.Store, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{planner: p, rt: rt, cfg: cfg, logger: logger}
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorBody{Error: msg})
}
