package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store     pinger
	running   func() bool
	responder responder
}

// NewHealthHandler reports store reachability. running, when set, is surfaced as run_in_progress.
func NewHealthHandler(store pinger, running func() bool, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, running: running, responder: newResponder(logger)}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.running != nil {
		resp.RunInProgress = h.running()
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.responder.loggerFor(r.Context()).Warn("health check failed", "error", err)
			resp.Status = "unavailable"
			resp.Error = err.Error()
			h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type healthResponse struct {
	Status        string `json:"status"`
	RunInProgress bool   `json:"run_in_progress"`
	Error         string `json:"error,omitempty"`
}
