package handlers

import (
	"net/http"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/common"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *common.Logger
	busy   func() bool
}

// NewHealthHandler creates a new health handler. busy reports whether an
// analysis is in flight and may be nil.
func NewHealthHandler(logger *common.Logger, busy func() bool) *HealthHandler {
	return &HealthHandler{logger: logger, busy: busy}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	analysis := "idle"
	if h.busy != nil && h.busy() {
		analysis = "running"
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"analysis": analysis,
	})
}
