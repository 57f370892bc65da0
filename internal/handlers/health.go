package handlers

import (
	"net/http"

	"learning-session/internal/services"
)

type backendStatus interface {
	Status() services.BackendStatus
}

type HealthHandler struct {
	backend  backendStatus
	sessions sessionRegistry
}

func NewHealthHandler(backend backendStatus, sessions sessionRegistry) *HealthHandler {
	return &HealthHandler{backend: backend, sessions: sessions}
}

// Check reports the service as up along with the last backend probe.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := h.backend.Status()

	backend := "unknown"
	switch {
	case status.CheckedAt.IsZero():
	case status.Reachable:
		backend = "ok"
	default:
		backend = "unreachable"
	}

	resp := map[string]interface{}{
		"status":   "ok",
		"backend":  backend,
		"sessions": h.sessions.Count(),
	}
	if !status.CheckedAt.IsZero() {
		resp["backend_checked_at"] = status.CheckedAt
	}
	writeJSON(w, http.StatusOK, resp)
}
