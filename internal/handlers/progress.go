package handlers

import "net/http"

type ProgressHandler struct {
	sessions sessionRegistry
}

func NewProgressHandler(sessions sessionRegistry) *ProgressHandler {
	return &ProgressHandler{sessions: sessions}
}

func (h *ProgressHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	_, err := ctrl.RefreshProgress(r.Context())
	respondOperation(w, r, ctrl, err)
}

func (h *ProgressHandler) TeacherReport(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	_, err := ctrl.FetchTeacherReport(r.Context())
	respondOperation(w, r, ctrl, err)
}
