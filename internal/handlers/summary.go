package handlers

import "net/http"

type SummaryHandler struct {
	sessions sessionRegistry
}

func NewSummaryHandler(sessions sessionRegistry) *SummaryHandler {
	return &SummaryHandler{sessions: sessions}
}

func (h *SummaryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	_, err := ctrl.Summarize(r.Context())
	respondOperation(w, r, ctrl, err)
}
