package handlers

import (
	"net/http"
	"strings"

	"learning-session/internal/models"
)

type ChatHandler struct {
	sessions sessionRegistry
}

func NewChatHandler(sessions sessionRegistry) *ChatHandler {
	return &ChatHandler{sessions: sessions}
}

func (h *ChatHandler) SetDraft(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req models.ChatDraftRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	ctrl.SetDraft(req.Text)
	respondOperation(w, r, ctrl, nil)
}

// Ask sends the given question, or the current draft when none is given.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req models.ChatAskRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	question := req.Question
	if strings.TrimSpace(question) == "" {
		question = ctrl.Draft()
	}

	_, err := ctrl.Ask(r.Context(), question)
	respondOperation(w, r, ctrl, err)
}
