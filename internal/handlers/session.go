package handlers

import (
	"net/http"

	"learning-session/internal/models"
	"learning-session/internal/pkg/logger"
)

type tokenIssuer interface {
	GenerateSessionToken(sessionID string) (string, error)
}

type SessionHandler struct {
	sessions sessionRegistry
	tokens   tokenIssuer
	logger   logger.ILogger
}

func NewSessionHandler(sessions sessionRegistry, tokens tokenIssuer, log logger.ILogger) *SessionHandler {
	return &SessionHandler{sessions: sessions, tokens: tokens, logger: log}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Create()

	token, err := h.tokens.GenerateSessionToken(ctrl.ID())
	if err != nil {
		h.sessions.Delete(ctrl.ID())
		h.logger.Error("HANDLER", "Failed to sign session token", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create session", r))
		return
	}

	h.logger.Info("HANDLER", "Session created", map[string]interface{}{
		"session_id": ctrl.ID(),
		"active":     h.sessions.Count(),
	})

	writeJSON(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID: ctrl.ID(),
		Token:     token,
		Session:   ctrl.Snapshot(),
	})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	h.sessions.Delete(ctrl.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) SelectView(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req models.SelectViewRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	respondOperation(w, r, ctrl, ctrl.SelectView(req.View))
}

func (h *SessionHandler) SetDocument(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req models.SetDocumentRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	ctrl.SetDocument(req.FileID)
	respondOperation(w, r, ctrl, nil)
}

func (h *SessionHandler) SetStudent(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req models.SetStudentRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	respondOperation(w, r, ctrl, ctrl.SetStudent(req.StudentID))
}
