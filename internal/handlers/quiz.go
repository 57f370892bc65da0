package handlers

import (
	"net/http"
	"strings"

	"learning-session/internal/models"
)

type QuizHandler struct {
	sessions sessionRegistry
}

func NewQuizHandler(sessions sessionRegistry) *QuizHandler {
	return &QuizHandler{sessions: sessions}
}

func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req models.GenerateQuizBody
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	mode := models.QuizMode(strings.ToLower(strings.TrimSpace(req.Mode)))
	respondOperation(w, r, ctrl, ctrl.GenerateQuiz(r.Context(), mode, req.NumQuestions))
}

func (h *QuizHandler) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var req models.SelectAnswerRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	respondOperation(w, r, ctrl, ctrl.SelectAnswer(req.QuestionID, req.Question, req.Option))
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	_, err := ctrl.SubmitQuiz(r.Context())
	respondOperation(w, r, ctrl, err)
}
