package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"learning-session/internal/middleware"
	"learning-session/internal/models"
	"learning-session/internal/session"
)

// sessionRegistry is the subset of session.Registry the handlers need.
type sessionRegistry interface {
	Create() *session.Controller
	Get(id string) (*session.Controller, bool)
	Delete(id string) bool
	Count() int
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: chimiddleware.GetReqID(r.Context()),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: chimiddleware.GetReqID(r.Context()),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *models.ValidationError
		busyErr       *models.BusyError
		transportErr  *models.TransportError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", validationErr.Fields, r))
	case errors.As(err, &busyErr):
		writeJSON(w, http.StatusConflict, errorResp("BUSY", busyErr.Error(), r))
	case errors.As(err, &transportErr):
		writeJSON(w, http.StatusBadGateway, errorResp("BACKEND_ERROR", err.Error(), r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// currentSession resolves the session bound to the request's token.
func currentSession(w http.ResponseWriter, r *http.Request, sessions sessionRegistry) (*session.Controller, bool) {
	ctrl, ok := sessions.Get(middleware.GetSessionID(r.Context()))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found or expired", r))
		return nil, false
	}
	return ctrl, true
}

// respondOperation writes the session snapshot after an operation. A reply
// that lost to a newer request is not an error for the caller.
func respondOperation(w http.ResponseWriter, r *http.Request, ctrl *session.Controller, err error) {
	if err != nil && !models.IsStale(err) {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.OperationResponse{
		Superseded: err != nil,
		Session:    ctrl.Snapshot(),
	})
}

// decodeBody decodes an optional JSON body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
