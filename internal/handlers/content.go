package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"learning-session/internal/models"
)

// multipartOverhead leaves room for form boundaries and headers.
const multipartOverhead = 1 << 20

type ContentHandler struct {
	sessions       sessionRegistry
	maxUploadBytes int64
}

func NewContentHandler(sessions sessionRegistry, maxUploadBytes int64) *ContentHandler {
	return &ContentHandler{sessions: sessions, maxUploadBytes: maxUploadBytes}
}

func (h *ContentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	tooLarge := models.NewValidationError("file", fmt.Sprintf("File exceeds %d MB", h.maxUploadBytes>>20))
	if r.ContentLength > h.maxUploadBytes+multipartOverhead {
		handleServiceError(w, r, tooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handleServiceError(w, r, tooLarge)
			return
		}
		handleServiceError(w, r, models.NewValidationError("file", "Select a PDF first"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read uploaded file", r))
		return
	}

	_, err = ctrl.Upload(r.Context(), header.Filename, data)
	respondOperation(w, r, ctrl, err)
}
