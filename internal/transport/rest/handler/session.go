package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"exercisehub/internal/service"
)

// SessionHandler serves the log projections of a session
type SessionHandler struct {
	submissions *service.SubmissionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(submissions *service.SubmissionService) *SessionHandler {
	return &SessionHandler{submissions: submissions}
}

// Progress handles GET /v1/sessions/{sessionId}/exercises/{exerciseId}/progress
func (h *SessionHandler) Progress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	progress, err := h.submissions.Progress(r.Context(), vars["sessionId"], vars["exerciseId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// Presenter handles GET /v1/sessions/{sessionId}/presenter
func (h *SessionHandler) Presenter(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.submissions.PresenterSnapshot(r.Context(), mux.Vars(r)["sessionId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exercises": exercises})
}

// Viewer handles GET /v1/sessions/{sessionId}/viewers/{answereeId}
func (h *SessionHandler) Viewer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	exercises, err := h.submissions.ViewerSnapshot(r.Context(), vars["sessionId"], vars["answereeId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exercises": exercises})
}
