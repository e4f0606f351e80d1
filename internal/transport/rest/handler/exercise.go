package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"exercisehub/internal/service"
)

// ExerciseHandler exposes the exercise lifecycle hooks over HTTP
type ExerciseHandler struct {
	hooks service.ExerciseHooks
}

// NewExerciseHandler creates a new exercise handler
func NewExerciseHandler(hooks service.ExerciseHooks) *ExerciseHandler {
	return &ExerciseHandler{hooks: hooks}
}

type parseBody struct {
	HTML         string   `json:"html"`
	QuestionTags []string `json:"questionTags"`
}

// Parse handles POST /v1/presentations/{presentationId}/parse
func (h *ExerciseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var body parseBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.hooks.DocumentParsed(r.Context(), service.ParseRequest{
		HTML:           body.HTML,
		PresentationID: mux.Vars(r)["presentationId"],
		QuestionTags:   body.QuestionTags,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type settingsBody struct {
	HTML     string         `json:"html"`
	Settings map[string]any `json:"settings"`
}

// UpdateSettings handles PUT /v1/exercises/{exerciseId}/settings.
// A failed update is still a 200; the status field carries the outcome.
func (h *ExerciseHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Settings == nil {
		writeError(w, http.StatusBadRequest, "settings are required")
		return
	}

	res, err := h.hooks.SettingsUpdateRequested(r.Context(), service.SettingsUpdateRequest{
		ExerciseID: mux.Vars(r)["exerciseId"],
		HTML:       body.HTML,
		Settings:   body.Settings,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type submissionBody struct {
	SessionID  string   `json:"sessionId"`
	AnswereeID string   `json:"answereeId"`
	Answers    any      `json:"answers"`
	Confidence *float64 `json:"confidence"`
}

// Submit handles POST /v1/exercises/{exerciseId}/submissions
func (h *ExerciseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body submissionBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.hooks.SubmissionReceived(r.Context(), service.SubmissionRequest{
		ExerciseID: mux.Vars(r)["exerciseId"],
		SessionID:  body.SessionID,
		AnswereeID: body.AnswereeID,
		Answers:    body.Answers,
		Confidence: body.Confidence,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}
