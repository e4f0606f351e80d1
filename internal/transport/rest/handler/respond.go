package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"exercisehub/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps a service error onto a status code
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrMalformedAttributes), errors.Is(err, model.ErrInvalidSubmission):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrDuplicateIdentity):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		if _, ok := model.AsSettingError(err); ok {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Printf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
