package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Acterion/forum-helper/internal/services"
	"github.com/Acterion/forum-helper/internal/wizard"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

type apiError struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// writeError maps the service error taxonomy onto stable JSON error
// codes. Validation errors carry the offending field; the assistant
// failure is marked retryable so the UI can offer "try again".
func writeError(w http.ResponseWriter, err error) {
	var verr *wizard.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "validation", Field: verr.Field, Message: verr.Message})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		writeJSON(w, http.StatusNotFound, apiError{Error: "not_found"})
	case errors.Is(err, services.ErrAlreadySet):
		writeJSON(w, http.StatusConflict, apiError{Error: "already_set"})
	case errors.Is(err, services.ErrNotAssigned):
		writeJSON(w, http.StatusConflict, apiError{Error: "not_assigned"})
	case errors.Is(err, wizard.ErrOutOfTurn):
		writeJSON(w, http.StatusConflict, apiError{Error: "out_of_turn"})
	case errors.Is(err, services.ErrAssistPending):
		writeJSON(w, http.StatusConflict, apiError{Error: "assist_pending"})
	case errors.Is(err, services.ErrWrongBranch):
		writeJSON(w, http.StatusForbidden, apiError{Error: "wrong_branch"})
	case errors.Is(err, services.ErrAssistUnavailable):
		writeJSON(w, http.StatusBadGateway, apiError{Error: "assist_unavailable", Retryable: true, Message: "the writing assistant is unavailable, please retry"})
	case errors.Is(err, services.ErrConfig):
		log.Error().Err(err).Msg("study configuration error")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "config"})
	default:
		log.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "bad_request", Message: "invalid JSON body"})
		return false
	}
	return true
}
