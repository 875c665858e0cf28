package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/models"
	"github.com/Acterion/forum-helper/internal/services"
)

// GET /api/submissions/{id}/wizard — current wizard view plus the
// content of the case the participant is on.
func WizardView(sm *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sm.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		view := s.View()

		resp := map[string]any{"wizard": view}
		if view.CaseID != "" {
			var c models.Case
			if err := db.Conn().First(&c, "id = ?", view.CaseID).Error; err != nil {
				writeError(w, err)
				return
			}
			resp["case"] = caseViewOf(c, w)
			if resp["case"] == nil {
				return
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type wizardEvent struct {
	Type string `json:"type"`

	Rating         int    `json:"rating,omitempty"`
	Text           string `json:"text,omitempty"`
	PostConfidence int    `json:"postConfidence,omitempty"`
	PostStress     int    `json:"postStress,omitempty"`
}

// POST /api/submissions/{id}/wizard/events — dispatch one wizard event
// and return the resulting view. Validation failures come back as 422
// with the field; they never abort the wizard.
func WizardEvent(sm *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sm.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}

		var ev wizardEvent
		if !decodeBody(w, r, &ev) {
			return
		}

		switch ev.Type {
		case "next":
			err = s.Next()
		case "set-pre-confidence":
			err = s.SetPreConfidence(ev.Rating)
		case "edit-reply":
			err = s.EditReply(ev.Text)
		case "accept-suggestion":
			err = s.AcceptSuggestion()
		case "dismiss-suggestion":
			err = s.DismissSuggestion()
		case "confirm-no-ai":
			err = s.ConfirmNoAi()
		case "cancel-no-ai":
			err = s.CancelNoAi()
		case "set-post-ratings":
			err = s.SetPostRatings(ev.PostConfidence, ev.PostStress)
		case "set-comment":
			err = s.SetComment(ev.Text)
		case "submit":
			err = s.Submit()
		default:
			writeJSON(w, http.StatusBadRequest, apiError{Error: "bad_request", Message: "unknown event type: " + ev.Type})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"wizard": s.View()})
	}
}

// POST /api/submissions/{id}/wizard/assist — request an AI suggestion
// for the current draft (AI arm only).
func WizardAssist(sm *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sm.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.RequestAssist(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"wizard": s.View()})
	}
}
