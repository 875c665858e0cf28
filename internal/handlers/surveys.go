package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Acterion/forum-helper/internal/services"
)

type surveyBody struct {
	Answers map[string]string `json:"answers"`
}

// POST /api/submissions/{id}/presurvey
func PreSurvey(w http.ResponseWriter, r *http.Request) {
	var body surveyBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := services.SavePreSurvey(chi.URLParam(r, "id"), body.Answers); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

// POST /api/submissions/{id}/postsurvey — final questionnaire. Runs the
// attention check; on a pass the response carries the completion code.
func PostSurvey(w http.ResponseWriter, r *http.Request) {
	var body surveyBody
	if !decodeBody(w, r, &body) {
		return
	}
	result, err := services.SavePostSurvey(chi.URLParam(r, "id"), body.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attentionPassed": result.AttentionPassed,
		"completionCode":  result.CompletionCode,
	})
}
