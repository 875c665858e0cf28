package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/models"
	"github.com/Acterion/forum-helper/internal/services"
)

type submissionView struct {
	ID              string `json:"id"`
	Branch          string `json:"branch"`
	SequenceIndex   int    `json:"sequenceIndex"`
	StudyConsent    *bool  `json:"studyConsent"`
	DebriefConsent  *bool  `json:"debriefingConsent"`
	PreSurveyDone   bool   `json:"preSurveyDone"`
	PostSurveyDone  bool   `json:"postSurveyDone"`
	AttentionPassed *bool  `json:"attentionPassed"`
	CompletionCode  string `json:"completionCode,omitempty"`
}

func viewOf(sub models.Submission) submissionView {
	return submissionView{
		ID:              sub.ID,
		Branch:          sub.Branch,
		SequenceIndex:   sub.SequenceIndex,
		StudyConsent:    sub.StudyConsent,
		DebriefConsent:  sub.DebriefingConsent,
		PreSurveyDone:   len(sub.PreSurvey) > 0,
		PostSurveyDone:  len(sub.PostSurvey) > 0,
		AttentionPassed: sub.AttentionPassed,
		CompletionCode:  sub.CompletionCode,
	}
}

// POST /api/submissions — study intake. Creates the submission and
// immediately claims a balanced branch + sequence slot for it.
func CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProlificPID string `json:"prolificPid"`
		StudyID     string `json:"studyId"`
		SessionID   string `json:"sessionId"`
	}
	if r.ContentLength > 0 && !decodeBody(w, r, &body) {
		return
	}

	sub := models.Submission{
		ID:            uuid.NewString(),
		SequenceIndex: -1,
		ProlificPID:   body.ProlificPID,
		StudyID:       body.StudyID,
		SessionID:     body.SessionID,
	}
	if err := db.Conn().Create(&sub).Error; err != nil {
		writeError(w, err)
		return
	}

	if _, _, err := services.Assign(sub.ID); err != nil {
		writeError(w, err)
		return
	}
	if err := db.Conn().First(&sub, "id = ?", sub.ID).Error; err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, viewOf(sub))
}

// GET /api/submissions/{id}
func GetSubmission(w http.ResponseWriter, r *http.Request) {
	var sub models.Submission
	if err := db.Conn().First(&sub, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sub))
}

// POST /api/submissions/{id}/consent
func RecordConsent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Gate    string `json:"gate"`
		Granted *bool  `json:"granted"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Granted == nil || (body.Gate != services.GateStudy && body.Gate != services.GateDebriefing) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "bad_request", Message: "gate must be \"study\" or \"debriefing\" and granted must be set"})
		return
	}

	if err := services.RecordConsent(chi.URLParam(r, "id"), body.Gate, *body.Granted); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gate": body.Gate, "granted": *body.Granted})
}
