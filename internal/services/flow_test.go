package services

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/events"
	"github.com/Acterion/forum-helper/internal/models"
	"github.com/Acterion/forum-helper/internal/study"
	"github.com/Acterion/forum-helper/internal/wizard"
)

func seedCaseResponse(t *testing.T, submissionID, caseID string) {
	t.Helper()
	resp := models.CaseResponse{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		CaseID:       caseID,
		PreConfidence: 3, PostConfidence: 3, PostStress: 2,
		ReplyText:      "stand-in reply",
		ActionSequence: []byte("[]"),
	}
	if err := db.Conn().Create(&resp).Error; err != nil {
		t.Fatalf("seed case response: %v", err)
	}
}

// seedAllCaseResponses fills in a finished wizard run: one response per
// case in the submission's assigned sequence.
func seedAllCaseResponses(t *testing.T, submissionID string) {
	t.Helper()
	var sub models.Submission
	if err := db.Conn().First(&sub, "id = ?", submissionID).Error; err != nil {
		t.Fatalf("load submission: %v", err)
	}
	row, ok := study.SequenceRow(sub.SequenceIndex)
	if !ok {
		t.Fatalf("no sequence row for index %d", sub.SequenceIndex)
	}
	for _, caseID := range row {
		seedCaseResponse(t, submissionID, caseID)
	}
}

func countResponses(t *testing.T, submissionID string) int64 {
	t.Helper()
	var n int64
	if err := db.Conn().Model(&models.CaseResponse{}).
		Where("submission_id = ?", submissionID).Count(&n).Error; err != nil {
		t.Fatalf("count responses: %v", err)
	}
	return n
}

func preAnswers() map[string]string {
	return map[string]string{
		"age":       "25-34",
		"gender":    "Woman",
		"education": "Bachelor's degree",
		"forum_use": "Monthly",
		"english":   "Agree",
	}
}

// postAnswers builds a complete post-survey answer set for a branch,
// with the attention check answered as given.
func postAnswers(branch, attention string) map[string]string {
	m := map[string]string{
		"task_difficulty":       "Neutral",
		"task_engagement":       "Agree",
		study.AttentionCheckKey: attention,
		"overall_stress":        "Disagree",
	}
	if branch == models.BranchAI {
		m["ai_helpful"] = "Agree"
		m["ai_trust"] = "Neutral"
		m["ai_ownership"] = "Agree"
		m["ai_future"] = "Neutral"
	}
	return m
}

// TestWithdrawConsentPurgesCaseData: refusing debriefing consent
// deletes every CaseResponse for the submission but leaves the
// submission row intact, with the refusal recorded.
func TestWithdrawConsentPurgesCaseData(t *testing.T) {
	initTestDB(t)
	id := seedSubmission(t)
	seedCaseResponse(t, id, "case-1")
	seedCaseResponse(t, id, "case-2")

	if err := RecordConsent(id, GateDebriefing, false); err != nil {
		t.Fatalf("record consent: %v", err)
	}

	if n := countResponses(t, id); n != 0 {
		t.Errorf("%d case responses survived the purge", n)
	}
	var sub models.Submission
	if err := db.Conn().First(&sub, "id = ?", id).Error; err != nil {
		t.Fatalf("submission row gone: %v", err)
	}
	if sub.DebriefingConsent == nil || *sub.DebriefingConsent {
		t.Errorf("refusal not recorded: %v", sub.DebriefingConsent)
	}
}

// TestGrantedConsentKeepsCaseData: a granted debriefing consent must
// not touch the case responses.
func TestGrantedConsentKeepsCaseData(t *testing.T) {
	initTestDB(t)
	id := seedSubmission(t)
	seedCaseResponse(t, id, "case-1")

	if err := RecordConsent(id, GateDebriefing, true); err != nil {
		t.Fatalf("record consent: %v", err)
	}
	if n := countResponses(t, id); n != 1 {
		t.Errorf("case responses = %d, want 1", n)
	}
}

func TestRecordConsentMissingSubmission(t *testing.T) {
	initTestDB(t)
	if err := RecordConsent("nope", GateStudy, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

// TestPreSurveySetOnce: the second write must not overwrite the first.
func TestPreSurveySetOnce(t *testing.T) {
	initTestDB(t)
	id := seedSubmission(t)

	if err := SavePreSurvey(id, preAnswers()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := SavePreSurvey(id, preAnswers()); !errors.Is(err, ErrAlreadySet) {
		t.Errorf("second save: got %v, want ErrAlreadySet", err)
	}
}

// TestPreSurveyValidation: a missing required answer is rejected with
// the field named; an answer outside the declared choices likewise.
func TestPreSurveyValidation(t *testing.T) {
	initTestDB(t)
	id := seedSubmission(t)

	answers := preAnswers()
	delete(answers, "age")
	var verr *wizard.ValidationError
	if err := SavePreSurvey(id, answers); !errors.As(err, &verr) || verr.Field != "age" {
		t.Errorf("missing answer: got %v", err)
	}

	answers = preAnswers()
	answers["age"] = "timeless"
	if err := SavePreSurvey(id, answers); !errors.As(err, &verr) || verr.Field != "age" {
		t.Errorf("bad choice: got %v", err)
	}
}

// TestPostSurveyAttentionFailurePurges: a wrong attention-check answer
// voids the case data and issues no completion code.
func TestPostSurveyAttentionFailurePurges(t *testing.T) {
	initTestDB(t)
	id := seedSubmission(t)
	if _, _, err := Assign(id); err != nil {
		t.Fatalf("assign: %v", err)
	}
	seedAllCaseResponses(t, id)

	var sub models.Submission
	_ = db.Conn().First(&sub, "id = ?", id).Error

	result, err := SavePostSurvey(id, postAnswers(sub.Branch, "Strongly disagree"))
	if err != nil {
		t.Fatalf("save post survey: %v", err)
	}
	if result.AttentionPassed {
		t.Error("attention check should have failed")
	}
	if result.CompletionCode != "" {
		t.Errorf("completion code issued despite failed check: %q", result.CompletionCode)
	}
	if n := countResponses(t, id); n != 0 {
		t.Errorf("%d case responses survived the attention purge", n)
	}
}

// TestPostSurveyRequiresFinishedWizard: the final questionnaire is
// refused until every case in the sequence has a response, so a
// completion code can never be collected without doing the writing
// tasks.
func TestPostSurveyRequiresFinishedWizard(t *testing.T) {
	initTestDB(t)
	id := seedSubmission(t)
	if _, _, err := Assign(id); err != nil {
		t.Fatalf("assign: %v", err)
	}
	var sub models.Submission
	_ = db.Conn().First(&sub, "id = ?", id).Error
	answers := postAnswers(sub.Branch, study.AttentionCheckAnswer)

	// No cases answered at all.
	if _, err := SavePostSurvey(id, answers); !errors.Is(err, wizard.ErrOutOfTurn) {
		t.Fatalf("zero cases: got %v, want ErrOutOfTurn", err)
	}

	// One case short of the full sequence.
	row, _ := study.SequenceRow(sub.SequenceIndex)
	for _, caseID := range row[:len(row)-1] {
		seedCaseResponse(t, id, caseID)
	}
	if _, err := SavePostSurvey(id, answers); !errors.Is(err, wizard.ErrOutOfTurn) {
		t.Fatalf("%d of %d cases: got %v, want ErrOutOfTurn", len(row)-1, len(row), err)
	}

	// The refusal must not touch the submission or the case data.
	_ = db.Conn().First(&sub, "id = ?", id).Error
	if len(sub.PostSurvey) != 0 || sub.CompletionCode != "" {
		t.Errorf("incomplete run still completed: code=%q surveyLen=%d", sub.CompletionCode, len(sub.PostSurvey))
	}
	if n := countResponses(t, id); n != int64(len(row)-1) {
		t.Errorf("case responses disturbed by refusal: %d", n)
	}

	// Answering the last case unblocks it.
	seedCaseResponse(t, id, row[len(row)-1])
	if _, err := SavePostSurvey(id, answers); err != nil {
		t.Fatalf("full run: %v", err)
	}
}

// TestPostSurveyPassCompletes: a passing post survey lands the answers,
// issues an FH-xxxxxx completion code, and fires the completion hook.
func TestPostSurveyPassCompletes(t *testing.T) {
	initTestDB(t)
	id := seedSubmission(t)
	if _, _, err := Assign(id); err != nil {
		t.Fatalf("assign: %v", err)
	}
	seedAllCaseResponses(t, id)
	var sub models.Submission
	_ = db.Conn().First(&sub, "id = ?", id).Error

	var hooked string
	events.OnStudyComplete = func(s models.Submission) { hooked = s.CompletionCode }
	t.Cleanup(func() { events.OnStudyComplete = nil })

	result, err := SavePostSurvey(id, postAnswers(sub.Branch, study.AttentionCheckAnswer))
	if err != nil {
		t.Fatalf("save post survey: %v", err)
	}
	if !result.AttentionPassed {
		t.Fatal("attention check should have passed")
	}
	if !regexp.MustCompile(`^FH-\d{6}$`).MatchString(result.CompletionCode) {
		t.Errorf("completion code = %q", result.CompletionCode)
	}
	if hooked != result.CompletionCode {
		t.Errorf("completion hook saw %q, want %q", hooked, result.CompletionCode)
	}

	_ = db.Conn().First(&sub, "id = ?", id).Error
	if sub.CompletionCode != result.CompletionCode || len(sub.PostSurvey) == 0 {
		t.Errorf("submission row not completed: code=%q surveyLen=%d", sub.CompletionCode, len(sub.PostSurvey))
	}

	// Second write is a set-once conflict.
	if _, err := SavePostSurvey(id, postAnswers(sub.Branch, study.AttentionCheckAnswer)); !errors.Is(err, ErrAlreadySet) {
		t.Errorf("second post survey: got %v, want ErrAlreadySet", err)
	}
}
