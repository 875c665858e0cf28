package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/events"
	"github.com/Acterion/forum-helper/internal/models"
	"github.com/Acterion/forum-helper/internal/study"
	"github.com/Acterion/forum-helper/internal/wizard"
)

// validateAnswers checks a submitted answer set against a question set:
// required answers present, choice answers among the declared choices.
func validateAnswers(qs []study.Question, answers map[string]string) error {
	for _, q := range qs {
		val := strings.TrimSpace(answers[q.Key])
		if val == "" {
			if q.Required {
				return &wizard.ValidationError{Field: q.Key, Message: "please answer: " + q.Label}
			}
			continue
		}
		if len(q.Choices) > 0 {
			ok := false
			for _, c := range q.Choices {
				if c == val {
					ok = true
					break
				}
			}
			if !ok {
				return &wizard.ValidationError{Field: q.Key, Message: "invalid choice for: " + q.Label}
			}
		}
	}
	return nil
}

func loadSubmission(id string) (models.Submission, error) {
	var sub models.Submission
	if err := db.Conn().Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sub, fmt.Errorf("%w: submission %s", ErrNotFound, id)
		}
		return sub, err
	}
	return sub, nil
}

// SavePreSurvey records the demographics questionnaire. Set-once: the
// conditional update only lands while the column is still NULL, so a
// repeat write surfaces as ErrAlreadySet instead of overwriting data.
func SavePreSurvey(submissionID string, answers map[string]string) error {
	if err := validateAnswers(study.PreSurveyQuestions(), answers); err != nil {
		return err
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}

	res := db.Conn().Model(&models.Submission{}).
		Where("id = ? AND pre_survey IS NULL", submissionID).
		Update("pre_survey", datatypes.JSON(raw))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := loadSubmission(submissionID); err != nil {
			return err
		}
		return fmt.Errorf("%w: pre-survey for %s", ErrAlreadySet, submissionID)
	}
	return nil
}

// PostSurveyResult is what the surrounding flow needs after the final
// questionnaire: whether the attention check held, and the completion
// code when it did.
type PostSurveyResult struct {
	AttentionPassed bool
	CompletionCode  string
}

// SavePostSurvey records the post-study questionnaire against the
// submission's branch-specific question set, evaluates the attention
// check, and completes the study. Refused until every case in the
// submission's sequence has a response: the completion code is the
// participant's proof of work, so it must never be issuable with the
// wizard still open. A failed check voids the case data: every
// CaseResponse for the submission is purged, while the submission row
// itself (with the survey answers) stays for the exclusion report.
func SavePostSurvey(submissionID string, answers map[string]string) (PostSurveyResult, error) {
	var result PostSurveyResult

	sub, err := loadSubmission(submissionID)
	if err != nil {
		return result, err
	}
	if !sub.Assigned() {
		return result, fmt.Errorf("%w: %s", ErrNotAssigned, submissionID)
	}
	row, ok := study.SequenceRow(sub.SequenceIndex)
	if !ok {
		return result, fmt.Errorf("%w: sequence index %d outside table", ErrConfig, sub.SequenceIndex)
	}
	var answered int64
	if err := db.Conn().Model(&models.CaseResponse{}).
		Where("submission_id = ?", submissionID).
		Count(&answered).Error; err != nil {
		return result, err
	}
	if answered < int64(len(row)) {
		return result, fmt.Errorf("%w: %d of %d cases answered", wizard.ErrOutOfTurn, answered, len(row))
	}
	if err := validateAnswers(study.PostSurveyQuestions(sub.Branch), answers); err != nil {
		return result, err
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return result, err
	}

	passed := strings.TrimSpace(answers[study.AttentionCheckKey]) == study.AttentionCheckAnswer
	result.AttentionPassed = passed
	code := ""
	if passed {
		code, err = generateCompletionCode()
		if err != nil {
			return result, fmt.Errorf("completion code for %s: %w", submissionID, err)
		}
	}

	err = db.Conn().Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Submission{}).
			Where("id = ? AND post_survey IS NULL", submissionID).
			Updates(map[string]any{
				"post_survey":      datatypes.JSON(raw),
				"attention_passed": passed,
				"completion_code":  code,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: post-survey for %s", ErrAlreadySet, submissionID)
		}
		if !passed {
			return purgeCaseResponses(tx, submissionID)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result.CompletionCode = code
	if passed && events.OnStudyComplete != nil {
		sub.PostSurvey = raw
		sub.CompletionCode = code
		events.OnStudyComplete(sub)
	}
	return result, nil
}

// generateCompletionCode creates a unique FH-xxxxxx code. The partial
// unique index on completion_code backstops the check, so a concurrent
// collision fails the completing update instead of issuing a duplicate.
func generateCompletionCode() (string, error) {
	for i := 0; i < 20; i++ {
		code := fmt.Sprintf("FH-%06d", rand.Intn(1000000))
		var exists int64
		if err := db.Conn().Model(&models.Submission{}).
			Where("completion_code = ?", code).
			Count(&exists).Error; err != nil {
			return "", err
		}
		if exists == 0 {
			return code, nil
		}
	}
	return "", errors.New("completion code space exhausted after 20 attempts")
}
