package services

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/models"
)

// Consent gates. "study" is answered before any data collection,
// "debriefing" after the debriefing text at the end.
const (
	GateStudy      = "study"
	GateDebriefing = "debriefing"
)

// RecordConsent stores one consent answer. Withdrawing debriefing
// consent voids the collected case data: all CaseResponses for the
// submission are deleted in the same transaction, while the submission
// row itself stays, with the refusal recorded.
func RecordConsent(submissionID, gate string, granted bool) error {
	var column string
	switch gate {
	case GateStudy:
		column = "study_consent"
	case GateDebriefing:
		column = "debriefing_consent"
	default:
		return fmt.Errorf("unknown consent gate %q", gate)
	}

	return db.Conn().Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Update(column, granted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: submission %s", ErrNotFound, submissionID)
		}
		if gate == GateDebriefing && !granted {
			return purgeCaseResponses(tx, submissionID)
		}
		return nil
	})
}

// purgeCaseResponses bulk-deletes a submission's case data. Used on
// consent withdrawal and attention-check failure.
func purgeCaseResponses(tx *gorm.DB, submissionID string) error {
	res := tx.Where("submission_id = ?", submissionID).Delete(&models.CaseResponse{})
	if res.Error != nil {
		return res.Error
	}
	log.Info().Str("submission", submissionID).Int64("deleted", res.RowsAffected).Msg("purged case responses")
	return nil
}
