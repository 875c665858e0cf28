package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/models"
)

// The balancer greedily fills the currently-smallest bucket: the branch
// with fewer participants, then the least-used sequence slot within
// that branch. Over time this keeps both arms within one participant of
// each other and all ten slots within one of each other.

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func coinFlip() bool {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(2) == 0
}

// ChooseBranch picks the branch with the strictly smaller total, or
// uniformly at random when the totals are equal. Read-only; the caller
// applies the increment.
func ChooseBranch(a, b models.BranchCounter) string {
	switch {
	case a.Total < b.Total:
		return a.Branch
	case b.Total < a.Total:
		return b.Branch
	case coinFlip():
		return a.Branch
	default:
		return b.Branch
	}
}

// ChooseSequence returns the index of the minimum slot count. Ties
// resolve to the lowest such index, deterministically.
func ChooseSequence(counts []int) int {
	min := 0
	for i, c := range counts {
		if c < counts[min] {
			min = i
		}
	}
	return min
}

const maxAssignRetries = 5

// errCounterMoved: the optimistic guard on the counter row failed
// because a concurrent assignment got there first.
var errCounterMoved = errors.New("branch counter changed underneath us")

// Assign claims a branch and sequence slot for the submission and
// persists both onto its row. The whole read-choose-increment runs in
// one transaction, with the increment guarded by the counter's previous
// total, so two concurrent assignments can never both claim the same
// state of a counter; the loser retries against fresh counts.
func Assign(submissionID string) (string, int, error) {
	for attempt := 0; attempt < maxAssignRetries; attempt++ {
		branch, seq, err := tryAssign(submissionID)
		if errors.Is(err, errCounterMoved) {
			continue
		}
		return branch, seq, err
	}
	return "", -1, fmt.Errorf("assign %s: counters kept moving after %d attempts", submissionID, maxAssignRetries)
}

func tryAssign(submissionID string) (string, int, error) {
	var branch string
	seq := -1

	err := db.Conn().Transaction(func(tx *gorm.DB) error {
		var counters []models.BranchCounter
		if err := tx.Find(&counters).Error; err != nil {
			return err
		}
		if len(counters) != 2 {
			return fmt.Errorf("%w: expected 2 branch counters, found %d", ErrConfig, len(counters))
		}

		byBranch := map[string]models.BranchCounter{}
		for _, c := range counters {
			byBranch[c.Branch] = c
		}
		a, okA := byBranch[models.BranchAI]
		b, okB := byBranch[models.BranchControl]
		if !okA || !okB {
			return fmt.Errorf("%w: branch counter rows mislabeled", ErrConfig)
		}

		branch = ChooseBranch(a, b)
		chosen := byBranch[branch]

		counts, err := chosen.Counts()
		if err != nil {
			return fmt.Errorf("%w: bad sequence counts for %s: %v", ErrConfig, branch, err)
		}
		if len(counts) != models.SequenceSlots {
			return fmt.Errorf("%w: %s has %d sequence slots, want %d", ErrConfig, branch, len(counts), models.SequenceSlots)
		}
		seq = ChooseSequence(counts)
		counts[seq]++
		raw, err := json.Marshal(counts)
		if err != nil {
			return err
		}

		// Optimistic claim: only applies if nobody else has bumped this
		// counter since we read it.
		res := tx.Model(&models.BranchCounter{}).
			Where("branch = ? AND total = ?", branch, chosen.Total).
			Updates(map[string]any{
				"total":           chosen.Total + 1,
				"sequence_counts": datatypes.JSON(raw),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errCounterMoved
		}

		res = tx.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Updates(map[string]any{"branch": branch, "sequence_index": seq})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: submission %s", ErrNotFound, submissionID)
		}
		return nil
	})
	if err != nil {
		return "", -1, err
	}
	return branch, seq, nil
}
