package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// The two experimental arms. Branch-a sees the AI writing assistant,
// branch-b writes unaided.
const (
	BranchAI      = "branch-a"
	BranchControl = "branch-b"
)

// Number of counterbalanced presentation orders per branch.
const SequenceSlots = 10

// Submission is one participant's run through the study.
type Submission struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Branch        string `gorm:"index"`      // "" until assigned
	SequenceIndex int    `gorm:"default:-1"` // -1 until assigned

	// Set exactly once each by their survey step; NULL before that.
	PreSurvey  datatypes.JSON
	PostSurvey datatypes.JSON

	// Consent gates. nil = not yet answered.
	StudyConsent      *bool
	DebriefingConsent *bool

	AttentionPassed *bool

	// External recruiting identifiers (opaque to us).
	ProlificPID string
	StudyID     string
	SessionID   string

	// e.g. FH-123456, set on completion. Uniqueness is enforced by a
	// partial index created in db.Init ("" on unfinished rows is fine).
	CompletionCode string
}

// Assigned reports whether the balancer has claimed a branch and
// sequence slot for this submission.
func (s *Submission) Assigned() bool {
	return s.Branch != "" && s.SequenceIndex >= 0
}

// BranchCounter tracks assignment counts for one branch: the running
// total plus one count per sequence slot. Invariant: the slot counts
// sum to Total.
type BranchCounter struct {
	Branch         string `gorm:"primaryKey"`
	Total          int
	SequenceCounts datatypes.JSON
	UpdatedAt      time.Time
}

func (bc *BranchCounter) Counts() ([]int, error) {
	counts := make([]int, 0, SequenceSlots)
	if err := json.Unmarshal(bc.SequenceCounts, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func ZeroCounts() datatypes.JSON {
	raw, _ := json.Marshal(make([]int, SequenceSlots))
	return raw
}

// Post is one forum message inside a case thread.
type Post struct {
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Case is a static forum-thread writing prompt. Seeded at init,
// read-only afterwards.
type Case struct {
	ID       string `gorm:"primaryKey"`
	Title    string
	MainPost datatypes.JSON
	Replies  datatypes.JSON
}

func (c *Case) Post() (Post, error) {
	var p Post
	err := json.Unmarshal(c.MainPost, &p)
	return p, err
}

func (c *Case) ReplyPosts() ([]Post, error) {
	var ps []Post
	if len(c.Replies) == 0 {
		return nil, nil
	}
	err := json.Unmarshal(c.Replies, &ps)
	return ps, err
}

// CaseResponse is the finalized record of one participant's work on one
// case: ratings, reply text, any AI suggestion, and the full action log.
// Written once at wizard submission; only ever deleted in bulk when a
// participant withdraws consent or fails the attention check.
type CaseResponse struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time

	SubmissionID string `gorm:"index"`
	CaseID       string `gorm:"index"`

	PreConfidence  int
	ReplyText      string
	AiSuggestion   string
	PostConfidence int
	PostStress     int
	Comment        string

	ActionSequence datatypes.JSON
}
