// Package wizard is the per-case form state machine: four forward-only
// steps from intro to final submission, with validation gates between
// them and an append-only action log. It is a pure value type — no HTTP,
// no storage — so a web handler, a CLI, or a test can drive it the same
// way: apply an event, keep the returned state.
package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Step is the wizard's position within one case.
type Step int

const (
	StepIntro Step = iota
	StepPreConfidence
	StepWriting
	StepPostReview
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepIntro:
		return "intro"
	case StepPreConfidence:
		return "pre-confidence"
	case StepWriting:
		return "writing"
	case StepPostReview:
		return "post-review"
	case StepSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Minimum-effort gate for the free-text reply: either condition
// suffices, so a short but dense reply passes on word count alone.
const (
	MinReplyChars = 300
	MinReplyWords = 30
)

// MeetsMinimumEffort reports whether a reply clears the gate: at least
// MinReplyChars characters (Unicode code points) OR at least
// MinReplyWords whitespace-delimited words.
func MeetsMinimumEffort(text string) bool {
	return utf8.RuneCountInString(text) >= MinReplyChars ||
		len(strings.Fields(text)) >= MinReplyWords
}

// ValidationError blocks a transition and names the offending field.
// It is user-correctable and never escapes the wizard endpoints.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ErrOutOfTurn is returned when an event is applied in a step that does
// not accept it (e.g. submitting from the writing step). Transitions
// are strictly forward; there is no back-navigation.
var ErrOutOfTurn = errors.New("event not valid in current step")

// State carries everything one case's wizard run accumulates. Values
// are copied on every transition; the caller keeps the returned State.
type State struct {
	CaseID  string
	DraftID string
	AiArm   bool
	Step    Step

	PreConfidence  int // 0 = unset, valid answers are 1-5
	ReplyText      string
	AiSuggestion   string
	PostConfidence int
	PostStress     int
	Comment        string

	AiRequested bool // a suggestion request completed during this case
	NoAiPrompt  bool // "proceed without AI help?" dialog is showing
	NoAiWarned  bool // that dialog has been shown once already

	Actions []ActionEntry
}

// NewState starts a wizard run for one case with a fresh draft id. The
// control arm has no assistant introduction, so it starts directly at
// the pre-confidence rating.
func NewState(caseID string, aiArm bool) State {
	st := State{
		CaseID:  caseID,
		DraftID: uuid.NewString(),
		AiArm:   aiArm,
		Step:    StepIntro,
	}
	if !aiArm {
		st.Step = StepPreConfidence
	}
	return st
}

func (s State) log(a Action, value string, at time.Time) State {
	s.Actions = append(append([]ActionEntry(nil), s.Actions...), newEntry(a, value, at))
	return s
}

func validRating(field string, n int) *ValidationError {
	if n < 1 || n > 5 {
		return &ValidationError{Field: field, Message: "please pick a rating between 1 and 5"}
	}
	return nil
}

// Next attempts the forward transition out of the current step,
// enforcing that step's gate.
func (s State) Next(now time.Time) (State, error) {
	switch s.Step {
	case StepIntro:
		s.Step = StepPreConfidence
		return s, nil

	case StepPreConfidence:
		if err := validRating("preConfidence", s.PreConfidence); err != nil {
			return s, err
		}
		s.Step = StepWriting
		return s, nil

	case StepWriting:
		if !MeetsMinimumEffort(s.ReplyText) {
			return s, &ValidationError{
				Field:   "replyText",
				Message: fmt.Sprintf("please write at least %d characters or %d words", MinReplyChars, MinReplyWords),
			}
		}
		// One-time interception in the AI arm: confirm before moving on
		// without ever having asked the assistant.
		if s.AiArm && !s.AiRequested && !s.NoAiWarned {
			s.NoAiPrompt = true
			s.NoAiWarned = true
			return s, nil
		}
		s.Step = StepPostReview
		return s, nil

	default:
		return s, ErrOutOfTurn
	}
}

// ConfirmNoAi accepts the "proceed without AI help?" dialog: the answer
// is logged, the dialog is suppressed for the rest of this case, and
// the writing gate is re-attempted.
func (s State) ConfirmNoAi(now time.Time) (State, error) {
	if !s.NoAiPrompt {
		return s, ErrOutOfTurn
	}
	s.NoAiPrompt = false
	s = s.log(ActionNoAiSuggestion, "confirmed", now)
	return s.Next(now)
}

// CancelNoAi declines the dialog and stays in the writing step.
func (s State) CancelNoAi(now time.Time) (State, error) {
	if !s.NoAiPrompt {
		return s, ErrOutOfTurn
	}
	s.NoAiPrompt = false
	s = s.log(ActionNoAiSuggestion, "cancelled", now)
	return s, nil
}

// SetPreConfidence stores the pre-task confidence rating. Range is
// checked at the step gate, not here, so the UI can hold an in-progress
// value.
func (s State) SetPreConfidence(rating int) (State, error) {
	if s.Step != StepPreConfidence {
		return s, ErrOutOfTurn
	}
	s.PreConfidence = rating
	return s, nil
}

// EditReply replaces the draft text. Logging is left to RecordEdit so
// that per-keystroke updates stay out of the action log.
func (s State) EditReply(text string) (State, error) {
	if s.Step != StepWriting {
		return s, ErrOutOfTurn
	}
	s.ReplyText = text
	return s, nil
}

// RecordEdit appends one manual-edit entry with the settled text. The
// session's debouncer calls this once per typing pause.
func (s State) RecordEdit(text string, at time.Time) State {
	return s.log(ActionManualEdit, text, at)
}

// ApplySuggestion stores a completed assistant suggestion and logs it.
// Only meaningful in the writing step of the AI arm; a suggestion that
// arrives after the wizard has moved past its case is the caller's job
// to drop.
func (s State) ApplySuggestion(text string, at time.Time) (State, error) {
	if !s.AiArm || s.Step != StepWriting {
		return s, ErrOutOfTurn
	}
	s.AiSuggestion = text
	s.AiRequested = true
	return s.log(ActionAiAssist, text, at), nil
}

// AcceptSuggestion takes the stored suggestion over as the reply text.
func (s State) AcceptSuggestion(at time.Time) (State, error) {
	if s.Step != StepWriting || s.AiSuggestion == "" {
		return s, ErrOutOfTurn
	}
	s.ReplyText = s.AiSuggestion
	return s.log(ActionAiAssistConfirmed, s.AiSuggestion, at), nil
}

// DismissSuggestion discards the stored suggestion, keeping the reply.
func (s State) DismissSuggestion(at time.Time) (State, error) {
	if s.Step != StepWriting || s.AiSuggestion == "" {
		return s, ErrOutOfTurn
	}
	dismissed := s.AiSuggestion
	s.AiSuggestion = ""
	return s.log(ActionAiAssistCancelled, dismissed, at), nil
}

// SetPostRatings stores the post-task confidence and stress ratings.
func (s State) SetPostRatings(confidence, stress int) (State, error) {
	if s.Step != StepPostReview {
		return s, ErrOutOfTurn
	}
	s.PostConfidence = confidence
	s.PostStress = stress
	return s, nil
}

// SetComment stores the optional free-text comment.
func (s State) SetComment(text string) (State, error) {
	if s.Step != StepPostReview {
		return s, ErrOutOfTurn
	}
	s.Comment = text
	return s, nil
}

// Submit closes the wizard run. Besides the post-review gate it
// re-validates the whole accumulated record; the earlier gates should
// make that re-check unfailable, so a failure here points at a logic
// bug, but it is still surfaced as a validation error rather than a
// panic.
func (s State) Submit(now time.Time) (State, error) {
	if s.Step != StepPostReview {
		return s, ErrOutOfTurn
	}
	if err := s.validateComplete(); err != nil {
		return s, err
	}
	s.Step = StepSubmitted
	return s, nil
}

func (s State) validateComplete() error {
	if err := validRating("preConfidence", s.PreConfidence); err != nil {
		return err
	}
	if !MeetsMinimumEffort(s.ReplyText) {
		return &ValidationError{Field: "replyText", Message: "reply no longer meets the minimum length"}
	}
	if err := validRating("postConfidence", s.PostConfidence); err != nil {
		return err
	}
	if err := validRating("postStress", s.PostStress); err != nil {
		return err
	}
	return nil
}
