package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/models"
	"github.com/Acterion/forum-helper/internal/wizard"
)

// A Session is the live wizard runtime for one submission: the case
// sequencer, the current case's wizard state, the edit debouncer and
// the single-flight guard for assist calls. All event handling is
// serialized on the session mutex, so no two transitions are ever in
// flight against the same draft.
type Session struct {
	mu sync.Mutex

	submissionID string
	aiArm        bool

	seq      *Sequencer
	state    wizard.State
	debounce *wizard.Debouncer

	assistPending bool
	complete      bool

	gen Generator
}

// SessionManager hands out at most one Session per submission. Wizard
// state lives only here; abandoning the browser session before a case
// is submitted loses that case's unsaved state, by design.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	gen    Generator
	window time.Duration
}

func NewSessionManager(gen Generator, debounceWindow time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		gen:      gen,
		window:   debounceWindow,
	}
}

// Get returns the submission's session, creating it on first use. The
// submission must exist and carry a branch assignment.
func (m *SessionManager) Get(submissionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[submissionID]; ok {
		return s, nil
	}

	sub, err := loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}
	if !sub.Assigned() {
		return nil, fmt.Errorf("%w: %s", ErrNotAssigned, submissionID)
	}

	catalog, err := caseCatalog()
	if err != nil {
		return nil, err
	}
	seq, err := NewSequencer(sub.SequenceIndex, catalog)
	if err != nil {
		return nil, err
	}

	// Skip cases this submission already answered, so a server restart
	// resumes mid-study instead of re-asking finished cases.
	answered, err := answeredCaseIDs(submissionID)
	if err != nil {
		return nil, err
	}
	for {
		cur, ok := seq.Current()
		if !ok || !answered[cur] {
			break
		}
		seq.Advance()
	}

	s := &Session{
		submissionID: submissionID,
		aiArm:        sub.Branch == models.BranchAI,
		seq:          seq,
		gen:          m.gen,
	}
	if cur, ok := seq.Current(); ok {
		s.state = wizard.NewState(cur, s.aiArm)
	} else {
		s.complete = true
	}
	s.debounce = wizard.NewDebouncer(m.window, s.recordSettledEdit)

	m.sessions[submissionID] = s
	log.Debug().Str("submission", submissionID).Bool("aiArm", s.aiArm).Msg("wizard session opened")
	return s, nil
}

// Close tears a session down, cancelling any pending debounce timer so
// nothing fires after teardown.
func (m *SessionManager) Close(submissionID string) {
	m.mu.Lock()
	s, ok := m.sessions[submissionID]
	delete(m.sessions, submissionID)
	m.mu.Unlock()
	if ok {
		s.debounce.Stop()
	}
}

func caseCatalog() ([]string, error) {
	var ids []string
	if err := db.Conn().Model(&models.Case{}).Order("id asc").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func answeredCaseIDs(submissionID string) (map[string]bool, error) {
	var ids []string
	if err := db.Conn().Model(&models.CaseResponse{}).
		Where("submission_id = ?", submissionID).
		Pluck("case_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// recordSettledEdit is the debouncer's flush: one manual-edit entry
// with the text as it stood when typing paused. Dropped if the wizard
// has already left the writing step.
func (s *Session) recordSettledEdit(value string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete || s.state.Step != wizard.StepWriting {
		return
	}
	s.state = s.state.RecordEdit(value, at)
}

// View is the wizard state as the front-end renders it.
type View struct {
	SubmissionID string  `json:"submissionId"`
	Step         string  `json:"step"`
	CaseID       string  `json:"caseId,omitempty"`
	DraftID      string  `json:"draftId,omitempty"`
	AiArm        bool    `json:"aiArm"`
	Position     int     `json:"position"`
	Total        int     `json:"total"`
	Progress     float64 `json:"progress"`
	IsLast       bool    `json:"isLast"`
	Complete     bool    `json:"complete"`

	PreConfidence  int    `json:"preConfidence"`
	ReplyText      string `json:"replyText"`
	AiSuggestion   string `json:"aiSuggestion,omitempty"`
	PostConfidence int    `json:"postConfidence"`
	PostStress     int    `json:"postStress"`
	Comment        string `json:"comment"`

	NoAiPrompt    bool `json:"noAiPrompt"`
	AssistPending bool `json:"assistPending"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, total := s.seq.Position()
	v := View{
		SubmissionID: s.submissionID,
		Step:         s.state.Step.String(),
		AiArm:        s.aiArm,
		Position:     pos,
		Total:        total,
		Progress:     s.seq.Progress(),
		IsLast:       s.seq.IsLast(),
		Complete:     s.complete,

		PreConfidence:  s.state.PreConfidence,
		ReplyText:      s.state.ReplyText,
		AiSuggestion:   s.state.AiSuggestion,
		PostConfidence: s.state.PostConfidence,
		PostStress:     s.state.PostStress,
		Comment:        s.state.Comment,

		NoAiPrompt:    s.state.NoAiPrompt,
		AssistPending: s.assistPending,
	}
	if !s.complete {
		v.CaseID = s.state.CaseID
		v.DraftID = s.state.DraftID
	}
	return v
}

// apply runs one pure wizard transition under the session lock.
func (s *Session) apply(f func(wizard.State) (wizard.State, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete {
		return wizard.ErrOutOfTurn
	}
	st, err := f(s.state)
	if err != nil {
		return err
	}
	s.state = st
	return nil
}

func (s *Session) Next() error {
	return s.apply(func(st wizard.State) (wizard.State, error) { return st.Next(time.Now()) })
}

func (s *Session) ConfirmNoAi() error {
	return s.apply(func(st wizard.State) (wizard.State, error) { return st.ConfirmNoAi(time.Now()) })
}

func (s *Session) CancelNoAi() error {
	return s.apply(func(st wizard.State) (wizard.State, error) { return st.CancelNoAi(time.Now()) })
}

func (s *Session) SetPreConfidence(rating int) error {
	return s.apply(func(st wizard.State) (wizard.State, error) { return st.SetPreConfidence(rating) })
}

func (s *Session) SetPostRatings(confidence, stress int) error {
	return s.apply(func(st wizard.State) (wizard.State, error) { return st.SetPostRatings(confidence, stress) })
}

func (s *Session) SetComment(text string) error {
	return s.apply(func(st wizard.State) (wizard.State, error) { return st.SetComment(text) })
}

func (s *Session) AcceptSuggestion() error {
	return s.apply(func(st wizard.State) (wizard.State, error) { return st.AcceptSuggestion(time.Now()) })
}

func (s *Session) DismissSuggestion() error {
	return s.apply(func(st wizard.State) (wizard.State, error) { return st.DismissSuggestion(time.Now()) })
}

// EditReply updates the draft and pings the debouncer; the manual-edit
// log entry lands only once typing has settled.
func (s *Session) EditReply(text string) error {
	if err := s.apply(func(st wizard.State) (wizard.State, error) { return st.EditReply(text) }); err != nil {
		return err
	}
	s.debounce.Ping(text)
	return nil
}

// Submit finalizes the current case: re-validates the whole record,
// persists one CaseResponse, advances the sequencer, and resets the
// wizard for the next case (or marks the run complete).
func (s *Session) Submit() error {
	// Settle any pending manual-edit entry before the log is frozen.
	s.debounce.Flush()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complete {
		return wizard.ErrOutOfTurn
	}

	st, err := s.state.Submit(time.Now())
	if err != nil {
		return err
	}

	actions, err := json.Marshal(st.Actions)
	if err != nil {
		return err
	}
	resp := models.CaseResponse{
		ID:           st.DraftID,
		SubmissionID: s.submissionID,
		CaseID:       st.CaseID,

		PreConfidence:  st.PreConfidence,
		ReplyText:      st.ReplyText,
		AiSuggestion:   st.AiSuggestion,
		PostConfidence: st.PostConfidence,
		PostStress:     st.PostStress,
		Comment:        st.Comment,

		ActionSequence: actions,
	}
	if err := db.Conn().Create(&resp).Error; err != nil {
		return err
	}

	s.seq.Advance()
	if cur, ok := s.seq.Current(); ok {
		s.state = wizard.NewState(cur, s.aiArm)
	} else {
		s.state = st
		s.complete = true
		log.Info().Str("submission", s.submissionID).Msg("case wizard complete")
	}
	return nil
}

// RequestAssist asks the generator for a feedback-plus-rewrite
// suggestion for the current draft. Guarded by the same minimum-effort
// threshold as the forward transition, limited to one request in
// flight, and a result that arrives after the wizard has moved past its
// case is dropped rather than applied.
func (s *Session) RequestAssist(ctx context.Context) error {
	s.mu.Lock()
	if !s.aiArm {
		s.mu.Unlock()
		return ErrWrongBranch
	}
	if s.complete || s.state.Step != wizard.StepWriting {
		s.mu.Unlock()
		return wizard.ErrOutOfTurn
	}
	if !wizard.MeetsMinimumEffort(s.state.ReplyText) {
		s.mu.Unlock()
		return &wizard.ValidationError{
			Field:   "replyText",
			Message: "write a little more before asking the assistant for help",
		}
	}
	if s.assistPending {
		s.mu.Unlock()
		return ErrAssistPending
	}
	if s.gen == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: no generator configured", ErrAssistUnavailable)
	}
	s.assistPending = true
	caseID := s.state.CaseID
	draft := s.state.ReplyText
	s.mu.Unlock()

	suggestion, err := s.suggestFor(ctx, caseID, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assistPending = false
	if err != nil {
		return err
	}
	if s.complete || s.state.CaseID != caseID {
		// Stale result: the wizard has advanced past the case this was
		// requested for.
		log.Debug().Str("case", caseID).Msg("dropping stale assist result")
		return nil
	}
	st, err := s.state.ApplySuggestion(suggestion, time.Now())
	if err != nil {
		return nil
	}
	s.state = st
	return nil
}

func (s *Session) suggestFor(ctx context.Context, caseID, draft string) (string, error) {
	var c models.Case
	if err := db.Conn().Where("id = ?", caseID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: case %s", ErrNotFound, caseID)
		}
		return "", err
	}
	return s.gen.Suggest(ctx, c, draft)
}
