package wizard

import "time"

// Action is the kind of a logged user action. The vocabulary is open by
// type, but these five are the ones downstream analysis depends on.
type Action string

const (
	// ActionManualEdit is appended once per typing pause with the
	// settled reply text (see Debouncer).
	ActionManualEdit Action = "manual-edit"
	// ActionAiAssist records a completed suggestion request; the value
	// is the suggestion text.
	ActionAiAssist Action = "ai-assist"
	// ActionAiAssistConfirmed records the participant taking the
	// suggestion over into their reply.
	ActionAiAssistConfirmed Action = "ai-assist-confirmed"
	// ActionAiAssistCancelled records the participant dismissing a
	// suggestion without using it.
	ActionAiAssistCancelled Action = "ai-assist-cancelled"
	// ActionNoAiSuggestion records the participant's answer to the
	// one-time "proceed without AI help?" prompt.
	ActionNoAiSuggestion Action = "no-ai-suggestion"
)

// ActionEntry is one row of a case's action log.
type ActionEntry struct {
	Action    Action `json:"action"`
	Value     string `json:"value"`
	Timestamp string `json:"timestamp"`
}

func newEntry(a Action, value string, at time.Time) ActionEntry {
	return ActionEntry{Action: a, Value: value, Timestamp: at.UTC().Format(time.RFC3339Nano)}
}
