// Package session defines the per-conversation state container — the
// Session Record — and the reducer that merges a turn's node updates
// into a new immutable snapshot.
package session

import (
	"github.com/kadirpekel/formpilot/pkg/form"
	"github.com/kadirpekel/formpilot/pkg/payload"
)

// HistoryRole is one of the three roles a history entry can carry.
type HistoryRole string

const (
	RoleUser            HistoryRole = "user"
	RoleAssistant       HistoryRole = "assistant"
	RoleSystemDirective HistoryRole = "system-directive"
)

// HistoryEntry is one append-only turn of the conversation transcript.
type HistoryEntry struct {
	Role HistoryRole
	Text string
}

// Session is the per-conversation Session Record (spec §3). It is
// mutated only by Apply, which produces a new snapshot from the
// previous one plus a turn's Update.
type Session struct {
	Form *form.Definition

	Answers map[string]interface{}
	History []HistoryEntry

	RequiredFields []string
	RequiredByStep map[int][]string

	CurrentStep    int
	MaxStep        int
	CompletedSteps map[int]bool

	InitialExtractionDone    bool
	AwaitingStepConfirmation bool
	AllowAnsweredFieldUpdate bool

	PendingFieldID     string
	PendingActionType  string
	PendingTextValue   string
	PendingTextFieldID string
	PendingToolName    string

	// Action is the outbound action for the turn, set by the finalize
	// node (or earlier, short-circuiting nodes like greeting).
	Action *payload.Payload

	// ParsedLLMResponse is the last validated LLM payload, consumed by
	// finalize within the same turn. It never survives across turns.
	ParsedLLMResponse *payload.Payload

	// UserMessageAdded and SkipConversationTurn are intra-turn flags
	// consumed by the router/reducer; they never survive across turns.
	UserMessageAdded    bool
	SkipConversationTurn bool
}

// New creates a session from a form definition, computing the derived
// views once.
func New(def *form.Definition) *Session {
	return &Session{
		Form:           def,
		Answers:        map[string]interface{}{},
		History:        nil,
		RequiredFields: def.RequiredFieldIDs(),
		RequiredByStep: def.RequiredByStep(),
		CurrentStep:    1,
		MaxStep:        def.MaxStep(),
		CompletedSteps: map[int]bool{},
	}
}

// MissingRequired returns the required field ids with no answer yet, in
// definition order.
func (s *Session) MissingRequired() []string {
	var missing []string
	for _, id := range s.RequiredFields {
		if _, ok := s.Answers[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// IsComplete reports whether every required field has an answer.
func (s *Session) IsComplete() bool {
	return len(s.MissingRequired()) == 0
}
