package session

import "github.com/kadirpekel/formpilot/pkg/payload"

// Update is the partial result of one graph node: a set of fields to
// merge (Answers), append (HistoryAppend), or replace (everything
// else, via Opt so "untouched" and "explicitly cleared" are distinct).
type Update struct {
	AnswersPatch  map[string]interface{}
	HistoryAppend []HistoryEntry

	CurrentStep    Opt[int]
	CompletedSteps Opt[map[int]bool]

	InitialExtractionDone    Opt[bool]
	AwaitingStepConfirmation Opt[bool]
	AllowAnsweredFieldUpdate Opt[bool]

	PendingFieldID     Opt[string]
	PendingActionType  Opt[string]
	PendingTextValue   Opt[string]
	PendingTextFieldID Opt[string]
	PendingToolName    Opt[string]

	Action            Opt[*payload.Payload]
	ParsedLLMResponse Opt[*payload.Payload]

	UserMessageAdded     Opt[bool]
	SkipConversationTurn Opt[bool]
}

// Merge folds u into base, mutating base in place (callers that need
// the previous value preserved should clone first).
func (u Update) Merge(base *Update) {
	if u.AnswersPatch != nil {
		if base.AnswersPatch == nil {
			base.AnswersPatch = map[string]interface{}{}
		}
		for k, v := range u.AnswersPatch {
			base.AnswersPatch[k] = v
		}
	}
	if len(u.HistoryAppend) > 0 {
		base.HistoryAppend = append(base.HistoryAppend, u.HistoryAppend...)
	}

	mergeOpt(&base.CurrentStep, u.CurrentStep)
	mergeOpt(&base.CompletedSteps, u.CompletedSteps)
	mergeOpt(&base.InitialExtractionDone, u.InitialExtractionDone)
	mergeOpt(&base.AwaitingStepConfirmation, u.AwaitingStepConfirmation)
	mergeOpt(&base.AllowAnsweredFieldUpdate, u.AllowAnsweredFieldUpdate)
	mergeOpt(&base.PendingFieldID, u.PendingFieldID)
	mergeOpt(&base.PendingActionType, u.PendingActionType)
	mergeOpt(&base.PendingTextValue, u.PendingTextValue)
	mergeOpt(&base.PendingTextFieldID, u.PendingTextFieldID)
	mergeOpt(&base.PendingToolName, u.PendingToolName)
	mergeOpt(&base.Action, u.Action)
	mergeOpt(&base.ParsedLLMResponse, u.ParsedLLMResponse)
	mergeOpt(&base.UserMessageAdded, u.UserMessageAdded)
	mergeOpt(&base.SkipConversationTurn, u.SkipConversationTurn)
}

func mergeOpt[T any](base *Opt[T], next Opt[T]) {
	if next.Set {
		*base = next
	}
}

// Apply commits an accumulated turn Update onto the session, producing
// the new snapshot. Answers merge with overwrite on conflicting keys;
// history only ever grows; every other field is replaced by the last
// value an update set during the turn.
func Apply(prev *Session, u Update) *Session {
	next := &Session{
		Form:                     prev.Form,
		RequiredFields:           prev.RequiredFields,
		RequiredByStep:           prev.RequiredByStep,
		MaxStep:                  prev.MaxStep,
		CurrentStep:              prev.CurrentStep,
		CompletedSteps:           prev.CompletedSteps,
		InitialExtractionDone:    prev.InitialExtractionDone,
		AwaitingStepConfirmation: prev.AwaitingStepConfirmation,
		AllowAnsweredFieldUpdate: prev.AllowAnsweredFieldUpdate,
		PendingFieldID:           prev.PendingFieldID,
		PendingActionType:        prev.PendingActionType,
		PendingTextValue:         prev.PendingTextValue,
		PendingTextFieldID:       prev.PendingTextFieldID,
		PendingToolName:          prev.PendingToolName,
	}

	next.Answers = make(map[string]interface{}, len(prev.Answers))
	for k, v := range prev.Answers {
		next.Answers[k] = v
	}
	for k, v := range u.AnswersPatch {
		next.Answers[k] = v
	}

	next.History = make([]HistoryEntry, len(prev.History), len(prev.History)+len(u.HistoryAppend))
	copy(next.History, prev.History)
	next.History = append(next.History, u.HistoryAppend...)

	if u.CurrentStep.Set {
		next.CurrentStep = u.CurrentStep.Value
	}
	if u.CompletedSteps.Set {
		next.CompletedSteps = u.CompletedSteps.Value
	}
	if u.InitialExtractionDone.Set {
		next.InitialExtractionDone = u.InitialExtractionDone.Value
	}
	if u.AwaitingStepConfirmation.Set {
		next.AwaitingStepConfirmation = u.AwaitingStepConfirmation.Value
	}
	if u.AllowAnsweredFieldUpdate.Set {
		next.AllowAnsweredFieldUpdate = u.AllowAnsweredFieldUpdate.Value
	}
	if u.PendingFieldID.Set {
		next.PendingFieldID = u.PendingFieldID.Value
	}
	if u.PendingActionType.Set {
		next.PendingActionType = u.PendingActionType.Value
	}
	if u.PendingTextValue.Set {
		next.PendingTextValue = u.PendingTextValue.Value
	}
	if u.PendingTextFieldID.Set {
		next.PendingTextFieldID = u.PendingTextFieldID.Value
	}
	if u.PendingToolName.Set {
		next.PendingToolName = u.PendingToolName.Value
	}
	if u.Action.Set {
		next.Action = u.Action.Value
	}
	// ParsedLLMResponse, UserMessageAdded, and SkipConversationTurn are
	// ephemeral intra-turn fields cleared at the start of the next turn
	// by ResetEphemeral, not here — the reducer still carries whatever the
	// turn's nodes last set so that later nodes *within the same turn*
	// can observe them.
	if u.ParsedLLMResponse.Set {
		next.ParsedLLMResponse = u.ParsedLLMResponse.Value
	}
	if u.UserMessageAdded.Set {
		next.UserMessageAdded = u.UserMessageAdded.Value
	}
	if u.SkipConversationTurn.Set {
		next.SkipConversationTurn = u.SkipConversationTurn.Value
	}

	return next
}

// ResetEphemeral clears the intra-turn fields at the start of a new
// turn, matching prepare_turn_input's ephemeral-field reset.
// AllowAnsweredFieldUpdate is ephemeral too: it is only ever true for
// the single turn in which step confirmation's edit branch sets it,
// and is cleared here before every turn starts. The guarded LLM caller
// does not read it, so the answered-field guard still rejects an ASK_
// for an already-answered field during that turn's conversation call.
func (s *Session) ResetEphemeral() {
	s.Action = nil
	s.ParsedLLMResponse = nil
	s.UserMessageAdded = false
	s.SkipConversationTurn = false
	s.AllowAnsweredFieldUpdate = false
}
