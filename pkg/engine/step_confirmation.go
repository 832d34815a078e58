package engine

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/formpilot/pkg/payload"
	"github.com/kadirpekel/formpilot/pkg/session"
)

// runStepConfirmation handles the human-in-the-loop checkpoint between
// steps per spec §4.6.5, grounded on
// original_source/backend/agent/nodes/step_confirmation.py. The next
// node is derived from skip_conversation_turn, matching §4.7's edge
// rule ("Step confirmation -> end if skip_conversation_turn, else
// conversation") rather than being hardcoded per branch.
func runStepConfirmation(s *session.Session, input TurnInput) (session.Update, nodeName) {
	userMessage := strings.TrimSpace(input.UserMessage)
	text := strings.ToLower(userMessage)
	stepFields := s.RequiredByStep[s.CurrentStep]

	upd := session.Update{
		UserMessageAdded:     session.Some(true),
		HistoryAppend:        []session.HistoryEntry{{Role: session.RoleUser, Text: userMessage}},
		SkipConversationTurn: session.Some(false),
	}

	switch {
	case isConfirm(text):
		completed := make(map[int]bool, len(s.CompletedSteps)+1)
		for k, v := range s.CompletedSteps {
			completed[k] = v
		}
		completed[s.CurrentStep] = true

		nextStep := s.CurrentStep
		if s.CurrentStep < s.MaxStep {
			nextStep = s.CurrentStep + 1
		}

		upd.CompletedSteps = session.Some(completed)
		upd.AwaitingStepConfirmation = session.Some(false)
		upd.AllowAnsweredFieldUpdate = session.Some(false)
		upd.PendingFieldID = session.Some("")
		upd.PendingActionType = session.Some("")
		upd.CurrentStep = session.Some(nextStep)

		directive := fmt.Sprintf(
			"[SYSTEM: The user confirmed Step %d. Proceed to the next step now. "+
				"Ask the next required unanswered field.]",
			s.CurrentStep,
		)
		upd.HistoryAppend = append(upd.HistoryAppend, session.HistoryEntry{Role: session.RoleSystemDirective, Text: directive})

	case isEditRequest(text):
		upd.AwaitingStepConfirmation = session.Some(false)
		upd.AllowAnsweredFieldUpdate = session.Some(true)
		upd.PendingFieldID = session.Some("")
		upd.PendingActionType = session.Some("")

		labels := s.Form.FieldLabels()
		requested := inferRequestedField(text, stepFields, labels)

		if requested != "" {
			actionType := actionForFieldType(s.Form.FieldTypes()[requested])
			promptText := labels[requested]
			if promptText == "" {
				promptText = fmt.Sprintf("Please share the updated value for %s.", requested)
			}
			askMessage := "Sure, let's update that. " + promptText

			upd.Action = session.Some(&payload.Payload{
				Action:  actionType,
				FieldID: requested,
				Label:   promptText,
				Message: askMessage,
			})
			upd.PendingFieldID = session.Some(requested)
			upd.PendingActionType = session.Some(string(actionType))
			upd.SkipConversationTurn = session.Some(true)
			upd.HistoryAppend = append(upd.HistoryAppend, session.HistoryEntry{Role: session.RoleAssistant, Text: askMessage})
		} else {
			directive := fmt.Sprintf(
				"[SYSTEM: The user requested changes before confirming Step %d. "+
					"Step %d fields: %v. Help them update the requested item. Do NOT move to "+
					"the next step yet. Once Step %d is complete again, provide a new summary "+
					"and ask for confirmation.]",
				s.CurrentStep, s.CurrentStep, stepFields, s.CurrentStep,
			)
			upd.HistoryAppend = append(upd.HistoryAppend, session.HistoryEntry{Role: session.RoleSystemDirective, Text: directive})
		}

	default:
		msg := fmt.Sprintf(
			"Step %d is ready. Please confirm to continue, or tell me what you'd like to update in this step.",
			s.CurrentStep,
		)
		upd.Action = session.Some(&payload.Payload{Action: payload.ActionMessage, Message: msg})
		upd.AllowAnsweredFieldUpdate = session.Some(false)
		upd.SkipConversationTurn = session.Some(true)
		upd.HistoryAppend = append(upd.HistoryAppend, session.HistoryEntry{Role: session.RoleAssistant, Text: msg})
	}

	next := nodeConversation
	if upd.SkipConversationTurn.Set && upd.SkipConversationTurn.Value {
		next = nodeEnd
	}
	return upd, next
}
