package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kadirpekel/formpilot/pkg/answer"
	"github.com/kadirpekel/formpilot/pkg/payload"
	"github.com/kadirpekel/formpilot/pkg/session"
)

// runValidation validates the user's reply to a pending ASK_ action per
// spec §4.6.4, grounded on
// original_source/backend/agent/nodes/validation.py. Always chains to
// conversation — the LLM handles re-asking on error.
func runValidation(s *session.Session, input TurnInput) session.Update {
	raw := strings.TrimSpace(input.UserMessage)
	fieldID := s.PendingFieldID
	actionType := s.PendingActionType

	if actionType == string(payload.ActionAskText) {
		directive := fmt.Sprintf(
			"[SYSTEM: The user answered '%s' for field '%s'. "+
				"VALIDATE this answer: Is it relevant and appropriate for the question asked? "+
				"Does it make sense in context? If YES — proceed to the NEXT unanswered field. "+
				"If NO (gibberish, irrelevant, nonsensical, or clearly wrong context) — re-ask "+
				"the SAME field '%s' using ASK_TEXT. Politely tell the user why their answer "+
				"doesn't fit and ask again in a clearer way.]",
			raw, fieldID, fieldID,
		)
		return session.Update{
			HistoryAppend: []session.HistoryEntry{
				{Role: session.RoleUser, Text: input.UserMessage},
				{Role: session.RoleSystemDirective, Text: directive},
			},
			PendingTextValue:   session.Some(raw),
			PendingTextFieldID: session.Some(fieldID),
			PendingFieldID:     session.Some(""),
			PendingActionType:  session.Some(""),
			UserMessageAdded:   session.Some(true),
		}
	}

	ok, reason := answer.Validate(actionType, raw)
	if ok {
		slog.Info("auto-stored answer", "field_id", fieldID, "value", preview(raw))
		return session.Update{
			AnswersPatch:      map[string]interface{}{fieldID: raw},
			HistoryAppend:     []session.HistoryEntry{{Role: session.RoleUser, Text: input.UserMessage}},
			PendingFieldID:    session.Some(""),
			PendingActionType: session.Some(""),
			UserMessageAdded:  session.Some(true),
		}
	}

	slog.Warn("validation failed", "field_id", fieldID, "action_type", actionType, "reason", reason)
	directive := fmt.Sprintf(
		"[SYSTEM: The user's answer '%s' for field '%s' is INVALID. %s "+
			"You MUST re-ask this field using %s with field_id '%s'. "+
			"Tell the user their input was not valid and ask again.]",
		raw, fieldID, reason, actionType, fieldID,
	)
	return session.Update{
		HistoryAppend: []session.HistoryEntry{
			{Role: session.RoleUser, Text: input.UserMessage},
			{Role: session.RoleSystemDirective, Text: directive},
		},
		UserMessageAdded: session.Some(true),
	}
}

func preview(s string) string {
	const maxLen = 100
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
