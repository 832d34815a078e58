package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kadirpekel/formpilot/pkg/payload"
	"github.com/kadirpekel/formpilot/pkg/session"
)

// runFinalize post-processes the parsed LLM response per spec §4.6.7's
// six steps, grounded on
// original_source/backend/agent/nodes/finalize.py.
func runFinalize(s *session.Session) session.Update {
	parsed := s.ParsedLLMResponse
	if parsed == nil {
		return session.Update{}
	}

	upd := session.Update{}
	answersPatch := map[string]interface{}{}

	// 1. Resolve pending text answer.
	if s.PendingTextValue != "" && s.PendingTextFieldID != "" {
		isReask := parsed.Action.IsAsk() && parsed.FieldID == s.PendingTextFieldID
		if !isReask {
			answersPatch[s.PendingTextFieldID] = s.PendingTextValue
		}
		upd.PendingTextValue = session.Some("")
		upd.PendingTextFieldID = session.Some("")
	}

	// 2. Commit an explicit field_id + value.
	if parsed.FieldID != "" && parsed.Value != nil {
		answersPatch[parsed.FieldID] = parsed.Value
	}

	// 3. Track the new pending field/tool.
	switch {
	case parsed.Action.IsAsk() && parsed.FieldID != "":
		upd.PendingFieldID = session.Some(parsed.FieldID)
		upd.PendingActionType = session.Some(string(parsed.Action))
		upd.PendingToolName = session.Some("")
	case parsed.Action == payload.ActionToolCall:
		upd.PendingToolName = session.Some(parsed.ToolName)
		upd.PendingFieldID = session.Some("")
		upd.PendingActionType = session.Some("")
	default:
		upd.PendingFieldID = session.Some("")
		upd.PendingActionType = session.Some("")
		upd.PendingToolName = session.Some("")
	}

	// 4. Populate FORM_COMPLETE data from answers if the model sent none.
	finalAction := parsed
	if parsed.Action == payload.ActionFormComplete {
		for k, v := range parsed.Data {
			answersPatch[k] = v
		}
		if len(parsed.Data) == 0 {
			merged := mergeAnswers(s.Answers, answersPatch)
			clone := *parsed
			clone.Data = merged
			finalAction = &clone
		}
	}

	// 5. Record the assistant message.
	if finalAction.Message != "" {
		upd.HistoryAppend = []session.HistoryEntry{{Role: session.RoleAssistant, Text: finalAction.Message}}
	}

	upd.Action = session.Some(finalAction)
	upd.AllowAnsweredFieldUpdate = session.Some(false)
	if len(answersPatch) > 0 {
		upd.AnswersPatch = answersPatch
	}

	// 6. Step checkpoint: pause for confirmation once a non-final step's
	// required fields are all answered.
	merged := mergeAnswers(s.Answers, answersPatch)
	stepRequired := s.RequiredByStep[s.CurrentStep]
	isMultiStep := len(s.RequiredByStep) > 0 && s.MaxStep > 1
	stepComplete := len(stepRequired) > 0 && allPresent(stepRequired, merged)
	isLastStep := s.CurrentStep >= s.MaxStep

	if isMultiStep && stepComplete && !s.CompletedSteps[s.CurrentStep] && !isLastStep {
		summary := buildStepSummary(s.CurrentStep, stepRequired, merged, s.Form.FieldLabels())
		upd.Action = session.Some(&payload.Payload{Action: payload.ActionMessage, Message: summary})
		upd.PendingFieldID = session.Some("")
		upd.PendingActionType = session.Some("")
		upd.PendingToolName = session.Some("")
		upd.AwaitingStepConfirmation = session.Some(true)
		upd.HistoryAppend = []session.HistoryEntry{{Role: session.RoleAssistant, Text: summary}}
	}

	return upd
}

func mergeAnswers(base, patch map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

func allPresent(ids []string, m map[string]interface{}) bool {
	for _, id := range ids {
		if _, ok := m[id]; !ok {
			return false
		}
	}
	return true
}

func buildStepSummary(step int, fieldIDs []string, answers map[string]interface{}, labels map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step %d is complete. Here is a quick summary:\n", step)
	for _, id := range fieldIDs {
		label := labels[id]
		if label == "" {
			label = fieldIDToLabel(id)
		}
		fmt.Fprintf(&b, "- %s: %v\n", label, answers[id])
	}
	b.WriteString("Please confirm to continue to the next step, or tell me what you want to change in this step.")
	return b.String()
}

var camelBoundaryRe = regexp.MustCompile(`([a-z])([A-Z])`)

func fieldIDToLabel(fieldID string) string {
	words := strings.ReplaceAll(fieldID, "_", " ")
	words = camelBoundaryRe.ReplaceAllString(words, "$1 $2")
	words = strings.TrimSpace(words)
	if words == "" {
		return words
	}
	r := []rune(strings.ToLower(words))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
