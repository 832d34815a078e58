package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kadirpekel/formpilot/pkg/answer"
	"github.com/kadirpekel/formpilot/pkg/form"
	"github.com/kadirpekel/formpilot/pkg/llm"
	"github.com/kadirpekel/formpilot/pkg/payload"
	"github.com/kadirpekel/formpilot/pkg/promptbuild"
	"github.com/kadirpekel/formpilot/pkg/session"
)

// runExtraction runs the bulk first-turn extraction call per spec
// §4.6.2, grounded on
// original_source/backend/agent/nodes/extraction.py.
func runExtraction(ctx context.Context, caller *llm.GuardedCaller, s *session.Session, input TurnInput) (session.Update, nodeName) {
	var entries []session.HistoryEntry
	if strings.TrimSpace(input.UserMessage) != "" {
		entries = append(entries, session.HistoryEntry{Role: session.RoleUser, Text: input.UserMessage})
	}

	upd := session.Update{
		InitialExtractionDone: session.Some(true),
		UserMessageAdded:      session.Some(true),
		HistoryAppend:         entries,
		ParsedLLMResponse:     session.Some[*payload.Payload](nil),
	}

	systemPrompt := promptbuild.BuildExtractionPrompt(s.Form)
	messages := []llm.Message{{Role: llm.RoleUser, Text: input.UserMessage}}

	parsed, err := caller.Call(ctx, &llm.CallParams{
		SystemPrompt:          systemPrompt,
		Messages:              messages,
		Answers:               s.Answers,
		RequiredFields:        s.RequiredFields,
		InitialExtractionDone: true,
	})
	if err != nil {
		slog.Error("extraction LLM call failed", "error", err)
	}

	if parsed == nil {
		return upd, nodeConversation
	}

	if parsed.Intent == "multi_answer" {
		fieldTypes := s.Form.FieldTypes()
		validated := map[string]interface{}{}

		for fieldID, value := range parsed.Answers {
			ftype := fieldTypes[fieldID]
			if ftype == form.FieldDate || ftype == form.FieldDatetime {
				if strVal, ok := value.(string); ok {
					actionType := string(payload.ActionAskDate)
					if ftype == form.FieldDatetime {
						actionType = string(payload.ActionAskDatetime)
					}
					if ok, reason := answer.Validate(actionType, strVal); !ok {
						slog.Warn("extraction rejected answer", "field_id", fieldID, "value", strVal, "reason", reason)
						continue
					}
				}
			}
			validated[fieldID] = value
		}

		if len(validated) > 0 {
			upd.AnswersPatch = validated
		}
		if parsed.Message != "" {
			upd.HistoryAppend = append(upd.HistoryAppend, session.HistoryEntry{Role: session.RoleAssistant, Text: parsed.Message})
		}
		return upd, nodeConversation
	}

	upd.ParsedLLMResponse = session.Some(parsed)
	return upd, nodeFinalize
}
