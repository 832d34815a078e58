package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kadirpekel/formpilot/pkg/llm"
	"github.com/kadirpekel/formpilot/pkg/payload"
	"github.com/kadirpekel/formpilot/pkg/promptbuild"
	"github.com/kadirpekel/formpilot/pkg/session"
)

// runConversation runs one LLM conversation turn per spec §4.6.6,
// grounded on original_source/backend/agent/nodes/conversation.py.
func runConversation(ctx context.Context, caller *llm.GuardedCaller, s *session.Session, input TurnInput) (session.Update, nodeName) {
	var newEntries []session.HistoryEntry
	if !s.UserMessageAdded && strings.TrimSpace(input.UserMessage) != "" {
		newEntries = append(newEntries, session.HistoryEntry{Role: session.RoleUser, Text: input.UserMessage})
	}

	fullHistory := make([]session.HistoryEntry, 0, len(s.History)+len(newEntries))
	fullHistory = append(fullHistory, s.History...)
	fullHistory = append(fullHistory, newEntries...)

	systemPrompt := promptbuild.BuildConversationPrompt(s.Form, s.Answers)

	recent := fullHistory
	if len(recent) > hMax {
		recent = recent[len(recent)-hMax:]
	}

	messages := make([]llm.Message, 0, len(recent))
	for _, e := range recent {
		switch e.Role {
		case session.RoleUser, session.RoleSystemDirective:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Text: e.Text})
		case session.RoleAssistant:
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Text: e.Text})
		}
	}

	parsed, err := caller.Call(ctx, &llm.CallParams{
		SystemPrompt:          systemPrompt,
		Messages:              messages,
		Answers:               s.Answers,
		RequiredFields:        s.RequiredFields,
		InitialExtractionDone: s.InitialExtractionDone,
		RecentReaskTexts:      recentReaskTexts(fullHistory),
	})
	if err != nil {
		slog.Error("conversation LLM call failed", "error", err)
	}

	upd := session.Update{
		UserMessageAdded: session.Some(true),
		HistoryAppend:    newEntries,
	}

	if parsed == nil {
		fallback := "Sorry, I had trouble understanding that. Could you try again in one short sentence?"
		upd.Action = session.Some(&payload.Payload{Action: payload.ActionMessage, Message: fallback})
		upd.HistoryAppend = append(upd.HistoryAppend, session.HistoryEntry{Role: session.RoleAssistant, Text: fallback})
		return upd, nodeEnd
	}

	upd.ParsedLLMResponse = session.Some(parsed)
	return upd, nodeFinalize
}

// recentReaskTexts returns the text of the last few assistant messages,
// used by the guard loop's verbatim re-ask check to force rephrased
// wording after an invalid-answer re-ask.
func recentReaskTexts(history []session.HistoryEntry) []string {
	const window = 5
	var texts []string
	for i := len(history) - 1; i >= 0 && len(texts) < window; i-- {
		if history[i].Role == session.RoleAssistant {
			texts = append(texts, history[i].Text)
		}
	}
	return texts
}
