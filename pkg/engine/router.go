package engine

import (
	"strings"

	"github.com/kadirpekel/formpilot/pkg/session"
)

type nodeName int

const (
	nodeEnd nodeName = iota
	nodeGreeting
	nodeToolHandler
	nodeStepConfirmation
	nodeValidation
	nodeExtraction
	nodeConversation
	nodeFinalize
)

// route picks the entry node for a turn, per spec §4.7's routing
// priority (first match wins), grounded on
// original_source/backend/agent/graph.py's route_input.
func route(s *session.Session, input TurnInput) nodeName {
	hasMessage := strings.TrimSpace(input.UserMessage) != ""

	if len(s.History) == 0 && !hasMessage {
		return nodeGreeting
	}
	if len(input.ToolResults) > 0 {
		return nodeToolHandler
	}
	if s.AwaitingStepConfirmation && hasMessage {
		return nodeStepConfirmation
	}
	if s.PendingFieldID != "" && hasMessage {
		return nodeValidation
	}
	if !s.InitialExtractionDone && len(input.ToolResults) == 0 {
		return nodeExtraction
	}
	return nodeConversation
}
