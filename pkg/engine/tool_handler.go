package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kadirpekel/formpilot/pkg/session"
)

// runToolHandler turns tool results into history directives per spec
// §4.6.3, grounded on
// original_source/backend/agent/nodes/tool_handler.py.
func runToolHandler(s *session.Session, input TurnInput) session.Update {
	var entries []session.HistoryEntry

	for _, tr := range input.ToolResults {
		data, _ := json.Marshal(tr.Result)
		directive := fmt.Sprintf("[Tool result for %s]: %s", tr.ToolName, data)

		if hint := extractOptionsHint(tr.Result); hint != "" {
			directive += fmt.Sprintf(
				"\n\n[INSTRUCTION: Use the data above. Return ASK_DROPDOWN with these options: %s]",
				hint,
			)
		} else {
			directive += "\n\n[INSTRUCTION: Use the data above to continue the form. " +
				"Return the appropriate JSON action.]"
		}

		entries = append(entries, session.HistoryEntry{Role: session.RoleSystemDirective, Text: directive})
	}

	if strings.TrimSpace(input.UserMessage) != "" {
		entries = append(entries, session.HistoryEntry{Role: session.RoleUser, Text: input.UserMessage})
	}

	return session.Update{
		HistoryAppend:   entries,
		PendingToolName: session.Some(""),
		UserMessageAdded: session.Some(true),
	}
}

// extractOptionsHint looks for common shapes in a tool result — arrays
// of objects carrying a name/value/label field — and returns a JSON
// array of option strings, or "" if none were found. Ported from
// original_source/backend/agent/utils.py's extract_options_hint.
func extractOptionsHint(toolData map[string]interface{}) string {
	var options []string

	keys := make([]string, 0, len(toolData))
	for k := range toolData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		arr, ok := toolData[key].([]interface{})
		if !ok {
			continue
		}

	itemLoop:
		for _, item := range arr {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}

			if nameObj, ok := obj["name"].(map[string]interface{}); ok {
				if eng, _ := nameObj["english"].(string); eng != "" {
					options = append(options, eng)
					continue itemLoop
				}
			} else if nameStr, ok := obj["name"].(string); ok && nameStr != "" {
				options = append(options, nameStr)
				continue itemLoop
			}

			if valueObj, ok := obj["value"].(map[string]interface{}); ok {
				if eng, _ := valueObj["english"].(string); eng != "" {
					options = append(options, eng)
					continue itemLoop
				}
			}

			for _, field := range []string{"label", "title", "text", "description"} {
				if v, ok := obj[field].(string); ok && v != "" {
					options = append(options, v)
					break
				}
			}
		}
	}

	if len(options) == 0 {
		return ""
	}
	b, _ := json.Marshal(options)
	return string(b)
}
