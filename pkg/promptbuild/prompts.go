// Package promptbuild composes the two system prompts the conversation
// engine sends to the LLM: a bulk extraction prompt for the first user
// turn, and a per-turn conversation prompt carrying condensed form
// context, the answered-fields state, and the next required field.
package promptbuild

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kadirpekel/formpilot/pkg/form"
)

const responseFormatBlock = `## Your Response Format
You MUST respond with a single valid JSON object. Choose ONE of these:

### Ask for a field (single-select dropdown):
{"action": "ASK_DROPDOWN", "field_id": "<field_id>", "label": "<question>", "options": ["option1", "option2"], "message": "<friendly message>"}

### Ask for a field (multi-select checkboxes):
{"action": "ASK_CHECKBOX", "field_id": "<field_id>", "label": "<question>", "options": ["option1", "option2"], "message": "<friendly message>"}

### Ask for a free-text field:
{"action": "ASK_TEXT", "field_id": "<field_id>", "label": "<question>", "message": "<friendly message>"}

### Ask for a date:
{"action": "ASK_DATE", "field_id": "<field_id>", "label": "<question>", "message": "<friendly message>"}

### Ask for a date and time:
{"action": "ASK_DATETIME", "field_id": "<field_id>", "label": "<question>", "message": "<friendly message>"}

### Ask for a location:
{"action": "ASK_LOCATION", "field_id": "<field_id>", "label": "<question>", "message": "<friendly message>"}

### Request data from the app (tool call):
{"action": "TOOL_CALL", "tool_name": "<tool_name>", "tool_args": {}, "message": "<what you're doing>"}

### Send a conversational message (greeting, clarification, error):
{"action": "MESSAGE", "text": "<your message>"}

### Form complete (all required fields filled):
{"action": "FORM_COMPLETE", "data": {"<field_id>": "<value>", ...}, "message": "<summary message>"}`

// BuildConversationPrompt composes the per-turn system prompt: condensed
// form context, the answered-fields state block, the still-required
// block with the next field highlighted, and the closed payload set.
func BuildConversationPrompt(def *form.Definition, answers map[string]interface{}) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are FormPilot AI, a conversational form-filling assistant. "+
		"You guide the user through the form described below. The user may speak "+
		"any language — respond in the same language they use.\n\n")

	b.WriteString("## Rules\n")
	b.WriteString("1. Follow the form definition below EXACTLY.\n")
	b.WriteString("2. Ask one field at a time. Never skip ahead or batch questions.\n")
	b.WriteString("3. NEVER assume, guess, or fabricate values. Only use what the user provides.\n")
	b.WriteString("4. When you need data from the app (e.g. lists, options), request it via TOOL_CALL.\n")
	b.WriteString("5. When the app returns tool results, use that data to present options to the user.\n")
	b.WriteString("6. Never re-ask a field that is already in the Answered Fields block below.\n")
	b.WriteString("7. Never return MESSAGE to solicit a field's value — use the matching ASK_* action.\n")
	b.WriteString("8. For a dropdown/checkbox field whose options are not given statically in the form, return TOOL_CALL first.\n")
	b.WriteString("9. Never return FORM_COMPLETE while any required field remains unanswered.\n\n")

	b.WriteString(responseFormatBlock)
	b.WriteString("\n\n")

	b.WriteString("## Form Definition\n")
	b.WriteString(formContext(def))
	b.WriteString("\n\n")

	b.WriteString("## Current State\n")
	b.WriteString(stateContext(def, answers))

	return b.String()
}

// BuildExtractionPrompt composes the bulk first-turn extraction prompt:
// it instructs the model to emit exactly the multi_answer shape and
// forbids fabrication.
func BuildExtractionPrompt(def *form.Definition) string {
	var b strings.Builder

	b.WriteString("You are FormPilot AI, a conversational form-filling assistant. The user has " +
		"provided a free-text description of data they want to fill in. Your job is to extract " +
		"as many field values as possible from their message, based on the form described below.\n\n")

	b.WriteString("## Rules\n")
	b.WriteString("1. ONLY extract values that the user explicitly stated. NEVER assume or fabricate.\n")
	b.WriteString("2. Match extracted values to the correct field IDs from the form definition.\n")
	b.WriteString("3. For fields with fixed options, map the user's text to the closest valid option.\n")
	b.WriteString("4. For date fields, convert to ISO format \"YYYY-MM-DD\"; for datetime fields, include a time-of-day.\n")
	b.WriteString("5. For text and location fields, use the user's text as-is.\n")
	b.WriteString("6. Skip any field where you are NOT confident about the user's intent.\n")
	b.WriteString("7. Some fields may require tool calls to get options — do NOT extract those.\n\n")

	b.WriteString("## Your Response Format\n")
	b.WriteString(`Respond with a single JSON object:
{"intent": "multi_answer", "answers": {"<field_id>": <extracted_value>}, "message": "<friendly summary of what you extracted>"}

If you cannot extract ANY values, return empty answers:
{"intent": "multi_answer", "answers": {}, "message": "<ask for clearer info>"}`)
	b.WriteString("\n\n")

	b.WriteString("## Form Definition\n")
	b.WriteString(formContext(def))

	return b.String()
}

// formContext renders the condensed title + body + tool catalog used as
// the form description in both prompts.
func formContext(def *form.Definition) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### %s\n\n", def.Title)
	b.WriteString(Condense(def.Body))

	if len(def.Tools) > 0 {
		b.WriteString("\n\n### Available Tools\n")
		for _, t := range def.Tools {
			fmt.Fprintf(&b, "- `%s`: %s\n", t.Name, t.Purpose)
		}
	}

	return b.String()
}

// stateContext renders the answered-fields block followed by the
// still-required block, with the single next required field named
// explicitly so the model has an unambiguous directive.
func stateContext(def *form.Definition, answers map[string]interface{}) string {
	var b strings.Builder

	if len(answers) == 0 {
		b.WriteString("No fields answered yet.\n\n")
	} else {
		b.WriteString("Answered fields:\n")
		for _, id := range sortedKeys(answers) {
			fmt.Fprintf(&b, "  - %s: %s\n", id, displayValue(answers[id]))
		}
		b.WriteString("\n")
	}

	missing := missingRequired(def, answers)
	if len(missing) == 0 {
		b.WriteString("Still required: none. All required fields are answered.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Still required (%d remaining): %s\n", len(missing), strings.Join(missing, ", "))
	fmt.Fprintf(&b, "Ask this field next: %s\n", missing[0])

	return b.String()
}

func missingRequired(def *form.Definition, answers map[string]interface{}) []string {
	var missing []string
	for _, id := range def.RequiredFieldIDs() {
		if _, ok := answers[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func displayValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
