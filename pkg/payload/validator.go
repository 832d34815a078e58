package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPayload is the sentinel wrapped by every rejection reason
// Validate returns, so callers can test for it with errors.Is.
var ErrInvalidPayload = errors.New("payload: invalid")

// Validate takes a decoded JSON object (as produced by the guard loop's
// JSON extraction) and returns a normalized Payload, or a rejection
// reason wrapping ErrInvalidPayload.
//
// The "intent"/"action" tag picks the matching compiled JSON Schema,
// which checks the object's structure; the fields are then read out,
// with "message" promoted when "text" is absent. A raw object that
// matches none of the six shapes, and carries no textual content to
// coerce into MESSAGE, is rejected outright.
func Validate(raw map[string]interface{}) (*Payload, error) {
	if intent, ok := stringField(raw, "intent"); ok && intent == "multi_answer" {
		return validateMultiAnswer(raw)
	}

	action, hasAction := stringField(raw, "action")
	if !hasAction {
		if text, ok := anyText(raw); ok {
			return &Payload{Action: ActionMessage, Message: text}, nil
		}
		return nil, fmt.Errorf("%w: missing \"action\" (and no intent or text to coerce)", ErrInvalidPayload)
	}

	switch ActionType(action) {
	case ActionMessage:
		return validateMessage(raw)
	case ActionAskText, ActionAskDate, ActionAskDatetime, ActionAskLocation:
		return validateAskSimple(raw, ActionType(action))
	case ActionAskDropdown, ActionAskCheckbox:
		return validateAskOptions(raw, ActionType(action))
	case ActionToolCall:
		return validateToolCall(raw)
	case ActionFormComplete:
		return validateFormComplete(raw)
	default:
		// Unknown action strings with accompanying textual content are
		// coerced to MESSAGE; otherwise they fail closed.
		if text, ok := anyText(raw); ok {
			return &Payload{Action: ActionMessage, Message: text}, nil
		}
		return nil, fmt.Errorf("%w: unrecognized action %q", ErrInvalidPayload, action)
	}
}

func validateMultiAnswer(raw map[string]interface{}) (*Payload, error) {
	if err := checkSchema(globalSchemas.multiAnswer, raw, "multi_answer"); err != nil {
		return nil, err
	}
	answers, _ := raw["answers"].(map[string]interface{})
	text, _ := anyText(raw)
	return &Payload{Intent: "multi_answer", Answers: answers, Message: text}, nil
}

func validateMessage(raw map[string]interface{}) (*Payload, error) {
	if err := checkSchema(globalSchemas.message, raw, "MESSAGE"); err != nil {
		return nil, err
	}
	text, _ := anyText(raw)
	return &Payload{Action: ActionMessage, Message: text}, nil
}

func validateAskSimple(raw map[string]interface{}, action ActionType) (*Payload, error) {
	if err := checkSchema(globalSchemas.askSimple, raw, string(action)); err != nil {
		return nil, err
	}
	fieldID, _ := stringField(raw, "field_id")
	label, _ := stringField(raw, "label")
	text, _ := anyText(raw)
	return &Payload{
		Action:  action,
		FieldID: fieldID,
		Label:   label,
		Message: text,
		Value:   raw["value"],
	}, nil
}

func validateAskOptions(raw map[string]interface{}, action ActionType) (*Payload, error) {
	if err := checkSchema(globalSchemas.askOptions, raw, string(action)); err != nil {
		return nil, err
	}
	fieldID, _ := stringField(raw, "field_id")
	label, _ := stringField(raw, "label")
	text, _ := anyText(raw)
	return &Payload{
		Action:  action,
		FieldID: fieldID,
		Label:   label,
		Message: text,
		Options: stringSlice(raw["options"]),
	}, nil
}

func validateToolCall(raw map[string]interface{}) (*Payload, error) {
	if err := checkSchema(globalSchemas.toolCall, raw, "TOOL_CALL"); err != nil {
		return nil, err
	}
	toolName, _ := stringField(raw, "tool_name")
	args, _ := raw["tool_args"].(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	text, _ := anyText(raw)
	return &Payload{
		Action:   ActionToolCall,
		ToolName: toolName,
		ToolArgs: args,
		Message:  text,
	}, nil
}

func validateFormComplete(raw map[string]interface{}) (*Payload, error) {
	if err := checkSchema(globalSchemas.formComplete, raw, "FORM_COMPLETE"); err != nil {
		return nil, err
	}
	data, _ := raw["data"].(map[string]interface{})
	text, _ := anyText(raw)
	return &Payload{Action: ActionFormComplete, Data: data, Message: text}, nil
}

func checkSchema(schema interface {
	Validate(interface{}) error
}, raw map[string]interface{}, label string) error {
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrInvalidPayload, label, err)
	}
	return nil
}

// anyText returns whichever of "text" or "message" is present and
// non-empty, preferring "text". A payload that names a field "message"
// but has no "text" is promoted so downstream code only ever reads
// Payload.Message.
func anyText(raw map[string]interface{}) (string, bool) {
	if v, ok := stringField(raw, "text"); ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	if v, ok := stringField(raw, "message"); ok && strings.TrimSpace(v) != "" {
		return v, true
	}
	return "", false
}

func stringField(raw map[string]interface{}, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringSlice(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ParseJSONObject is a thin convenience wrapper used by the guard loop
// after it has isolated a JSON substring from an LLM response.
func ParseJSONObject(s string) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
