package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_MultiAnswer(t *testing.T) {
	raw, err := ParseJSONObject(`{"intent":"multi_answer","answers":{"name":"Jane","email":"jane@example.com"}}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "multi_answer", p.Intent)
	assert.Equal(t, "Jane", p.Answers["name"])
}

func TestValidate_Message(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"MESSAGE","text":"Sure, one moment."}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionMessage, p.Action)
	assert.Equal(t, "Sure, one moment.", p.Message)
}

func TestValidate_Message_MessageKeyPromotedToText(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"MESSAGE","message":"Got it."}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "Got it.", p.Message)
}

func TestValidate_AskSimple(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"ASK_DATE","field_id":"dob","label":"Date of birth"}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionAskDate, p.Action)
	assert.Equal(t, "dob", p.FieldID)
	assert.Equal(t, "Date of birth", p.Label)
}

func TestValidate_AskSimple_MissingFieldID(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"ASK_TEXT","label":"Your name"}`)
	require.NoError(t, err)

	_, err = Validate(raw)
	require.Error(t, err)
}

func TestValidate_AskOptions(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"ASK_DROPDOWN","field_id":"country","options":["US","CA","MX"]}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionAskDropdown, p.Action)
	assert.Equal(t, []string{"US", "CA", "MX"}, p.Options)
}

func TestValidate_AskOptions_EmptyOptionsStillParsesShape(t *testing.T) {
	// Shape validity is distinct from the engine-level empty-options
	// guard, which rejects this payload one layer up.
	raw, err := ParseJSONObject(`{"action":"ASK_CHECKBOX","field_id":"interests","options":[]}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Empty(t, p.Options)
}

func TestValidate_ToolCall(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"TOOL_CALL","tool_name":"lookup_zip","tool_args":{"zip":"94107"}}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "lookup_zip", p.ToolName)
	assert.Equal(t, "94107", p.ToolArgs["zip"])
}

func TestValidate_ToolCall_MissingToolArgsDefaultsEmpty(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"TOOL_CALL","tool_name":"lookup_zip"}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.NotNil(t, p.ToolArgs)
	assert.Empty(t, p.ToolArgs)
}

func TestValidate_FormComplete(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"FORM_COMPLETE","data":{"name":"Jane"}}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionFormComplete, p.Action)
	assert.Equal(t, "Jane", p.Data["name"])
}

func TestValidate_UnknownActionWithTextCoercedToMessage(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"CHAT","text":"Let me check on that."}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionMessage, p.Action)
	assert.Equal(t, "Let me check on that.", p.Message)
}

func TestValidate_UnknownActionWithoutTextRejected(t *testing.T) {
	raw, err := ParseJSONObject(`{"action":"CHAT"}`)
	require.NoError(t, err)

	_, err = Validate(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestValidate_NoActionNoIntentButTextCoercedToMessage(t *testing.T) {
	raw, err := ParseJSONObject(`{"text":"Hello there!"}`)
	require.NoError(t, err)

	p, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionMessage, p.Action)
}

func TestValidate_EmptyObjectRejected(t *testing.T) {
	raw, err := ParseJSONObject(`{}`)
	require.NoError(t, err)

	_, err = Validate(raw)
	require.Error(t, err)
}
