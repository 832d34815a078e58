package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/formpilot/pkg/form"
)

func testDef(t *testing.T) *form.Definition {
	t.Helper()
	raw := `---
title: Demo
fields:
  - id: name
    type: text
    required: true
  - id: email
    type: text
    required: true
---
body
`
	def, err := form.Parse([]byte(raw))
	require.NoError(t, err)
	return def
}

func TestNew_DerivedViews(t *testing.T) {
	s := New(testDef(t))
	assert.Equal(t, []string{"name", "email"}, s.RequiredFields)
	assert.Equal(t, 1, s.CurrentStep)
	assert.Equal(t, []string{"name", "email"}, s.MissingRequired())
	assert.False(t, s.IsComplete())
}

func TestApply_AnswersMergeWithOverwrite(t *testing.T) {
	s := New(testDef(t))
	s = Apply(s, Update{AnswersPatch: map[string]interface{}{"name": "Jane"}})
	s = Apply(s, Update{AnswersPatch: map[string]interface{}{"name": "Jane Doe", "email": "jane@x.com"}})

	assert.Equal(t, "Jane Doe", s.Answers["name"])
	assert.Equal(t, "jane@x.com", s.Answers["email"])
	assert.True(t, s.IsComplete())
}

func TestApply_HistoryAppendsOnly(t *testing.T) {
	s := New(testDef(t))
	s = Apply(s, Update{HistoryAppend: []HistoryEntry{{Role: RoleAssistant, Text: "hi"}}})
	s = Apply(s, Update{HistoryAppend: []HistoryEntry{{Role: RoleUser, Text: "hello"}}})

	require.Len(t, s.History, 2)
	assert.Equal(t, "hi", s.History[0].Text)
	assert.Equal(t, "hello", s.History[1].Text)
}

func TestApply_UntouchedOptFieldsArePreserved(t *testing.T) {
	s := New(testDef(t))
	s = Apply(s, Update{PendingFieldID: Some("name"), PendingActionType: Some("ASK_TEXT")})
	s = Apply(s, Update{AnswersPatch: map[string]interface{}{"email": "x@y.com"}})

	assert.Equal(t, "name", s.PendingFieldID, "untouched Opt fields must survive a later Apply")
}

func TestApply_ExplicitClearToZeroValueIsHonored(t *testing.T) {
	s := New(testDef(t))
	s = Apply(s, Update{PendingFieldID: Some("name")})
	s = Apply(s, Update{PendingFieldID: Some("")})

	assert.Equal(t, "", s.PendingFieldID)
}

func TestResetEphemeral_ClearsIntraTurnFields(t *testing.T) {
	s := New(testDef(t))
	s.AllowAnsweredFieldUpdate = true
	s.SkipConversationTurn = true
	s.UserMessageAdded = true

	s.ResetEphemeral()

	assert.False(t, s.AllowAnsweredFieldUpdate)
	assert.False(t, s.SkipConversationTurn)
	assert.False(t, s.UserMessageAdded)
	assert.Nil(t, s.Action)
}
