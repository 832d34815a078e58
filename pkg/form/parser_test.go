package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleForm = `---
title: Leave Request
fields:
  - id: leave_type
    type: dropdown
    required: true
    step: 1
    prompt: "What type of leave?"
    options: ["Annual", "Sick"]
  - id: start_date
    type: date
    required: true
    step: 1
    prompt: "When does it start?"
  - id: notes
    type: text
    required: conditional
    step: 2
    prompt: "Anything else?"
tools:
  - name: get_establishments
    purpose: "Fetch the list of establishments"
---
# Leave Request Form

Body content for the LLM.
`

func TestParse_Happy(t *testing.T) {
	def, err := Parse([]byte(sampleForm))
	require.NoError(t, err)

	assert.Equal(t, "Leave Request", def.Title)
	assert.Contains(t, def.Body, "Body content for the LLM.")
	require.Len(t, def.Fields, 3)

	assert.Equal(t, []string{"leave_type", "start_date"}, def.RequiredFieldIDs())

	byStep := def.RequiredByStep()
	assert.ElementsMatch(t, []string{"leave_type", "start_date"}, byStep[1])
	assert.Empty(t, byStep[2]) // notes is conditional, never required

	types := def.FieldTypes()
	assert.Equal(t, FieldDropdown, types["leave_type"])
	assert.Equal(t, FieldDate, types["start_date"])

	assert.Equal(t, 2, def.MaxStep())

	notes, ok := def.FieldByID("notes")
	require.True(t, ok)
	assert.True(t, notes.Conditional)
	assert.False(t, notes.Required)

	require.Len(t, def.Tools, 1)
	assert.Equal(t, "get_establishments", def.Tools[0].Name)
}

func TestParse_RequiredSynonyms(t *testing.T) {
	src := `---
fields:
  - id: a
    type: text
    required: "true"
  - id: b
    type: text
    required: TRUE
  - id: c
    type: text
    required: false
---
body
`
	def, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, def.RequiredFieldIDs())
}

func TestParse_StepDefaultsAndCoercion(t *testing.T) {
	src := `---
fields:
  - id: a
    type: text
    required: true
  - id: b
    type: text
    required: true
    step: "3"
  - id: c
    type: text
    required: true
    step: -1
---
body
`
	def, err := Parse([]byte(src))
	require.NoError(t, err)
	a, _ := def.FieldByID("a")
	b, _ := def.FieldByID("b")
	c, _ := def.FieldByID("c")
	assert.Equal(t, 1, a.Step)
	assert.Equal(t, 3, b.Step)
	assert.Equal(t, 1, c.Step) // negative coerces to default
}

func TestParse_NoFrontmatter(t *testing.T) {
	def, err := Parse([]byte("Just a plain description, no header."))
	require.NoError(t, err)
	assert.Empty(t, def.Fields)
	assert.Equal(t, "Just a plain description, no header.", def.Body)
}

func TestParse_UnterminatedHeader(t *testing.T) {
	def, err := Parse([]byte("---\ntitle: X\nno closing delimiter"))
	require.NoError(t, err)
	assert.Empty(t, def.Fields)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("---\nfields: [this is not: valid: yaml:\n---\nbody"))
	assert.ErrorIs(t, err, ErrMalformedDefinition)
}

func TestParse_FieldMissingID(t *testing.T) {
	src := `---
fields:
  - type: text
    required: true
---
body
`
	_, err := Parse([]byte(src))
	assert.ErrorIs(t, err, ErrMalformedDefinition)
}

func TestParse_TypeLowercased(t *testing.T) {
	src := `---
fields:
  - id: a
    type: DATE
    required: true
---
body
`
	def, err := Parse([]byte(src))
	require.NoError(t, err)
	a, _ := def.FieldByID("a")
	assert.Equal(t, FieldDate, a.Type)
}
