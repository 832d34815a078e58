package promptbuild

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/formpilot/pkg/form"
)

func testDefinition(t *testing.T) *form.Definition {
	t.Helper()
	raw := `---
title: Event Registration
fields:
  - id: name
    type: text
    required: true
    prompt: Your full name
    step: 1
  - id: country
    type: dropdown
    required: true
    prompt: Your country
    step: 1
tools:
  - name: lookup_countries
    purpose: fetch the list of valid countries
---
Register for the annual conference.
`
	def, err := form.Parse([]byte(raw))
	require.NoError(t, err)
	return def
}

func TestBuildExtractionPrompt_NamesFormAndShape(t *testing.T) {
	def := testDefinition(t)
	prompt := BuildExtractionPrompt(def)

	assert.Contains(t, prompt, "multi_answer")
	assert.Contains(t, prompt, "Event Registration")
	assert.Contains(t, prompt, "NEVER assume or fabricate")
}

func TestBuildConversationPrompt_NoAnswersYet(t *testing.T) {
	def := testDefinition(t)
	prompt := BuildConversationPrompt(def, map[string]interface{}{})

	assert.Contains(t, prompt, "No fields answered yet.")
	assert.Contains(t, prompt, "Ask this field next: name")
	assert.Contains(t, prompt, "lookup_countries")
}

func TestBuildConversationPrompt_PartialAnswers(t *testing.T) {
	def := testDefinition(t)
	prompt := BuildConversationPrompt(def, map[string]interface{}{"name": "Jane Doe"})

	assert.Contains(t, prompt, "name: Jane Doe")
	assert.Contains(t, prompt, "Ask this field next: country")
	assert.NotContains(t, prompt, "Still required: none")
}

func TestBuildConversationPrompt_AllAnswered(t *testing.T) {
	def := testDefinition(t)
	answers := map[string]interface{}{"name": "Jane Doe", "country": "US"}
	prompt := BuildConversationPrompt(def, answers)

	assert.Contains(t, prompt, "Still required: none. All required fields are answered.")
}

func TestCondense_ShortBodyPassesThrough(t *testing.T) {
	body := "line one\nline two\nline three"
	assert.Equal(t, body, Condense(body))
}

func TestCondense_LongBodyKeepsMatchingHeadings(t *testing.T) {
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, "filler line that nobody cares about")
	}
	full := strings.Join(lines, "\n") +
		"\n## Field Summary\nname: text\ncountry: dropdown\n" +
		strings.Join(lines, "\n")

	condensed := Condense(full)
	assert.Contains(t, condensed, "## Field Summary")
	assert.Contains(t, condensed, "name: text")
	assert.True(t, len(condensed) < len(full))
}

func TestCondense_LongBodyWithNoMatchingHeadingsFallsBackToHeadTail(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, "some unrelated prose line")
	}
	full := strings.Join(lines, "\n")

	condensed := Condense(full)
	assert.Contains(t, condensed, elisionMarker)
}
