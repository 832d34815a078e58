package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/formpilot/pkg/payload"
)

// scriptedProvider returns one scripted response per call, in order.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (s *scriptedProvider) Invoke(_ context.Context, _ string, _ []Message) (string, error) {
	if s.calls >= len(s.responses) {
		return "", nil
	}
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

func TestGuardedCaller_HappyPath(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"action":"ASK_TEXT","field_id":"name","label":"Your name"}`,
	}}
	caller := NewGuardedCaller(provider, nil)

	p, err := caller.Call(context.Background(), &CallParams{
		SystemPrompt: "sys",
		Messages:     []Message{{Role: RoleUser, Text: "hi"}},
		Answers:      map[string]interface{}{},
	})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "name", p.FieldID)
	assert.Equal(t, 1, provider.calls)
}

func TestGuardedCaller_RecoversFromInvalidJSON(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"not json at all",
		`{"action":"MESSAGE","text":"ok now valid"}`,
	}}
	caller := NewGuardedCaller(provider, nil)

	p, err := caller.Call(context.Background(), &CallParams{
		SystemPrompt: "sys",
		Messages:     []Message{{Role: RoleUser, Text: "hi"}},
		Answers:      map[string]interface{}{},
	})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, payload.ActionMessage, p.Action)
	assert.Equal(t, 2, provider.calls)
}

func TestGuardedCaller_ExtractsFromFencedCodeBlock(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"Sure thing!\n```json\n{\"action\":\"ASK_DATE\",\"field_id\":\"dob\"}\n```",
	}}
	caller := NewGuardedCaller(provider, nil)

	p, err := caller.Call(context.Background(), &CallParams{
		SystemPrompt: "sys",
		Messages:     []Message{{Role: RoleUser, Text: "hi"}},
		Answers:      map[string]interface{}{},
	})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "dob", p.FieldID)
}

func TestGuardedCaller_RejectsReaskOfAnsweredField(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"action":"ASK_TEXT","field_id":"name"}`,
		`{"action":"ASK_TEXT","field_id":"email"}`,
	}}
	caller := NewGuardedCaller(provider, nil)

	p, err := caller.Call(context.Background(), &CallParams{
		SystemPrompt: "sys",
		Messages:     []Message{{Role: RoleUser, Text: "hi"}},
		Answers:      map[string]interface{}{"name": "Jane"},
	})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "email", p.FieldID)
	assert.Equal(t, 2, provider.calls)
}

func TestGuardedCaller_RejectsMessageDuringActiveFillingOnce(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"action":"MESSAGE","text":"how are you?"}`,
		`{"action":"ASK_TEXT","field_id":"email"}`,
	}}
	caller := NewGuardedCaller(provider, nil)

	p, err := caller.Call(context.Background(), &CallParams{
		SystemPrompt:          "sys",
		Messages:              []Message{{Role: RoleUser, Text: "hi"}},
		Answers:               map[string]interface{}{"name": "Jane"},
		InitialExtractionDone: true,
	})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "email", p.FieldID)
}

func TestGuardedCaller_RejectsEmptyDropdownOptions(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"action":"ASK_DROPDOWN","field_id":"country","options":[]}`,
		`{"action":"TOOL_CALL","tool_name":"lookup_countries"}`,
	}}
	caller := NewGuardedCaller(provider, nil)

	p, err := caller.Call(context.Background(), &CallParams{
		SystemPrompt: "sys",
		Messages:     []Message{{Role: RoleUser, Text: "hi"}},
		Answers:      map[string]interface{}{},
	})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, payload.ActionToolCall, p.Action)
}

func TestGuardedCaller_RejectsPrematureFormComplete(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"action":"FORM_COMPLETE","data":{}}`,
		`{"action":"ASK_TEXT","field_id":"email"}`,
	}}
	caller := NewGuardedCaller(provider, nil)

	p, err := caller.Call(context.Background(), &CallParams{
		SystemPrompt:   "sys",
		Messages:       []Message{{Role: RoleUser, Text: "hi"}},
		Answers:        map[string]interface{}{"name": "Jane"},
		RequiredFields: []string{"name", "email"},
	})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "email", p.FieldID)
}

func TestGuardedCaller_RejectsVerbatimReask(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"action":"ASK_DATE","field_id":"dob","message":"When were you born?"}`,
		`{"action":"ASK_DATE","field_id":"dob","message":"Could you tell me your date of birth instead?"}`,
	}}
	caller := NewGuardedCaller(provider, nil)

	p, err := caller.Call(context.Background(), &CallParams{
		SystemPrompt:     "sys",
		Messages:         []Message{{Role: RoleUser, Text: "sdasdsdad"}},
		Answers:          map[string]interface{}{},
		RecentReaskTexts: []string{"When were you born?"},
	})

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Could you tell me your date of birth instead?", p.Message)
}

func TestGuardedCaller_ExhaustsRetriesAndReturnsNil(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"gibberish", "gibberish", "gibberish", "gibberish", "gibberish",
	}}
	caller := NewGuardedCaller(provider, nil)

	p, err := caller.Call(context.Background(), &CallParams{
		SystemPrompt: "sys",
		Messages:     []Message{{Role: RoleUser, Text: "hi"}},
		Answers:      map[string]interface{}{},
	})

	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, RMax, provider.calls)
}
