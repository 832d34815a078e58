package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kadirpekel/formpilot/pkg/payload"
)

// RMax is the default maximum number of LLM call attempts per turn,
// including the first. A turn that exhausts RMax attempts without
// producing a valid, guard-clean payload falls back to a MESSAGE.
const RMax = 4

// jsonRetryPrompt is the corrective message sent when the model's
// output could not be parsed as JSON at all. Deliberately blunt —
// smaller models respond better to unambiguous correction than to a
// polite restatement of the rules.
const jsonRetryPrompt = "WRONG. Your response was NOT valid JSON. " +
	"You MUST respond with ONLY a JSON object like: " +
	`{"action": "MESSAGE", "text": "hello"} ` +
	"NO explanations. NO markdown. NO plain text. ONLY JSON. Try again now."

// CallParams bundles everything the guard loop needs to judge a
// candidate payload against the session's current state. Messages is
// mutated in place by appending corrective system-directive turns, so
// callers must pass a fresh slice per turn.
type CallParams struct {
	SystemPrompt string
	Messages     []Message

	Answers               map[string]interface{}
	RequiredFields        []string
	InitialExtractionDone bool

	// RecentReaskTexts holds the literal text of recent assistant
	// messages (the conversation node passes up to the last five, of any
	// kind); the verbatim re-ask guard rejects a candidate whose message
	// repeats one of them word for word.
	RecentReaskTexts []string
}

// GuardedCaller drives the retry loop described in the prompt composer
// and guard specification: call the model, extract JSON, validate its
// shape, and apply behavioral guards, retrying with a targeted
// corrective message on any failure.
type GuardedCaller struct {
	Provider   Provider
	Metrics    *Metrics
	MaxRetries int // total attempts; defaults to RMax if zero
}

// NewGuardedCaller builds a GuardedCaller with RMax attempts.
func NewGuardedCaller(provider Provider, metrics *Metrics) *GuardedCaller {
	return &GuardedCaller{Provider: provider, Metrics: metrics, MaxRetries: RMax}
}

// Call runs the retry loop and returns a validated payload, or nil if
// every attempt was exhausted.
func (g *GuardedCaller) Call(ctx context.Context, params *CallParams) (*payload.Payload, error) {
	maxAttempts := g.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = RMax
	}

	start := time.Now()
	messageGuardUsed := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		slog.Info("calling LLM", "attempt", attempt+1, "max_attempts", maxAttempts, "messages", len(params.Messages))

		raw, err := g.Provider.Invoke(ctx, params.SystemPrompt, params.Messages)
		if err != nil {
			slog.Error("LLM call failed", "attempt", attempt+1, "error", err)
			if attempt == maxAttempts-1 {
				g.Metrics.RecordExhausted()
				g.Metrics.RecordTurn("provider_error", time.Since(start), attempt)
				return nil, fmt.Errorf("llm: provider call failed: %w", err)
			}
			continue
		}
		params.Messages = append(params.Messages, Message{Role: RoleAssistant, Text: raw})

		obj, ok := ExtractJSON(raw)
		if !ok {
			slog.Warn("LLM returned invalid JSON", "attempt", attempt+1, "preview", preview(raw))
			g.Metrics.RecordRetry("invalid_json")
			params.Messages = append(params.Messages, Message{Role: RoleSystemDirective, Text: jsonRetryPrompt})
			continue
		}

		p, err := payload.Validate(obj)
		if err != nil {
			slog.Warn("LLM payload failed shape validation", "attempt", attempt+1, "error", err)
			g.Metrics.RecordRetry("invalid_payload")
			params.Messages = append(params.Messages, Message{Role: RoleSystemDirective, Text: jsonRetryPrompt})
			continue
		}

		if reason, corrective, retry := g.checkGuards(p, params, &messageGuardUsed); retry {
			slog.Warn("LLM payload rejected by guard", "attempt", attempt+1, "reason", reason)
			g.Metrics.RecordRetry(reason)
			params.Messages = append(params.Messages, Message{Role: RoleSystemDirective, Text: corrective})
			continue
		}

		g.Metrics.RecordTurn("ok", time.Since(start), attempt)
		return p, nil
	}

	g.Metrics.RecordExhausted()
	g.Metrics.RecordTurn("exhausted", time.Since(start), maxAttempts-1)
	return nil, nil
}

// checkGuards applies the behavioral guards in spec order. It returns a
// guard reason label, a corrective message to append, and whether the
// candidate payload must be retried.
func (g *GuardedCaller) checkGuards(p *payload.Payload, params *CallParams, messageGuardUsed *bool) (reason string, corrective string, retry bool) {
	answeredList := strings.Join(sortedAnswerKeys(params.Answers), ", ")

	// Re-ask of answered field.
	if p.Action.IsAsk() && p.FieldID != "" {
		if _, already := params.Answers[p.FieldID]; already {
			return "reask_answered_field", fmt.Sprintf(
				"WRONG. The field '%s' is already answered. "+
					"Already answered fields: [%s]. Ask the NEXT unanswered field instead.",
				p.FieldID, answeredList,
			), true
		}
	}

	// MESSAGE during active filling — retried at most once per turn.
	if p.Action == payload.ActionMessage && params.InitialExtractionDone &&
		len(params.Answers) > 0 && p.FieldID == "" && !*messageGuardUsed {
		*messageGuardUsed = true
		return "message_during_filling", fmt.Sprintf(
			"WRONG format. You returned MESSAGE but you should be asking for the "+
				"next unanswered form field. Already answered: [%s]. Find the next "+
				"unanswered field and use the correct format: ASK_TEXT, ASK_DATE, "+
				"ASK_DROPDOWN, etc. with a field_id. Do NOT use MESSAGE to ask questions.",
			answeredList,
		), true
	}

	// Empty options on a dropdown/checkbox ask.
	if (p.Action == payload.ActionAskDropdown || p.Action == payload.ActionAskCheckbox) && len(p.Options) == 0 {
		return "empty_options", "WRONG. You returned " + string(p.Action) + " with empty options. " +
			"You do NOT have the options yet. You MUST return a TOOL_CALL first to fetch " +
			"the data. Check the form: which tool provides data for this field? Return a " +
			"TOOL_CALL for that tool NOW.", true
	}

	// Premature FORM_COMPLETE.
	if p.Action == payload.ActionFormComplete && len(params.RequiredFields) > 0 {
		missing := missingFields(params.RequiredFields, params.Answers)
		if len(missing) > 0 {
			return "premature_form_complete", fmt.Sprintf(
				"WRONG. You returned FORM_COMPLETE but these required fields are still "+
					"unanswered: [%s]. Ask the NEXT missing field: '%s'.",
				strings.Join(missing, ", "), missing[0],
			), true
		}
	}

	// Verbatim re-ask — the model repeated a recent re-ask message
	// instead of rephrasing after an invalid answer.
	if p.Message != "" {
		for _, recent := range params.RecentReaskTexts {
			if recent != "" && recent == p.Message {
				return "verbatim_reask", "WRONG. You repeated the exact same wording as your " +
					"previous question. Rephrase the question in different words.", true
			}
		}
	}

	return "", "", false
}

func missingFields(required []string, answers map[string]interface{}) []string {
	var missing []string
	for _, id := range required {
		if _, ok := answers[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func sortedAnswerKeys(answers map[string]interface{}) []string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func preview(s string) string {
	const maxLen = 300
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
