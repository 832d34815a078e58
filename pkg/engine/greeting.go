package engine

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/formpilot/pkg/form"
	"github.com/kadirpekel/formpilot/pkg/payload"
	"github.com/kadirpekel/formpilot/pkg/session"
)

// runGreeting builds the welcome message named in spec §4.6.1, grounded
// on original_source/backend/agent/nodes/greeting.py.
//
// A form with no required fields has nothing to greet the user into —
// §8's boundary property requires FORM_COMPLETE on the greeting turn
// in that case, so greeting short-circuits to it instead of asking.
func runGreeting(s *session.Session) session.Update {
	if s.IsComplete() {
		data := make(map[string]interface{}, len(s.Answers))
		for k, v := range s.Answers {
			data[k] = v
		}
		action := &payload.Payload{Action: payload.ActionFormComplete, Data: data}
		return session.Update{Action: session.Some(action)}
	}

	title := s.Form.Title
	if title == "" {
		title = "this"
	}

	var greeting string
	if summary := summarizeRequiredFields(s.Form); summary != "" {
		greeting = fmt.Sprintf(
			"Hi there! I'm FormPilot AI, and I'll be helping you fill out the **%s** form.\n\n"+
				"%s.\n\n"+
				"Feel free to tell me everything you know in one message — "+
				"I'll extract what I can and only ask about the rest!",
			title, summary,
		)
	} else {
		greeting = fmt.Sprintf(
			"Hi there! I'm FormPilot AI, and I'll be helping you fill out the **%s** form.\n\n"+
				"Go ahead and describe all the information you have — "+
				"I'll take care of filling in the form and only ask about anything that's missing!",
			title,
		)
	}

	return session.Update{
		Action:        session.Some(&payload.Payload{Action: payload.ActionMessage, Message: greeting}),
		HistoryAppend: []session.HistoryEntry{{Role: session.RoleAssistant, Text: greeting}},
	}
}

// summarizeRequiredFields groups the required fields by type into a
// short, human sentence ("You'll need to provide 3 text fields, 2 dates,
// and 1 selection"), matching the field-type grouping
// spec.md §4.6.1 asks for (dates, dropdowns, text, location).
func summarizeRequiredFields(def *form.Definition) string {
	var dates, dropdowns, texts, locations int
	for _, f := range def.Fields {
		if !f.Required {
			continue
		}
		switch f.Type {
		case form.FieldDate, form.FieldDatetime:
			dates++
		case form.FieldDropdown, form.FieldCheckbox:
			dropdowns++
		case form.FieldText:
			texts++
		case form.FieldLocation:
			locations++
		}
	}

	var parts []string
	if texts > 0 {
		parts = append(parts, pluralize(texts, "text field"))
	}
	if dates > 0 {
		parts = append(parts, pluralize(dates, "date"))
	}
	if dropdowns > 0 {
		parts = append(parts, pluralize(dropdowns, "selection"))
	}
	if locations > 0 {
		parts = append(parts, pluralize(locations, "location"))
	}
	if len(parts) == 0 {
		return ""
	}
	return "You'll need to provide " + joinWithAnd(parts)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func joinWithAnd(parts []string) string {
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}
