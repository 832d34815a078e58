package engine

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kadirpekel/formpilot/pkg/form"
	"github.com/kadirpekel/formpilot/pkg/payload"
)

// confirmWords and editWords are the closed lexicons step confirmation
// classifies the user's reply against, including the Arabic variants
// original_source/backend/agent/nodes/step_confirmation.py carries.
var confirmWords = []string{
	"yes", "ok", "okay", "confirm", "confirmed", "continue", "proceed",
	"looks good", "all good", "correct", "approved",
	"نعم", "ايوه", "ايوا", "تمام", "موافق", "اكمل", "استمر",
}

var editWords = []string{
	"change", "update", "edit", "modify", "fix", "wrong", "not correct",
	"تعديل", "غير", "غيّر", "عدل", "صحح", "خطأ", "مو صحيح",
}

var wordBoundaryRe = map[string]*regexp.Regexp{}

func init() {
	for _, w := range append(append([]string{}, confirmWords...), editWords...) {
		if isShortASCIIWord(w) {
			wordBoundaryRe[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
		}
	}
}

func isShortASCIIWord(token string) bool {
	if len(token) > 3 {
		return false
	}
	for _, r := range token {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// hasToken reports whether text contains token, using a word-boundary
// match for short ASCII words (so "my" doesn't match inside "gym") and
// a plain substring match otherwise.
func hasToken(text, token string) bool {
	if re, ok := wordBoundaryRe[token]; ok {
		return re.MatchString(text)
	}
	return strings.Contains(text, token)
}

func isConfirm(text string) bool {
	for _, w := range confirmWords {
		if hasToken(text, w) {
			return true
		}
	}
	return false
}

func isEditRequest(text string) bool {
	for _, w := range editWords {
		if hasToken(text, w) {
			return true
		}
	}
	return false
}

var importantWordRe = regexp.MustCompile(`[a-zA-Z]{4,}`)
var stopWords = map[string]bool{"please": true, "provide": true, "share": true}

func importantWords(label string) []string {
	matches := importantWordRe.FindAllString(label, -1)
	out := make([]string, 0, len(matches))
	for _, w := range matches {
		if !stopWords[strings.ToLower(w)] {
			out = append(out, w)
		}
	}
	return out
}

// inferRequestedField tries to match the user's lowercased edit request
// against the current step's field ids and label keywords.
func inferRequestedField(text string, stepFields []string, labels map[string]string) string {
	for _, id := range stepFields {
		if strings.Contains(text, strings.ToLower(id)) {
			return id
		}
		label := strings.ToLower(labels[id])
		if label == "" {
			continue
		}
		for _, w := range importantWords(label) {
			if strings.Contains(text, strings.ToLower(w)) {
				return id
			}
		}
	}
	return ""
}

func actionForFieldType(t form.FieldType) payload.ActionType {
	switch t {
	case form.FieldDate:
		return payload.ActionAskDate
	case form.FieldDatetime:
		return payload.ActionAskDatetime
	case form.FieldLocation:
		return payload.ActionAskLocation
	default:
		return payload.ActionAskText
	}
}
