// Package answer implements the deterministic syntactic checks applied
// to date and datetime answers before they are stored. Other field
// types are accepted as raw strings here; semantic adequacy for
// text-typed fields is judged by the LLM, not this package.
package answer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/araddon/dateparse"
)

// Validate checks a raw user answer against the rules implied by the
// given ASK_ action type. It returns (true, "") when valid, or
// (false, reason) when invalid — reason is meant to be interpolated
// into a system directive telling the LLM to re-ask.
func Validate(askActionType string, raw string) (bool, string) {
	switch askActionType {
	case "ASK_DATE":
		return validateDate(raw)
	case "ASK_DATETIME":
		return validateDatetime(raw)
	default:
		return true, ""
	}
}

func validateDate(raw string) (bool, string) {
	stripped := strings.TrimSpace(raw)
	if stripped == "" {
		return false, "Date cannot be empty."
	}
	if !containsDigit(stripped) {
		return false, fmt.Sprintf(
			"'%s' is not a valid date. Please provide a date like 2026-01-15 or January 15, 2026.",
			stripped,
		)
	}
	if _, err := dateparse.ParseAny(stripped); err != nil {
		return false, fmt.Sprintf(
			"'%s' is not a valid date. Please provide a date like 2026-01-15 or January 15, 2026.",
			stripped,
		)
	}
	return true, ""
}

func validateDatetime(raw string) (bool, string) {
	stripped := strings.TrimSpace(raw)
	if stripped == "" {
		return false, "Datetime cannot be empty."
	}
	if !containsDigit(stripped) {
		return false, fmt.Sprintf(
			"'%s' is not a valid date/time. Please provide something like 2026-01-15 10:30 AM.",
			stripped,
		)
	}
	if _, err := dateparse.ParseAny(stripped); err != nil {
		return false, fmt.Sprintf(
			"'%s' is not a valid date/time. Please provide something like 2026-01-15 10:30 AM.",
			stripped,
		)
	}
	return true, ""
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
