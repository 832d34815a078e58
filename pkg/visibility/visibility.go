// Package visibility evaluates whether a form field should be shown to
// the user given the answers collected so far. Visibility is always
// decided here, in deterministic Go code — never by the LLM — grounded
// on original_source/backend/core/visibility.py.
package visibility

import (
	"fmt"

	"github.com/araddon/dateparse"
)

// Operator is the closed set of comparisons a condition can apply.
type Operator string

const (
	OpExists      Operator = "EXISTS"
	OpEquals      Operator = "EQUALS"
	OpNotEquals   Operator = "NOT_EQUALS"
	OpAfter       Operator = "AFTER"
	OpBefore      Operator = "BEFORE"
	OpOnOrAfter   Operator = "ON_OR_AFTER"
	OpOnOrBefore  Operator = "ON_OR_BEFORE"
)

// Condition references another field and an operator to compare it
// against either a static Value or the dynamic ValueField's current
// answer. ValueField takes precedence when both are set.
type Condition struct {
	Field      string
	Operator   Operator
	Value      string
	ValueField string
}

// Rule is a visibility rule: every condition in All must pass (AND
// logic) for the owning field to be visible.
type Rule struct {
	All []Condition
}

// IsVisible reports whether a field governed by rule should be shown
// given the current answers. A nil rule is always visible.
func IsVisible(rule *Rule, answers map[string]interface{}) bool {
	if rule == nil {
		return true
	}
	for _, cond := range rule.All {
		if !evaluateCondition(cond, answers) {
			return false
		}
	}
	return true
}

func evaluateCondition(cond Condition, answers map[string]interface{}) bool {
	fieldValue, hasField := answers[cond.Field]

	switch cond.Operator {
	case OpExists:
		return hasField && fieldValue != nil

	case OpEquals:
		compare, ok := compareValue(cond, answers)
		if !hasField || fieldValue == nil || !ok {
			return false
		}
		return stringify(fieldValue) == compare

	case OpNotEquals:
		compare, ok := compareValue(cond, answers)
		if !hasField || fieldValue == nil || !ok {
			return false
		}
		return stringify(fieldValue) != compare

	case OpAfter:
		return compareDates(fieldValue, hasField, cond, answers, func(a, b int) bool { return a > b })
	case OpBefore:
		return compareDates(fieldValue, hasField, cond, answers, func(a, b int) bool { return a < b })
	case OpOnOrAfter:
		return compareDates(fieldValue, hasField, cond, answers, func(a, b int) bool { return a >= b })
	case OpOnOrBefore:
		return compareDates(fieldValue, hasField, cond, answers, func(a, b int) bool { return a <= b })
	}

	// Unknown operator — should not happen given the closed Operator set.
	return false
}

// compareValue resolves a condition's comparison value: the dynamic
// ValueField takes precedence over the static Value when both are set.
func compareValue(cond Condition, answers map[string]interface{}) (string, bool) {
	if cond.ValueField != "" {
		val, ok := answers[cond.ValueField]
		if !ok || val == nil {
			return "", false
		}
		return stringify(val), true
	}
	if cond.Value == "" {
		return "", false
	}
	return cond.Value, true
}

func compareDates(fieldValue interface{}, hasField bool, cond Condition, answers map[string]interface{}, cmp func(a, b int) bool) bool {
	if !hasField || fieldValue == nil {
		return false
	}
	compareRaw, ok := compareValue(cond, answers)
	if !ok {
		return false
	}

	fieldDate, err := dateparse.ParseAny(stringify(fieldValue))
	if err != nil {
		return false
	}
	compareDate, err := dateparse.ParseAny(compareRaw)
	if err != nil {
		return false
	}
	fieldDate = fieldDate.UTC().Truncate(24 * 60 * 60 * 1000000000)
	compareDate = compareDate.UTC().Truncate(24 * 60 * 60 * 1000000000)

	switch {
	case fieldDate.Before(compareDate):
		return cmp(-1, 0)
	case fieldDate.After(compareDate):
		return cmp(1, 0)
	default:
		return cmp(0, 0)
	}
}

// stringify mirrors the Python original's str(value) coercion used
// before comparing EQUALS/NOT_EQUALS and date values, so that e.g. a
// bool or number answer compares the same way it would in the source
// system.
func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
