package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVisible_NilRuleAlwaysVisible(t *testing.T) {
	assert.True(t, IsVisible(nil, map[string]interface{}{}))
}

func TestIsVisible_Exists(t *testing.T) {
	rule := &Rule{All: []Condition{{Field: "has_car", Operator: OpExists}}}

	assert.True(t, IsVisible(rule, map[string]interface{}{"has_car": "yes"}))
	assert.False(t, IsVisible(rule, map[string]interface{}{}))
	assert.False(t, IsVisible(rule, map[string]interface{}{"has_car": nil}))
}

func TestIsVisible_EqualsStaticValue(t *testing.T) {
	rule := &Rule{All: []Condition{{Field: "leave_type", Operator: OpEquals, Value: "Sick"}}}

	assert.True(t, IsVisible(rule, map[string]interface{}{"leave_type": "Sick"}))
	assert.False(t, IsVisible(rule, map[string]interface{}{"leave_type": "Annual"}))
	assert.False(t, IsVisible(rule, map[string]interface{}{}))
}

func TestIsVisible_NotEqualsStaticValue(t *testing.T) {
	rule := &Rule{All: []Condition{{Field: "leave_type", Operator: OpNotEquals, Value: "Sick"}}}

	assert.True(t, IsVisible(rule, map[string]interface{}{"leave_type": "Annual"}))
	assert.False(t, IsVisible(rule, map[string]interface{}{"leave_type": "Sick"}))
	assert.False(t, IsVisible(rule, map[string]interface{}{}))
}

func TestIsVisible_EqualsDynamicValueField(t *testing.T) {
	rule := &Rule{All: []Condition{{Field: "confirm_email", Operator: OpEquals, ValueField: "email"}}}

	assert.True(t, IsVisible(rule, map[string]interface{}{"email": "a@b.com", "confirm_email": "a@b.com"}))
	assert.False(t, IsVisible(rule, map[string]interface{}{"email": "a@b.com", "confirm_email": "c@d.com"}))
}

func TestIsVisible_DateComparisons(t *testing.T) {
	after := &Rule{All: []Condition{{Field: "end_date", Operator: OpAfter, ValueField: "start_date"}}}
	before := &Rule{All: []Condition{{Field: "end_date", Operator: OpBefore, ValueField: "start_date"}}}
	onOrAfter := &Rule{All: []Condition{{Field: "end_date", Operator: OpOnOrAfter, ValueField: "start_date"}}}
	onOrBefore := &Rule{All: []Condition{{Field: "end_date", Operator: OpOnOrBefore, ValueField: "start_date"}}}

	sameDate := map[string]interface{}{"start_date": "2026-01-10", "end_date": "2026-01-10"}
	laterDate := map[string]interface{}{"start_date": "2026-01-10", "end_date": "2026-01-20"}

	assert.False(t, IsVisible(after, sameDate))
	assert.True(t, IsVisible(onOrAfter, sameDate))
	assert.False(t, IsVisible(before, sameDate))
	assert.True(t, IsVisible(onOrBefore, sameDate))

	assert.True(t, IsVisible(after, laterDate))
	assert.False(t, IsVisible(before, laterDate))
}

func TestIsVisible_DateComparisonMissingOrUnparseable(t *testing.T) {
	rule := &Rule{All: []Condition{{Field: "end_date", Operator: OpAfter, ValueField: "start_date"}}}

	assert.False(t, IsVisible(rule, map[string]interface{}{"start_date": "2026-01-10"}))
	assert.False(t, IsVisible(rule, map[string]interface{}{"end_date": "not-a-date", "start_date": "2026-01-10"}))
}

func TestIsVisible_AndLogicAcrossMultipleConditions(t *testing.T) {
	rule := &Rule{All: []Condition{
		{Field: "has_injury", Operator: OpEquals, Value: "yes"},
		{Field: "injury_date", Operator: OpExists},
	}}

	assert.True(t, IsVisible(rule, map[string]interface{}{"has_injury": "yes", "injury_date": "2026-01-01"}))
	assert.False(t, IsVisible(rule, map[string]interface{}{"has_injury": "yes"}))
	assert.False(t, IsVisible(rule, map[string]interface{}{"has_injury": "no", "injury_date": "2026-01-01"}))
}
