package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrMalformedDefinition is returned when the structured header of a form
// definition cannot be parsed.
var ErrMalformedDefinition = errors.New("form: malformed definition header")

// rawHeader mirrors the YAML front-matter shape before type coercion:
// title, fields, and tools, with "required"/"step" left as interface{}
// so both booleans and the synonymous string forms can be accepted.
type rawHeader struct {
	Title  string                   `yaml:"title" mapstructure:"title"`
	Fields []map[string]interface{} `yaml:"fields" mapstructure:"fields"`
	Tools  []map[string]interface{} `yaml:"tools" mapstructure:"tools"`
}

// Parse splits a form definition into its structured header and
// descriptive body, then decodes the header into a Definition.
//
// The format is a YAML front-matter block delimited by "---" lines
// followed by a markdown body:
//
//	---
//	title: Leave Request
//	fields:
//	  - id: leave_type
//	    type: dropdown
//	    required: true
//	---
//	# Leave Request
//	...body used as LLM context...
//
// Content that does not begin with "---" is treated as having no header;
// the full text becomes the body and Fields/Title are left empty.
func Parse(raw []byte) (*Definition, error) {
	text := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(text, "---") {
		return &Definition{Body: text}, nil
	}

	end := strings.Index(text[3:], "---")
	if end == -1 {
		return &Definition{Body: text}, nil
	}
	end += 3

	headerYAML := strings.TrimSpace(text[3:end])
	body := strings.TrimSpace(text[end+3:])

	var hdr rawHeader
	if err := yaml.Unmarshal([]byte(headerYAML), &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDefinition, err)
	}

	fields := make([]Field, 0, len(hdr.Fields))
	for i, raw := range hdr.Fields {
		f, err := decodeField(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %v", ErrMalformedDefinition, i, err)
		}
		fields = append(fields, f)
	}

	tools := make([]Tool, 0, len(hdr.Tools))
	for _, raw := range hdr.Tools {
		var t Tool
		if err := mapstructure.Decode(raw, &t); err != nil {
			continue
		}
		tools = append(tools, t)
	}

	return &Definition{
		Title:  hdr.Title,
		Body:   body,
		Fields: fields,
		Tools:  tools,
	}, nil
}

func decodeField(raw map[string]interface{}) (Field, error) {
	var shape struct {
		ID      string   `mapstructure:"id"`
		Type    string   `mapstructure:"type"`
		Label   string   `mapstructure:"prompt"`
		Options []string `mapstructure:"options"`
	}
	if err := mapstructure.Decode(raw, &shape); err != nil {
		return Field{}, err
	}
	if shape.ID == "" {
		return Field{}, fmt.Errorf("field is missing id")
	}

	required, conditional := decodeRequired(raw["required"])

	return Field{
		ID:          shape.ID,
		Type:        normalizeType(shape.Type),
		Required:    required,
		Conditional: conditional,
		Step:        decodeStep(raw["step"]),
		Label:       shape.Label,
		Options:     shape.Options,
	}, nil
}

// decodeRequired accepts boolean true, the case-insensitive string "true"
// as required, and "conditional" as an opaque third state that is never
// part of the required set.
func decodeRequired(v interface{}) (required bool, conditional bool) {
	switch val := v.(type) {
	case bool:
		return val, false
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		if lower == "conditional" {
			return false, true
		}
		return lower == "true", false
	default:
		return false, false
	}
}

// decodeStep coerces a raw step value to a positive integer, defaulting
// to 1 when missing or unparseable.
func decodeStep(v interface{}) int {
	switch val := v.(type) {
	case int:
		if val < 1 {
			return 1
		}
		return val
	case float64:
		n := int(val)
		if n < 1 {
			return 1
		}
		return n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || n < 1 {
			return 1
		}
		return n
	default:
		return 1
	}
}
