package payload

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/multi_answer.schema.json
var multiAnswerSchemaJSON string

//go:embed schemas/message.schema.json
var messageSchemaJSON string

//go:embed schemas/ask_simple.schema.json
var askSimpleSchemaJSON string

//go:embed schemas/ask_options.schema.json
var askOptionsSchemaJSON string

//go:embed schemas/tool_call.schema.json
var toolCallSchemaJSON string

//go:embed schemas/form_complete.schema.json
var formCompleteSchemaJSON string

type schemaSet struct {
	multiAnswer  *jsonschema.Schema
	message      *jsonschema.Schema
	askSimple    *jsonschema.Schema
	askOptions   *jsonschema.Schema
	toolCall     *jsonschema.Schema
	formComplete *jsonschema.Schema
}

func compileSchemas() (*schemaSet, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	resources := map[string]string{
		"multi_answer.schema.json":  multiAnswerSchemaJSON,
		"message.schema.json":       messageSchemaJSON,
		"ask_simple.schema.json":    askSimpleSchemaJSON,
		"ask_options.schema.json":   askOptionsSchemaJSON,
		"tool_call.schema.json":     toolCallSchemaJSON,
		"form_complete.schema.json": formCompleteSchemaJSON,
	}
	for name, body := range resources {
		if err := compiler.AddResource(name, strings.NewReader(body)); err != nil {
			return nil, fmt.Errorf("payload: add schema %s: %w", name, err)
		}
	}

	compiled := func(name string) (*jsonschema.Schema, error) {
		s, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("payload: compile schema %s: %w", name, err)
		}
		return s, nil
	}

	set := &schemaSet{}
	var err error
	if set.multiAnswer, err = compiled("multi_answer.schema.json"); err != nil {
		return nil, err
	}
	if set.message, err = compiled("message.schema.json"); err != nil {
		return nil, err
	}
	if set.askSimple, err = compiled("ask_simple.schema.json"); err != nil {
		return nil, err
	}
	if set.askOptions, err = compiled("ask_options.schema.json"); err != nil {
		return nil, err
	}
	if set.toolCall, err = compiled("tool_call.schema.json"); err != nil {
		return nil, err
	}
	if set.formComplete, err = compiled("form_complete.schema.json"); err != nil {
		return nil, err
	}
	return set, nil
}

var globalSchemas *schemaSet

func init() {
	set, err := compileSchemas()
	if err != nil {
		// The schemas are embedded and fixed at build time; a compile
		// failure here means the package itself is broken.
		panic(err)
	}
	globalSchemas = set
}
