package main

import (
	"fmt"

	"github.com/kadirpekel/formpilot/pkg/config"
)

// ValidateCmd parses a form file and reports whether it is well-formed.
type ValidateCmd struct {
	Form string `arg:"" name:"form" help:"Form file path." placeholder:"PATH" type:"path"`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	loader, err := config.NewFormLoader(c.Form)
	if err != nil {
		return err
	}

	def, err := loader.Load()
	if err != nil {
		fmt.Printf("INVALID: %v\n", err)
		return err
	}

	required := def.RequiredFieldIDs()
	fmt.Printf("OK: %q — %d field(s), %d required, %d step(s), %d tool(s)\n",
		def.Title, len(def.Fields), len(required), def.MaxStep(), len(def.Tools))
	for _, f := range def.Fields {
		marker := " "
		if f.Required {
			marker = "*"
		} else if f.Conditional {
			marker = "?"
		}
		fmt.Printf("  %s %-20s %-10s step %d\n", marker, f.ID, f.Type, f.Step)
	}
	return nil
}
