package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/formpilot/pkg/config"
	"github.com/kadirpekel/formpilot/pkg/engine"
	"github.com/kadirpekel/formpilot/pkg/llm"
	"github.com/kadirpekel/formpilot/pkg/logger"
	"github.com/kadirpekel/formpilot/pkg/payload"
	"github.com/kadirpekel/formpilot/pkg/session"
)

// RunCmd drives an interactive terminal session against a form,
// reading user replies from stdin and printing the engine's actions.
// Tool execution is out of scope (see spec Non-goals): a TOOL_CALL
// action is printed and ends the session, since nothing in this CLI
// can supply the corresponding tool result.
type RunCmd struct {
	Form string `arg:"" name:"form" help:"Form file path." placeholder:"PATH" type:"path"`

	APIKey      string        `name:"api-key" help:"Anthropic API key (defaults to $ANTHROPIC_API_KEY)."`
	Model       string        `help:"Model name." default:"claude-sonnet-4-20250514"`
	BaseURL     string        `name:"base-url" help:"Custom API base URL."`
	Temperature float64       `help:"Sampling temperature." default:"1.0"`
	MaxTokens   int           `name:"max-tokens" help:"Max tokens per LLM call." default:"4096"`
	Timeout     time.Duration `help:"Per-call provider timeout." default:"60s"`
	Watch       bool          `help:"Watch the form file and reload on change between turns."`
}

func (c *RunCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionID := uuid.NewString()
	log := logger.WithSession(slog.Default(), sessionID)
	log.Info("starting session", "form", c.Form)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	apiKey := c.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("run: an Anthropic API key is required (--api-key or $ANTHROPIC_API_KEY)")
	}

	provider, err := llm.NewAnthropicProvider(llm.AnthropicConfig{
		APIKey:      apiKey,
		Model:       c.Model,
		Host:        c.BaseURL,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	})
	if err != nil {
		return err
	}

	metrics := llm.NewMetrics("formpilot")
	caller := llm.NewGuardedCaller(provider, metrics)
	eng := engine.New(caller)

	loader, err := config.NewFormLoader(c.Form)
	if err != nil {
		return err
	}
	defer loader.Close()

	def, err := loader.Load()
	if err != nil {
		return err
	}

	var reloadCh <-chan struct{}
	if c.Watch {
		reloadCh, err = loader.Watch(ctx)
		if err != nil {
			return err
		}
	}

	sess := session.New(def)
	scanner := bufio.NewScanner(os.Stdin)

	runTurn := func(input engine.TurnInput) bool {
		action, newSess := eng.Step(ctx, sess, input)
		sess = newSess
		return printAction(action)
	}

	if !runTurn(engine.TurnInput{}) {
		return nil
	}

	for {
		if c.Watch {
			select {
			case _, ok := <-reloadCh:
				if ok {
					fmt.Println("[form definition changed on disk, restarting session]")
					if newDef, err := loader.Load(); err == nil {
						def = newDef
						sess = session.New(def)
						if !runTurn(engine.TurnInput{}) {
							return nil
						}
					} else {
						log.Error("failed to reload form", "error", err)
					}
				}
			default:
			}
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()
		if line == "exit" || line == "quit" {
			return nil
		}

		if !runTurn(engine.TurnInput{UserMessage: line}) {
			return nil
		}
	}
}

// printAction prints the engine's outbound action to stdout. It returns
// false when the session has reached a terminal state (form complete or
// a tool call this CLI cannot execute).
func printAction(action *payload.Payload) bool {
	if action == nil {
		fmt.Println("[no response]")
		return false
	}

	switch action.Action {
	case payload.ActionFormComplete:
		fmt.Println(action.Message)
		data, _ := json.MarshalIndent(action.Data, "", "  ")
		fmt.Println(string(data))
		return false

	case payload.ActionToolCall:
		fmt.Printf("[tool call requested: %s — no executor wired, ending session]\n", action.ToolName)
		return false

	case payload.ActionAskDropdown, payload.ActionAskCheckbox:
		fmt.Println(action.Message)
		if len(action.Options) > 0 {
			fmt.Printf("  options: %v\n", action.Options)
		}
		return true

	default:
		fmt.Println(action.Message)
		return true
	}
}
