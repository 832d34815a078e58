// Package engine implements the per-turn state graph: a router that
// picks the entry node from session state and turn input, seven node
// functions each returning a partial session.Update plus the node to
// chain to next, and the Step entrypoint that applies each node's
// update to the session immediately (LangGraph's per-node reducer
// application) so later nodes in the same turn observe earlier ones.
package engine

import (
	"context"

	"github.com/kadirpekel/formpilot/pkg/llm"
	"github.com/kadirpekel/formpilot/pkg/payload"
	"github.com/kadirpekel/formpilot/pkg/session"
)

// H_MAX bounds how many recent history entries the conversation node
// includes as LLM messages. The original implementation's equivalent
// constant was MAX_HISTORY_MESSAGES = 30; spec.md names H_MAX but
// leaves it unspecified, so that value is carried over here.
const hMax = 30

// ToolResult is a single tool invocation result handed back by the
// host transport, per the "tool_result" external interface.
type ToolResult struct {
	ToolName string
	Result   map[string]interface{}
}

// TurnInput is the per-turn input the transport supplies to Step.
type TurnInput struct {
	UserMessage string
	ToolResults []ToolResult
}

// Engine drives the node graph for a single form definition's sessions.
// It holds nothing session-specific — a single Engine can service many
// concurrent sessions, provided the transport serializes turns per
// session id (§5).
type Engine struct {
	Caller *llm.GuardedCaller
}

// New builds an Engine around a guarded LLM caller.
func New(caller *llm.GuardedCaller) *Engine {
	return &Engine{Caller: caller}
}

// Step runs exactly one turn: route to an entry node, then follow the
// chain of nodes each node hands off to, applying the reducer after
// every node so later nodes in the chain see earlier ones' updates.
// Returns the outbound action and the new session snapshot; the
// argument session is never mutated.
func (e *Engine) Step(ctx context.Context, sess *session.Session, input TurnInput) (*payload.Payload, *session.Session) {
	cur := session.Apply(sess, session.Update{})
	cur.ResetEphemeral()

	node := route(cur, input)

	for node != nodeEnd {
		var upd session.Update
		var next nodeName

		switch node {
		case nodeGreeting:
			upd = runGreeting(cur)
			next = nodeEnd
		case nodeToolHandler:
			upd = runToolHandler(cur, input)
			next = nodeConversation
		case nodeStepConfirmation:
			upd, next = runStepConfirmation(cur, input)
		case nodeValidation:
			upd = runValidation(cur, input)
			next = nodeConversation
		case nodeExtraction:
			upd, next = runExtraction(ctx, e.Caller, cur, input)
		case nodeConversation:
			upd, next = runConversation(ctx, e.Caller, cur, input)
		case nodeFinalize:
			upd = runFinalize(cur)
			next = nodeEnd
		default:
			next = nodeEnd
		}

		cur = session.Apply(cur, upd)
		node = next
	}

	return cur.Action, cur
}
