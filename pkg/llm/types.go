// Package llm defines the model-collaborator contract used by the
// conversation engine: a small Provider interface, the Anthropic
// Messages API transport that implements it, and the JSON-extraction
// guard loop that turns raw model text into a validated payload.
package llm

import "context"

// Role is one of the three roles the session history tracks. Anthropic's
// wire protocol only distinguishes user/assistant; RoleSystemDirective
// messages (corrective guard retries) are sent to the transport as user
// turns, the same way the original implementation appended them as
// human messages mid-conversation.
type Role string

const (
	RoleUser            Role = "user"
	RoleAssistant       Role = "assistant"
	RoleSystemDirective Role = "system-directive"
)

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role Role
	Text string
}

// Provider is the minimal contract the guard loop depends on. A
// conversation is a system prompt plus an ordered message sequence;
// Invoke returns the raw (unparsed) model text.
type Provider interface {
	Invoke(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}
