package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kadirpekel/formpilot/pkg/transport"
)

const defaultAnthropicHost = "https://api.anthropic.com"
const anthropicVersion = "2023-06-01"

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	Host        string // defaults to defaultAnthropicHost
	MaxTokens   int     // defaults to 4096
	Temperature float64 // defaults to 1.0
	Timeout     time.Duration
}

// AnthropicProvider implements Provider against the Anthropic Messages API
// using a hand-rolled net/http client — no SDK dependency.
type AnthropicProvider struct {
	cfg    AnthropicConfig
	client *transport.Client
}

// NewAnthropicProvider builds a provider from cfg, filling in defaults.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: anthropic API key is required")
	}
	if cfg.Host == "" {
		cfg.Host = defaultAnthropicHost
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 1.0
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &AnthropicProvider{
		cfg: cfg,
		client: transport.New(
			transport.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			transport.WithMaxRetries(3),
			transport.WithBaseDelay(time.Second),
		),
	}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

// Invoke sends systemPrompt and messages to the Anthropic Messages API
// and returns the concatenated text content of the reply.
func (p *AnthropicProvider) Invoke(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	req := anthropicRequest{
		Model:       p.cfg.Model,
		System:      systemPrompt,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Messages:    toAnthropicMessages(messages),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("llm: marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Host+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm: anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: anthropic status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode anthropic response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm: anthropic API error: %s", parsed.Error.Message)
	}

	var text string
	for _, c := range parsed.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	return text, nil
}

// toAnthropicMessages maps the session's three-role history onto
// Anthropic's user/assistant wire roles. System-directive corrective
// messages — the guard loop's retry prompts — are sent as user turns,
// mirroring how the original implementation appended them as human
// messages mid-conversation.
func toAnthropicMessages(messages []Message) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "assistant"
		}
		out = append(out, anthropicMessage{Role: role, Content: m.Text})
	}
	return out
}
