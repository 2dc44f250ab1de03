// Package llm abstracts over large-language-model providers.
//
// The Provider interface is intentionally small: one blocking completion
// call. Provider selection, prompt construction, and auditing happen in the
// calling service, not here.
package llm

import (
	"context"
	"errors"
)

// Provider errors.
var (
	// ErrAPIKeyRequired indicates a provider was constructed without credentials.
	ErrAPIKeyRequired = errors.New("llm: api key is required")

	// ErrEmptyResponse indicates the provider returned no usable content.
	ErrEmptyResponse = errors.New("llm: empty response from provider")

	// ErrUnknownProvider indicates an unrecognized provider name.
	ErrUnknownProvider = errors.New("llm: unknown provider")
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a completion request.
type Request struct {
	// Messages is the conversation so far. System messages are extracted
	// or merged as each provider requires.
	Messages []Message

	// MaxTokens caps the response length. Providers apply their own
	// default when zero.
	MaxTokens int

	// Temperature controls sampling randomness. Zero means provider default.
	Temperature float64
}

// Response is a completion response.
type Response struct {
	// Content is the generated text.
	Content string

	// Model is the model that actually served the request.
	Model string

	// StopReason is the provider's stop reason, verbatim.
	StopReason string

	// TokensIn and TokensOut are usage counts when the provider reports
	// them, zero otherwise.
	TokensIn  int
	TokensOut int
}

// Provider is a single LLM backend.
type Provider interface {
	// Complete performs one blocking completion.
	Complete(ctx context.Context, req Request) (Response, error)

	// Name identifies the provider (e.g. "anthropic", "openai").
	Name() string
}

// DefaultMaxTokens is applied when a request does not set MaxTokens.
const DefaultMaxTokens = 4096
