// Package llm provides clients for chat-completion services used to generate
// advice text. Every backend speaks the same small request/response shape.
package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Choice is one generated alternative.
type Choice struct {
	Index   int     `json:"index"`
	Message Message `json:"message"`
}

// Response is a chat completion reply.
type Response struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
}

// FirstText returns the content of the first choice, or "" if there is none.
func (r *Response) FirstText() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Completer sends one completion request. Implementations return
// *StatusError when the service answered with a failure status and any
// other error when the service could not be reached or understood.
type Completer interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is a reachable-but-failing reply from the completion service.
// Body holds the response body verbatim for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion service returned status %d", e.StatusCode)
}
