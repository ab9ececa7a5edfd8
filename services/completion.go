package services

import (
	"context"
	"errors"
)

var (
	// ErrTransport covers network failures and non-2xx answers from the provider.
	ErrTransport = errors.New("completion transport failure")
	// ErrMalformed means the reply text did not contain a parseable analysis.
	ErrMalformed = errors.New("malformed completion response")
)

// Message is one chat turn of the outbound request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OutboundCall describes the single request sent to the completion endpoint.
// It is pure data; a Completer performs the I/O.
type OutboundCall struct {
	Endpoint  string    `json:"-"`
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

// Prompt returns the content of the user message.
func (c OutboundCall) Prompt() string {
	for _, m := range c.Messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}

const SegmentText = "text"

// ContentSegment is one element of the response's content array. Only
// segments of kind "text" carry analysis output.
type ContentSegment struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type CompletionResponse struct {
	Content []ContentSegment `json:"content"`
}

// Completer sends one call to a completion endpoint and returns its raw
// response. Implementations must not retry.
type Completer interface {
	Complete(ctx context.Context, call OutboundCall) (*CompletionResponse, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, call OutboundCall) (*CompletionResponse, error)

func (f CompleterFunc) Complete(ctx context.Context, call OutboundCall) (*CompletionResponse, error) {
	return f(ctx, call)
}
