// File: internal/mcp/types.go
package mcp

import (
	"context"

	"github.com/xkilldash9x/otto-cli/internal/agent"
)

// CommandRequest is one tool call posted by an external agent runtime.
type CommandRequest struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

// CommandResponse is the envelope of every API reply.
type CommandResponse struct {
	Status string `json:"status"` // "success" or "error"
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Conversation is a running dialogue that can be fed prompts.
type Conversation interface {
	Send(ctx context.Context, prompt string, progress agent.Progress) (string, error)
}

// ConversationFactory starts a conversation for a new chat connection.
type ConversationFactory func() (Conversation, error)
