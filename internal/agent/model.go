// Package agent runs a text dialogue with a hosted model that drives the
// desktop through the tool registry using function calling.
package agent

import (
	"context"
	"errors"

	"github.com/xkilldash9x/otto-cli/internal/tools"
)

var (
	// ErrNoAPIKey is returned when the agent is started without a model key.
	ErrNoAPIKey = errors.New("agent: no model API key configured")
	// ErrToolRoundsExceeded is returned when the model keeps calling tools
	// past the configured round limit.
	ErrToolRoundsExceeded = errors.New("agent: tool round limit reached")
	// ErrEmptyReply is returned when the model produced neither text nor calls.
	ErrEmptyReply = errors.New("agent: model returned an empty reply")
)

// Role is the speaker of a history entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ToolCall is one function call requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args tools.Args
}

// ToolResult is the report sent back for a ToolCall.
type ToolResult struct {
	CallID string
	Name   string
	Report string
	Failed bool
}

// Message is one entry of the conversation. A model message may carry
// calls; the user message that follows it carries their results.
type Message struct {
	Role    Role
	Text    string
	Calls   []ToolCall
	Results []ToolResult
}

// Request is everything the model sees for one turn.
type Request struct {
	Instructions string
	History      []Message
	Tools        []tools.Tool
}

// Reply is the model's answer: text, calls, or both.
type Reply struct {
	Text  string
	Calls []ToolCall
}

// Model generates the next reply of a conversation.
type Model interface {
	Generate(ctx context.Context, req Request) (Reply, error)
}

// DefaultInstructions is the system prompt used when none is configured.
const DefaultInstructions = `You are Otto, an assistant that controls the user's computer.
You can open applications, click, type, press keys and manage windows.

Before acting, capture the screen and describe what you see. Break larger tasks
into small steps and confirm significant actions with the user first. Every
action tool returns a screenshot from before and after the action; compare them
to decide whether the action worked.

When an action did not have the intended effect, say so and recover with one of
undo_last_action, try_alternate_action, navigate_to_previous_state or
retry_with_delay, then check the screen again. Use compare_screenshots when you
need a numeric judgement of whether the screen changed.

Keep replies short, friendly and in plain English.`
