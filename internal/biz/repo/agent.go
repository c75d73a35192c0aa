package repo

import (
	"context"
	"time"
)

// AgentRepo is the LLM agent interface.
type AgentRepo interface {
	// CreateThread creates a new agent thread
	CreateThread(ctx context.Context) (threadID string, err error)

	// StartTurn starts a conversation turn
	StartTurn(ctx context.Context, threadID, prompt string) (turnID string, err error)

	// ResumeThread resumes a thread (checks it still exists)
	ResumeThread(ctx context.Context, threadID string) error

	// Stop stops the agent client
	Stop()

	// Events gets the event channel
	Events() <-chan Event

	// DebugConversation runs a complete turn synchronously for debugging
	DebugConversation(ctx context.Context, prompt string, timeout time.Duration) (response string, threadID string, err error)
}

// Event represents an agent event
type Event struct {
	Type     EventType
	ThreadID string
	TurnID   string
	Data     interface{}
}

// EventType represents the event type
type EventType string

const (
	EventTypeAgentDelta   EventType = "agent_delta"
	EventTypeToolCall     EventType = "tool_call"
	EventTypeTurnComplete EventType = "turn_complete"
	EventTypeError        EventType = "error"
)

// AgentDeltaData represents delta/incremental data
type AgentDeltaData struct {
	Delta string
}

// ToolCallData reports one executed tool call within a turn
type ToolCallData struct {
	Name    string
	Success bool
}

// TurnCompleteData represents completion data
type TurnCompleteData struct {
	Response string
}

// ErrorData represents error data
type ErrorData struct {
	Error error
}

// ToolDefinition describes one callable tool in JSON-schema terms.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolBroker exposes the tool surface the agent calls during a turn.
// Definitions may change between turns (the set depends on authorization
// state), so it is consulted per request.
type ToolBroker interface {
	Definitions(ctx context.Context) []ToolDefinition
	Execute(ctx context.Context, name string, args map[string]interface{}) (string, error)
}
