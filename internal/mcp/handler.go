package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/usecase"
)

// Handler executes LinkedIn tool calls against the usecases. It is the
// single executor behind the agent loop, the IPC dispatch and the HTTP
// tool listing.
type Handler struct {
	usecases *biz.Usecases
}

// NewHandler creates a new tool handler
func NewHandler(usecases *biz.Usecases) *Handler {
	return &Handler{usecases: usecases}
}

// Envelope is the uniform tool result shape. Success is true exactly
// when Error is null.
type Envelope struct {
	Result  interface{}    `json:"result"`
	Error   *EnvelopeError `json:"error"`
	Success bool           `json:"success"`
}

// EnvelopeError carries a stable code plus a human-readable message
type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Definitions returns the tool table for the current authorization
// state, in the agent port shape.
func (h *Handler) Definitions(ctx context.Context) []repo.ToolDefinition {
	return AsBrokerDefinitions(h.CurrentDefinitions())
}

// CurrentDefinitions returns the tool table for the current
// authorization state.
func (h *Handler) CurrentDefinitions() []ToolDefinition {
	return ToolDefinitionsFor(h.usecases.Auth.Authorized())
}

// Execute runs one tool call and returns the JSON envelope. The error
// mirrors the envelope's error so callers can report success without
// parsing; the envelope itself is always well-formed.
func (h *Handler) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	result, err := h.dispatch(ctx, name, args)
	if err != nil {
		fmt.Printf("[Tools] %s failed: %v\n", name, err)
		if errors.Is(err, domain.ErrNotAuthorized) {
			h.usecases.Auth.MarkUnauthorized()
		}
	}

	envelope := Envelope{Result: result, Success: err == nil}
	if err != nil {
		envelope.Error = &EnvelopeError{
			Code:    domain.ErrorCode(err),
			Message: err.Error(),
		}
	}

	data, mErr := json.Marshal(envelope)
	if mErr != nil {
		return "", fmt.Errorf("marshal tool result: %w", mErr)
	}
	return string(data), err
}

func (h *Handler) dispatch(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	switch name {
	case "list_conversations":
		return h.handleListConversations(ctx, args)
	case "enter_conversation":
		return h.handleEnterConversation(ctx, args)
	case "read_full_conversation":
		return h.handleReadFullConversation(ctx, args)
	case "send_message":
		return h.handleSendMessage(ctx, args)
	case "start_new_conversation":
		return h.handleStartNewConversation(ctx, args)
	case "check_login_status":
		return h.handleCheckLoginStatus(ctx, args)
	case "sign_out":
		return h.handleSignOut(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (h *Handler) handleListConversations(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	limit := getIntArg(args, "limit", 30)
	includeWords := getStringSliceArg(args, "include_words")

	snap, err := h.usecases.Conversations.ListConversations(ctx, limit, includeWords)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"conversations": snap.Records,
		"summary":       snap.Summary,
		"generation":    snap.Generation,
	}, nil
}

func (h *Handler) handleEnterConversation(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	targetName := getStringArg(args, "target_name", "")
	conversationID := getStringArg(args, "conversation_id", "")

	var result *usecase.EnterResult
	var err error
	switch {
	case conversationID != "":
		result, err = h.usecases.Conversations.EnterByIdentity(ctx, conversationID)
	case targetName != "":
		result, err = h.usecases.Conversations.EnterByName(ctx, targetName)
	default:
		return nil, fmt.Errorf("target_name or conversation_id is required")
	}
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"entered":         true,
		"conversation_id": result.Record.Identity,
		"name":            result.Record.DisplayName,
		"clicked":         result.Clicked,
		"verified":        result.Verified,
		"url":             result.URL,
	}, nil
}

func (h *Handler) handleReadFullConversation(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	thread, err := h.usecases.Conversations.ReadConversation(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"conversation_id": thread.ConversationID,
		"name":            thread.Name,
		"url":             thread.URL,
		"messages":        thread.Messages,
		"message_count":   len(thread.Messages),
	}, nil
}

func (h *Handler) handleSendMessage(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	conversationID := getStringArg(args, "conversation_id", "")
	message := getStringArg(args, "message", "")
	if conversationID == "" {
		return nil, fmt.Errorf("conversation_id is required")
	}
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}

	if err := h.usecases.Compose.SendMessage(ctx, conversationID, message); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"sent":            true,
		"conversation_id": conversationID,
	}, nil
}

func (h *Handler) handleStartNewConversation(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	recipient := getStringArg(args, "recipient", "")
	message := getStringArg(args, "message", "")
	if recipient == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}

	if err := h.usecases.Compose.StartNewConversation(ctx, recipient, message); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"started":   true,
		"recipient": recipient,
	}, nil
}

func (h *Handler) handleCheckLoginStatus(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	status, err := h.usecases.Auth.CheckLoginStatus(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"logged_in":    status.LoggedIn,
		"account_name": status.AccountName,
		"url":          status.URL,
	}, nil
}

func (h *Handler) handleSignOut(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if err := h.usecases.Auth.SignOut(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{"signed_out": true}, nil
}

// ============ Helpers ============

func getStringArg(args map[string]interface{}, key, defaultValue string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return defaultValue
}

func getIntArg(args map[string]interface{}, key string, defaultValue int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	if v, ok := args[key].(int); ok {
		return v
	}
	return defaultValue
}

func getStringSliceArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
