package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// LinkedInMCPServer exposes the bridge's messaging tools over MCP so
// external agent hosts can drive the browser session. Every tool call
// is relayed to the bridge process, which owns the browser.
type LinkedInMCPServer struct {
	server *mcp.Server
}

// ExecuteCallback relays one tool call to the bridge and returns the
// bridge's result envelope as JSON.
type ExecuteCallback func(ctx context.Context, tool string, args map[string]interface{}) (string, error)

// Callbacks holds the callback functions for MCP tools
type Callbacks struct {
	Execute ExecuteCallback
}

var (
	globalCallbacks *Callbacks
	serverMu        sync.Mutex
)

// NewServer creates a new LinkedIn MCP server
func NewServer(callbacks *Callbacks) *LinkedInMCPServer {
	serverMu.Lock()
	defer serverMu.Unlock()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "linkedin-tools",
		Version: "v1.0.0",
	}, nil)

	ls := &LinkedInMCPServer{server: server}
	globalCallbacks = callbacks

	ls.registerTools()

	return ls
}

// registerTools registers all LinkedIn messaging tools
func (s *LinkedInMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_conversations",
		Description: "Fetch the LinkedIn messaging inbox. Returns conversation previews (name, unread flag, last message snippet) plus a summary with total counts. Call this before enter_conversation; its conversation ids are what the other tools key off of.",
	}, handleListConversations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "enter_conversation",
		Description: "Open a conversation thread. Provide either target_name (exact participant name as returned by list_conversations) or conversation_id. Names matching several conversations are rejected as ambiguous.",
	}, handleEnterConversation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read_full_conversation",
		Description: "Read all visible messages of the currently open conversation, in order, with sender role and timestamps where available. Requires enter_conversation first.",
	}, handleReadFullConversation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "send_message",
		Description: "Send a message into a conversation. The conversation is entered first if it is not the currently open one. The message is sent as the account holder.",
	}, handleSendMessage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "start_new_conversation",
		Description: "Start a brand-new conversation with a connection by name and send the first message.",
	}, handleStartNewConversation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_login_status",
		Description: "Check whether a LinkedIn session is active, and report the logged-in account name when it is.",
	}, handleCheckLoginStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sign_out",
		Description: "Sign out of LinkedIn and wipe local conversation state. Only call when explicitly asked to.",
	}, handleSignOut)
}

// ToolOutput carries the bridge's result envelope back to the MCP host
type ToolOutput struct {
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Success bool            `json:"success"`
}

// forward relays a tool call through the configured callback and
// unpacks the bridge's result envelope.
func forward(ctx context.Context, tool string, args map[string]interface{}) ToolOutput {
	serverMu.Lock()
	callbacks := globalCallbacks
	serverMu.Unlock()

	if callbacks == nil || callbacks.Execute == nil {
		return ToolOutput{Success: false, Error: "callback not configured"}
	}

	raw, err := callbacks.Execute(ctx, tool, args)
	if raw == "" {
		if err != nil {
			return ToolOutput{Success: false, Error: err.Error()}
		}
		return ToolOutput{Success: false, Error: "empty response from bridge"}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Success bool `json:"success"`
	}
	if jsonErr := json.Unmarshal([]byte(raw), &envelope); jsonErr != nil {
		return ToolOutput{Success: false, Error: fmt.Sprintf("malformed bridge response: %v", jsonErr)}
	}

	out := ToolOutput{Result: envelope.Result, Success: envelope.Success}
	if envelope.Error != nil {
		out.Error = fmt.Sprintf("%s: %s", envelope.Error.Code, envelope.Error.Message)
	}
	return out
}

// ListConversationsInput is the input for the list_conversations tool
type ListConversationsInput struct {
	IncludeWords []string `json:"include_words,omitempty" jsonschema:"description=Only return conversations whose participant name or preview contains one of these words"`
	Limit        int      `json:"limit,omitempty" jsonschema:"description=Maximum number of conversations to process (default 30)"`
}

func handleListConversations(ctx context.Context, req *mcp.CallToolRequest, input ListConversationsInput) (*mcp.CallToolResult, ToolOutput, error) {
	args := map[string]interface{}{}
	if len(input.IncludeWords) > 0 {
		words := make([]interface{}, len(input.IncludeWords))
		for i, w := range input.IncludeWords {
			words[i] = w
		}
		args["include_words"] = words
	}
	if input.Limit > 0 {
		args["limit"] = input.Limit
	}
	return nil, forward(ctx, "list_conversations", args), nil
}

// EnterConversationInput is the input for the enter_conversation tool
type EnterConversationInput struct {
	TargetName     string `json:"target_name,omitempty" jsonschema:"description=Exact participant name as shown by list_conversations"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"description=Conversation id from a previous list_conversations call"`
}

func handleEnterConversation(ctx context.Context, req *mcp.CallToolRequest, input EnterConversationInput) (*mcp.CallToolResult, ToolOutput, error) {
	args := map[string]interface{}{}
	if input.TargetName != "" {
		args["target_name"] = input.TargetName
	}
	if input.ConversationID != "" {
		args["conversation_id"] = input.ConversationID
	}
	return nil, forward(ctx, "enter_conversation", args), nil
}

// ReadFullConversationInput is empty - the open conversation is read
type ReadFullConversationInput struct{}

func handleReadFullConversation(ctx context.Context, req *mcp.CallToolRequest, input ReadFullConversationInput) (*mcp.CallToolResult, ToolOutput, error) {
	return nil, forward(ctx, "read_full_conversation", nil), nil
}

// SendMessageInput is the input for the send_message tool
type SendMessageInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"description=Conversation id of the thread to message"`
	Message        string `json:"message" jsonschema:"description=The message text to send"`
}

func handleSendMessage(ctx context.Context, req *mcp.CallToolRequest, input SendMessageInput) (*mcp.CallToolResult, ToolOutput, error) {
	return nil, forward(ctx, "send_message", map[string]interface{}{
		"conversation_id": input.ConversationID,
		"message":         input.Message,
	}), nil
}

// StartNewConversationInput is the input for the start_new_conversation tool
type StartNewConversationInput struct {
	Recipient string `json:"recipient" jsonschema:"description=Name of the connection to message"`
	Message   string `json:"message" jsonschema:"description=The first message of the new thread"`
}

func handleStartNewConversation(ctx context.Context, req *mcp.CallToolRequest, input StartNewConversationInput) (*mcp.CallToolResult, ToolOutput, error) {
	return nil, forward(ctx, "start_new_conversation", map[string]interface{}{
		"recipient": input.Recipient,
		"message":   input.Message,
	}), nil
}

// CheckLoginStatusInput is empty - no input needed
type CheckLoginStatusInput struct{}

func handleCheckLoginStatus(ctx context.Context, req *mcp.CallToolRequest, input CheckLoginStatusInput) (*mcp.CallToolResult, ToolOutput, error) {
	return nil, forward(ctx, "check_login_status", nil), nil
}

// SignOutInput is empty - no input needed
type SignOutInput struct{}

func handleSignOut(ctx context.Context, req *mcp.CallToolRequest, input SignOutInput) (*mcp.CallToolResult, ToolOutput, error) {
	return nil, forward(ctx, "sign_out", nil), nil
}

// Run starts the MCP server with stdio transport
func (s *LinkedInMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetServer returns the underlying MCP server
func (s *LinkedInMCPServer) GetServer() *mcp.Server {
	return s.server
}
