package mcp

import "github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"

// ToolDefinition represents a LinkedIn tool definition
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tool definitions
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "list_conversations",
			Description: "Fetch the LinkedIn messaging inbox. Returns conversation previews (name, unread flag, last message snippet) plus a summary with total counts. Call this before enter_conversation; its conversation ids are what the other tools key off of.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_words": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Only return conversations whose participant name contains one of these words (case-insensitive)",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of conversations to process (default 30)",
					},
				},
			},
		},
		{
			Name:        "enter_conversation",
			Description: "Open a conversation thread. Provide either target_name (exact participant name as returned by list_conversations) or conversation_id. Names matching several conversations are rejected as ambiguous.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"target_name": map[string]interface{}{
						"type":        "string",
						"description": "Exact display name of the conversation to open",
					},
					"conversation_id": map[string]interface{}{
						"type":        "string",
						"description": "Conversation id from list_conversations (preferred when known)",
					},
				},
			},
		},
		{
			Name:        "read_full_conversation",
			Description: "Read all visible messages of the currently open conversation, in order, with sender role and timestamps where available. Requires enter_conversation first.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "send_message",
			Description: "Send a message into a conversation. The conversation is entered first if it is not the currently open one. The message is sent as the account holder.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"conversation_id": map[string]interface{}{
						"type":        "string",
						"description": "Conversation id from list_conversations",
					},
					"message": map[string]interface{}{
						"type":        "string",
						"description": "The message text to send",
					},
				},
				"required": []string{"conversation_id", "message"},
			},
		},
		{
			Name:        "start_new_conversation",
			Description: "Start a brand-new conversation with a connection by name and send the first message.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"recipient": map[string]interface{}{
						"type":        "string",
						"description": "Name of the connection to message",
					},
					"message": map[string]interface{}{
						"type":        "string",
						"description": "The first message text",
					},
				},
				"required": []string{"recipient", "message"},
			},
		},
		{
			Name:        "check_login_status",
			Description: "Check whether a LinkedIn session is active, and report the logged-in account name when it is.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "sign_out",
			Description: "Sign out of LinkedIn and wipe local conversation state. Only call when explicitly asked to.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// authToolNames are the tools still offered without an active session
var authToolNames = map[string]bool{
	"check_login_status": true,
	"sign_out":           true,
}

// ToolDefinitionsFor returns the tool table for the given authorization
// state. Without a session only the auth tools are offered.
func ToolDefinitionsFor(authorized bool) []ToolDefinition {
	all := GetToolDefinitions()
	if authorized {
		return all
	}
	var restricted []ToolDefinition
	for _, def := range all {
		if authToolNames[def.Name] {
			restricted = append(restricted, def)
		}
	}
	return restricted
}

// AsBrokerDefinitions converts the table to the repo port shape consumed
// by the agent loop.
func AsBrokerDefinitions(defs []ToolDefinition) []repo.ToolDefinition {
	out := make([]repo.ToolDefinition, len(defs))
	for i, def := range defs {
		out[i] = repo.ToolDefinition{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.InputSchema,
		}
	}
	return out
}
