package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

func main() {
	baseURL := os.Getenv("BRIDGE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if len(os.Args) < 3 {
		fmt.Println("Usage: send-message <name> <message>")
		os.Exit(1)
	}

	name := os.Args[1]
	message := os.Args[2]

	// Open the thread first: sending needs a conversation id, and
	// names are only resolvable against the latest snapshot.
	opened, err := execute(baseURL, "enter_conversation", map[string]interface{}{
		"target_name": name,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var target struct {
		ConversationID string `json:"conversation_id"`
		Name           string `json:"name"`
		Verified       bool   `json:"verified"`
	}
	if err := json.Unmarshal(opened, &target); err != nil || target.ConversationID == "" {
		fmt.Println("Error: could not resolve a conversation id for", name)
		os.Exit(1)
	}
	if !target.Verified {
		fmt.Printf("Warning: opened thread name could not be verified as %q\n", name)
	}

	if _, err := execute(baseURL, "send_message", map[string]interface{}{
		"conversation_id": target.ConversationID,
		"message":         message,
	}); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Message sent to %s\n", target.Name)
}

// execute runs one tool through the bridge and unwraps the result
// envelope. Envelope failures come back as errors with their code.
func execute(baseURL, tool string, args map[string]interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]interface{}{"tool": tool, "arguments": args})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(baseURL+"/api/execute", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("bridge not reachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	if !env.Success {
		if env.Error != nil {
			return nil, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
		return nil, fmt.Errorf("tool %s failed", tool)
	}
	return env.Result, nil
}
