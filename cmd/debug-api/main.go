package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	baseURL := os.Getenv("BRIDGE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	// With a name argument, open that thread first. Without one, dump
	// whatever thread is currently open in the browser.
	if len(os.Args) > 1 {
		name := os.Args[1]
		opened, err := execute(baseURL, "enter_conversation", map[string]interface{}{
			"target_name": name,
		})
		if err != nil {
			fmt.Printf("Failed to open %q: %v\n", name, err)
			return
		}
		var target struct {
			Name     string `json:"name"`
			Verified bool   `json:"verified"`
		}
		json.Unmarshal(opened, &target)
		fmt.Printf("Opened: %s (verified=%v)\n\n", target.Name, target.Verified)
	}

	fmt.Println("=== Extracted thread, chronological order ===")
	dumpOpenThread(baseURL)
}

func dumpOpenThread(baseURL string) {
	result, err := execute(baseURL, "read_full_conversation", nil)
	if err != nil {
		fmt.Printf("Read failed: %v\n", err)
		return
	}

	var thread struct {
		ConversationID string `json:"conversation_id"`
		Name           string `json:"name"`
		Messages       []struct {
			SenderRole string     `json:"sender_role"`
			Sender     string     `json:"sender"`
			Text       string     `json:"text"`
			Timestamp  *time.Time `json:"timestamp"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(result, &thread); err != nil {
		fmt.Printf("Failed to parse thread: %v\n", err)
		return
	}

	fmt.Printf("Thread %s (%s): %d messages\n", thread.Name, thread.ConversationID, len(thread.Messages))
	for i, m := range thread.Messages {
		// A nil timestamp means the extractor saw no usable date and
		// time fragments before this message, which is worth seeing
		// here as-is.
		when := "no timestamp"
		if m.Timestamp != nil {
			when = m.Timestamp.Format("2006-01-02 15:04")
		}

		sender := m.Sender
		if sender == "" {
			sender = m.SenderRole
		}

		text := m.Text
		if len(text) > 50 {
			text = text[:50] + "..."
		}

		fmt.Printf("  %d. [%s] %s: %s\n", i+1, when, sender, text)
	}
}

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
