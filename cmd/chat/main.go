// Command chat is an interactive terminal client for the bridge. Each
// line you type becomes an agent turn streamed back over SSE; /open
// jumps straight into a conversation without going through the agent.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const historyFile = "chat_history.json"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func main() {
	baseURL := os.Getenv("BRIDGE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if err := ping(baseURL); err != nil {
		fmt.Printf("Error: bridge not reachable at %s: %v\n", baseURL, err)
		fmt.Println("Start it first: go run ./cmd/bridge")
		os.Exit(1)
	}

	// Fresh session per run: the bridge keys its agent thread on this.
	sessionID := uuid.NewString()
	history := loadHistory()
	if len(history) > 0 {
		fmt.Printf("Loaded %d earlier messages from %s\n", len(history), historyFile)
	}

	fmt.Printf("Connected to %s\n", baseURL)
	fmt.Println("Type a message, '/open <name>' to open a conversation directly, '/reset' to start over, or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if strings.HasPrefix(line, "/open") {
			openConversation(baseURL, scanner, strings.TrimSpace(strings.TrimPrefix(line, "/open")))
			continue
		}
		if line == "/reset" {
			history = resetSession(baseURL, sessionID, history)
			continue
		}

		history = append(history, chatMessage{Role: "user", Content: line})
		saveHistory(history)

		fmt.Print("\nAssistant: ")
		reply, err := streamPrompt(baseURL, sessionID, history)
		fmt.Println()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		if reply != "" {
			history = append(history, chatMessage{Role: "assistant", Content: reply})
			saveHistory(history)
		}
	}

	fmt.Println("Bye.")
}

// resetSession drops the server-side agent thread and the local
// history together, so the next turn starts from nothing on both ends.
// On failure the existing history is kept as is.
func resetSession(baseURL, sessionID string, history []chatMessage) []chatMessage {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/reset-session", nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return history
	}
	req.Header.Set("X-Session-Id", sessionID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return history
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("Error: status %d: %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		return history
	}

	saveHistory(nil)
	fmt.Println("Session reset.")
	return nil
}

// ping checks the bridge is up before entering the loop.
func ping(baseURL string) error {
	resp, err := http.Post(baseURL+"/prompt", "application/json", strings.NewReader(`{"ping": true}`))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// streamPrompt posts the full history and prints deltas as they
// arrive. Returns the assembled assistant reply.
func streamPrompt(baseURL, sessionID string, history []chatMessage) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{"messages": history})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/prompt", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", sessionID)

	// DefaultClient has no timeout; an agent turn with tool calls can
	// legitimately stream for minutes.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var reply strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	// The trailing chunk can carry a whole response, which may exceed
	// the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk struct {
			Message string `json:"message"`
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Message != "" {
			return reply.String(), fmt.Errorf("%s", chunk.Message)
		}
		for _, c := range chunk.Choices {
			if c.Delta.Content != "" {
				fmt.Print(c.Delta.Content)
				reply.WriteString(c.Delta.Content)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return reply.String(), err
	}
	return reply.String(), nil
}

// openConversation drives the enter_conversation tool directly. When
// the name is ambiguous it lists the candidates and asks for a pick,
// then retries with the chosen conversation id.
func openConversation(baseURL string, scanner *bufio.Scanner, name string) {
	if name == "" {
		fmt.Println("Usage: /open <name>")
		return
	}

	env, err := executeTool(baseURL, "enter_conversation", map[string]interface{}{"target_name": name})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if env.Success {
		printOpenResult(env.Result)
		return
	}
	if env.Error == nil || env.Error.Code != "ambiguous" {
		fmt.Printf("Error: %s\n", envelopeMessage(env))
		return
	}

	matches, err := fetchMatches(baseURL, name)
	if err != nil || len(matches) == 0 {
		fmt.Printf("Error: %s\n", envelopeMessage(env))
		return
	}

	fmt.Printf("Multiple conversations match %q:\n", name)
	for i, m := range matches {
		marker := "  "
		if m.Unread {
			marker = "* "
		}
		activity := m.LastActivity
		if activity == "" {
			activity = "no time"
		}
		fmt.Printf("%d. %s%s (%s)\n", i+1, marker, m.DisplayName, activity)
		if m.Group.IsGroup {
			fmt.Printf("   Group chat with %d participants\n", m.Group.ParticipantCount)
		}
	}

	fmt.Print("Enter a number to choose (or press Enter to cancel): ")
	if !scanner.Scan() {
		return
	}
	choice := strings.TrimSpace(scanner.Text())
	if choice == "" {
		return
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(matches) {
		fmt.Println("Invalid selection")
		return
	}

	env, err = executeTool(baseURL, "enter_conversation", map[string]interface{}{
		"conversation_id": matches[idx-1].Identity,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !env.Success {
		fmt.Printf("Error: %s\n", envelopeMessage(env))
		return
	}
	printOpenResult(env.Result)
}

func printOpenResult(result json.RawMessage) {
	var opened struct {
		Name     string `json:"name"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(result, &opened); err != nil || opened.Name == "" {
		fmt.Println("Conversation opened.")
		return
	}
	fmt.Printf("Opened conversation with %s\n", opened.Name)
	if !opened.Verified {
		fmt.Println("Warning: the opened thread's name could not be verified")
	}
}

type toolEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Success bool `json:"success"`
}

func envelopeMessage(env *toolEnvelope) string {
	if env.Error == nil {
		return "unknown error"
	}
	return env.Error.Message
}

func executeTool(baseURL, tool string, args map[string]interface{}) (*toolEnvelope, error) {
	payload, err := json.Marshal(map[string]interface{}{"tool": tool, "arguments": args})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(baseURL+"/api/execute", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env toolEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	return &env, nil
}

type conversationView struct {
	Identity     string `json:"identity"`
	DisplayName  string `json:"display_name"`
	Unread       bool   `json:"unread"`
	LastActivity string `json:"last_activity"`
	Group        struct {
		IsGroup          bool `json:"is_group"`
		ParticipantCount int  `json:"participant_count"`
	} `json:"group_metadata"`
}

// fetchMatches pulls the latest snapshot and keeps the records whose
// name matches exactly. The snapshot is the same one the ambiguous
// lookup just ran against.
func fetchMatches(baseURL, name string) ([]conversationView, error) {
	resp, err := http.Get(baseURL + "/api/conversations")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Snapshot struct {
			Conversations []conversationView `json:"conversations"`
		} `json:"snapshot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var matches []conversationView
	want := strings.TrimSpace(name)
	for _, c := range payload.Snapshot.Conversations {
		if strings.TrimSpace(c.DisplayName) == want {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func loadHistory() []chatMessage {
	data, err := os.ReadFile(historyFile)
	if err != nil {
		return nil
	}
	var history []chatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		fmt.Printf("Warning: ignoring unreadable %s: %v\n", historyFile, err)
		return nil
	}
	return history
}

func saveHistory(history []chatMessage) {
	if history == nil {
		history = []chatMessage{}
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(historyFile, data, 0644); err != nil {
		fmt.Printf("Warning: could not save %s: %v\n", historyFile, err)
	}
}
