package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/conf"
)

const (
	defaultModel = "gpt-4o"

	// A turn covers every tool round trip, and a single LinkedIn fetch
	// can take a while when the page is slow.
	turnTimeout = 5 * time.Minute
)

// agentRepo implements repo.AgentRepo on an OpenAI-compatible endpoint.
// Threads are kept in memory as chat histories; tool calls are routed
// through the broker and their results fed back into the conversation.
type agentRepo struct {
	client   *openai.Client
	model    string
	maxTurns int
	broker   repo.ToolBroker
	system   string

	eventsCh chan repo.Event

	mu      sync.Mutex
	threads map[string][]openai.ChatCompletionMessage
	stopped bool
}

// NewAgentRepo creates a new agent repository
func NewAgentRepo(cfg conf.AgentConfig, broker repo.ToolBroker, systemPrompt string) (repo.AgentRepo, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("agent API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 12
	}

	fmt.Printf("[Agent] Using model %s\n", model)

	return &agentRepo{
		client:   openai.NewClientWithConfig(config),
		model:    model,
		maxTurns: maxTurns,
		broker:   broker,
		system:   systemPrompt,
		eventsCh: make(chan repo.Event, 100),
		threads:  make(map[string][]openai.ChatCompletionMessage),
	}, nil
}

// CreateThread creates a new agent thread seeded with the system prompt
func (r *agentRepo) CreateThread(ctx context.Context) (string, error) {
	threadID := uuid.NewString()

	r.mu.Lock()
	r.threads[threadID] = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: r.system},
	}
	r.mu.Unlock()

	return threadID, nil
}

// StartTurn starts a conversation turn in the background. Progress and the
// final response arrive on the event channel.
func (r *agentRepo) StartTurn(ctx context.Context, threadID, prompt string) (string, error) {
	r.mu.Lock()
	_, ok := r.threads[threadID]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("thread not found: %s", threadID)
	}

	turnID := uuid.NewString()
	go r.runTurn(threadID, turnID, prompt)
	return turnID, nil
}

// ResumeThread checks that a thread still exists
func (r *agentRepo) ResumeThread(ctx context.Context, threadID string) error {
	r.mu.Lock()
	_, ok := r.threads[threadID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("thread not found: %s", threadID)
	}
	return nil
}

// Stop closes the event channel
func (r *agentRepo) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stopped {
		r.stopped = true
		close(r.eventsCh)
	}
}

// Events returns the event channel
func (r *agentRepo) Events() <-chan repo.Event {
	return r.eventsCh
}

// DebugConversation runs a complete turn synchronously for debugging.
// This bypasses the normal event channel.
func (r *agentRepo) DebugConversation(ctx context.Context, prompt string, timeout time.Duration) (string, string, error) {
	threadID, err := r.CreateThread(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to create thread: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	response, err := r.converse(ctx, threadID, "", prompt, false)
	return response, threadID, err
}

func (r *agentRepo) runTurn(threadID, turnID, prompt string) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	response, err := r.converse(ctx, threadID, turnID, prompt, true)
	if err != nil {
		fmt.Printf("[Agent] Turn failed: %v\n", err)
		r.emit(repo.Event{
			Type:     repo.EventTypeError,
			ThreadID: threadID,
			TurnID:   turnID,
			Data:     &repo.ErrorData{Error: err},
		})
		return
	}

	r.emit(repo.Event{
		Type:     repo.EventTypeTurnComplete,
		ThreadID: threadID,
		TurnID:   turnID,
		Data:     &repo.TurnCompleteData{Response: response},
	})
}

// converse drives the model until it answers without requesting tools,
// executing requested tools between rounds.
func (r *agentRepo) converse(ctx context.Context, threadID, turnID, prompt string, emitEvents bool) (string, error) {
	r.mu.Lock()
	history, ok := r.threads[threadID]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("thread not found: %s", threadID)
	}

	messages := append([]openai.ChatCompletionMessage(nil), history...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	lastText := ""
	for round := 0; round < r.maxTurns; round++ {
		tools := toOpenAITools(r.broker.Definitions(ctx))

		stream, err := r.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    r.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion stream: %w", err)
		}

		text, toolCalls, err := r.drainStream(stream, threadID, turnID, emitEvents)
		if err != nil {
			return "", err
		}
		if text != "" {
			lastText = text
		}

		assistant := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: text,
		}
		if len(toolCalls) > 0 {
			assistant.ToolCalls = toolCalls
		}
		messages = append(messages, assistant)

		if len(toolCalls) == 0 {
			r.saveHistory(threadID, messages)
			return text, nil
		}

		for _, call := range toolCalls {
			result := r.executeTool(ctx, call, threadID, turnID, emitEvents)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	r.saveHistory(threadID, messages)
	return lastText, fmt.Errorf("agent did not settle after %d tool rounds", r.maxTurns)
}

// drainStream consumes one streamed completion, forwarding content deltas
// and reassembling fragmented tool calls by index.
func (r *agentRepo) drainStream(stream *openai.ChatCompletionStream, threadID, turnID string, emitEvents bool) (string, []openai.ToolCall, error) {
	defer stream.Close()

	var text strings.Builder
	var toolCalls []openai.ToolCall

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("stream recv: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			text.WriteString(delta.Content)
			if emitEvents {
				r.emit(repo.Event{
					Type:     repo.EventTypeAgentDelta,
					ThreadID: threadID,
					TurnID:   turnID,
					Data:     &repo.AgentDeltaData{Delta: delta.Content},
				})
			}
		}

		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			for len(toolCalls) <= idx {
				toolCalls = append(toolCalls, openai.ToolCall{})
			}
			if tc.ID != "" {
				toolCalls[idx].ID = tc.ID
			}
			if tc.Type != "" {
				toolCalls[idx].Type = tc.Type
			}
			toolCalls[idx].Function.Name += tc.Function.Name
			toolCalls[idx].Function.Arguments += tc.Function.Arguments
		}
	}

	return text.String(), toolCalls, nil
}

// executeTool runs one tool call and returns the content to feed back to
// the model. Failures are returned as text so the model can react.
func (r *agentRepo) executeTool(ctx context.Context, call openai.ToolCall, threadID, turnID string, emitEvents bool) string {
	name := call.Function.Name

	args := map[string]interface{}{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			fmt.Printf("[Agent] Bad arguments for %s: %v\n", name, err)
			r.emitToolCall(threadID, turnID, name, false, emitEvents)
			return fmt.Sprintf("invalid tool arguments: %v", err)
		}
	}

	fmt.Printf("[Agent] Calling tool: %s\n", name)
	result, err := r.broker.Execute(ctx, name, args)
	r.emitToolCall(threadID, turnID, name, err == nil, emitEvents)
	if err != nil {
		fmt.Printf("[Agent] Tool %s failed: %v\n", name, err)
		// The broker encodes failures in its result envelope; fall back
		// to plain text only when there is none
		if result == "" {
			result = fmt.Sprintf("tool error: %v", err)
		}
	}
	return result
}

func (r *agentRepo) emitToolCall(threadID, turnID, name string, success bool, emitEvents bool) {
	if !emitEvents {
		return
	}
	r.emit(repo.Event{
		Type:     repo.EventTypeToolCall,
		ThreadID: threadID,
		TurnID:   turnID,
		Data:     &repo.ToolCallData{Name: name, Success: success},
	})
}

func (r *agentRepo) saveHistory(threadID string, messages []openai.ChatCompletionMessage) {
	r.mu.Lock()
	if _, ok := r.threads[threadID]; ok {
		r.threads[threadID] = messages
	}
	r.mu.Unlock()
}

func (r *agentRepo) emit(ev repo.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	select {
	case r.eventsCh <- ev:
	default:
		// Channel full, drop event
	}
}

func toOpenAITools(defs []repo.ToolDefinition) []openai.Tool {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]openai.Tool, len(defs))
	for i, def := range defs {
		tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}
	return tools
}
