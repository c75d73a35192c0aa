package data

import (
	"context"
	"testing"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/conf"
)

type stubBroker struct{}

func (stubBroker) Definitions(ctx context.Context) []repo.ToolDefinition {
	return []repo.ToolDefinition{
		{
			Name:        "list_conversations",
			Description: "Fetch the inbox",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

func (stubBroker) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	return "{}", nil
}

func newTestAgentRepo(t *testing.T) repo.AgentRepo {
	t.Helper()
	r, err := NewAgentRepo(conf.AgentConfig{APIKey: "test-key"}, stubBroker{}, "system prompt")
	if err != nil {
		t.Fatalf("NewAgentRepo: %v", err)
	}
	return r
}

func TestAgentRepoRequiresAPIKey(t *testing.T) {
	_, err := NewAgentRepo(conf.AgentConfig{}, stubBroker{}, "system prompt")
	if err == nil {
		t.Fatal("Expected error without API key")
	}
}

func TestAgentThreadLifecycle(t *testing.T) {
	r := newTestAgentRepo(t)
	defer r.Stop()
	ctx := context.Background()

	threadID, err := r.CreateThread(ctx)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if threadID == "" {
		t.Fatal("Expected non-empty thread ID")
	}

	if err := r.ResumeThread(ctx, threadID); err != nil {
		t.Errorf("ResumeThread on existing thread: %v", err)
	}
	if err := r.ResumeThread(ctx, "no-such-thread"); err == nil {
		t.Error("Expected error resuming unknown thread")
	}

	if _, err := r.StartTurn(ctx, "no-such-thread", "hello"); err == nil {
		t.Error("Expected error starting turn on unknown thread")
	}
}

func TestAgentStopIsIdempotent(t *testing.T) {
	r := newTestAgentRepo(t)
	r.Stop()
	r.Stop()

	// Emitting after stop must not panic
	r.(*agentRepo).emit(repo.Event{Type: repo.EventTypeAgentDelta})
}

func TestToOpenAITools(t *testing.T) {
	defs := stubBroker{}.Definitions(context.Background())
	tools := toOpenAITools(defs)
	if len(tools) != 1 {
		t.Fatalf("Expected 1 tool, got %d", len(tools))
	}
	if tools[0].Function == nil || tools[0].Function.Name != "list_conversations" {
		t.Errorf("Expected function 'list_conversations', got %+v", tools[0].Function)
	}
	if toOpenAITools(nil) != nil {
		t.Error("Expected nil for empty definitions")
	}
}
