package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
)

// Mock repositories

type mockMessagingRepo struct {
	names    []string
	fetchErr error
	sent     []string
}

func (m *mockMessagingRepo) FetchConversations(ctx context.Context, generation string, limit int) ([]*domain.ConversationRecord, int, error) {
	if m.fetchErr != nil {
		return nil, 0, m.fetchErr
	}
	total := len(m.names)
	count := total
	if limit < count {
		count = limit
	}
	var records []*domain.ConversationRecord
	for i := 0; i < count; i++ {
		records = append(records, &domain.ConversationRecord{
			Identity:    domain.SyntheticIdentity(generation, i),
			DisplayName: m.names[i],
			Origin:      domain.OriginDOM,
			Selectors:   domain.SelectorRef{Index: i},
		})
	}
	return records, total, nil
}

func (m *mockMessagingRepo) OpenConversation(ctx context.Context, rec *domain.ConversationRecord) (*repo.OpenResult, error) {
	return &repo.OpenResult{Clicked: true, Verified: true, URL: "https://www.linkedin.com/messaging/thread/abc/"}, nil
}

func (m *mockMessagingRepo) ReadThread(ctx context.Context) ([]*domain.MessageRecord, error) {
	return []*domain.MessageRecord{{SenderRole: domain.RoleCounterpart, Text: "Hi"}}, nil
}

func (m *mockMessagingRepo) SendToOpenThread(ctx context.Context, text string) error {
	m.sent = append(m.sent, text)
	return nil
}

func (m *mockMessagingRepo) StartConversation(ctx context.Context, recipient, text string) error {
	return nil
}

func (m *mockMessagingRepo) CheckLogin(ctx context.Context) (*repo.LoginStatus, error) {
	return &repo.LoginStatus{LoggedIn: true, AccountName: "Jane Doe"}, nil
}

func (m *mockMessagingRepo) SignOut(ctx context.Context) error {
	return nil
}

func (m *mockMessagingRepo) CurrentURL(ctx context.Context) (string, error) {
	return "https://www.linkedin.com/messaging/", nil
}

type mockSnapshotRepo struct {
	latest  *domain.Snapshot
	threads map[string]*domain.ThreadSnapshot
}

func (m *mockSnapshotRepo) ReplaceConversations(ctx context.Context, snap *domain.Snapshot) error {
	m.latest = snap
	return nil
}

func (m *mockSnapshotRepo) LatestConversations(ctx context.Context) (*domain.Snapshot, error) {
	return m.latest, nil
}

func (m *mockSnapshotRepo) SaveThread(ctx context.Context, t *domain.ThreadSnapshot) error {
	if m.threads == nil {
		m.threads = make(map[string]*domain.ThreadSnapshot)
	}
	m.threads[t.ConversationID] = t
	return nil
}

func (m *mockSnapshotRepo) Thread(ctx context.Context, conversationID string) (*domain.ThreadSnapshot, error) {
	return m.threads[conversationID], nil
}

func (m *mockSnapshotRepo) Clear(ctx context.Context) error {
	m.latest = nil
	m.threads = nil
	return nil
}

type mockVisitRepo struct{}

func (mockVisitRepo) Get(ctx context.Context, conversationID string) (*domain.Visit, error) {
	return nil, nil
}
func (mockVisitRepo) Save(ctx context.Context, visit *domain.Visit) error { return nil }
func (mockVisitRepo) RecordOpen(ctx context.Context, conversationID, name string) error {
	return nil
}
func (mockVisitRepo) RecordRead(ctx context.Context, conversationID string, messageCount int) error {
	return nil
}
func (mockVisitRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Visit, error) {
	return nil, nil
}
func (mockVisitRepo) CleanupStale(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}
func (mockVisitRepo) Close() error { return nil }

type parsedEnvelope struct {
	Result  map[string]interface{} `json:"result"`
	Error   *EnvelopeError         `json:"error"`
	Success bool                   `json:"success"`
}

func newTestHandler(messaging *mockMessagingRepo) (*Handler, *biz.Usecases) {
	usecases := biz.NewUsecases(messaging, &mockSnapshotRepo{}, mockVisitRepo{})
	return NewHandler(usecases), usecases
}

func parseEnvelope(t *testing.T, raw string) parsedEnvelope {
	t.Helper()
	var env parsedEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("Envelope is not valid JSON: %v\n%s", err, raw)
	}
	return env
}

// Tests

func TestExecute_SuccessEnvelope(t *testing.T) {
	handler, _ := newTestHandler(&mockMessagingRepo{names: []string{"Alice Chen", "Bob Smith"}})

	raw, err := handler.Execute(context.Background(), "list_conversations", map[string]interface{}{
		"limit": float64(10),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	env := parseEnvelope(t, raw)
	if !env.Success {
		t.Error("Expected success=true")
	}
	if env.Error != nil {
		t.Errorf("Expected null error, got %+v", env.Error)
	}
	summary, ok := env.Result["summary"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected summary in result, got %+v", env.Result)
	}
	if summary["total_processed"].(float64) != 2 {
		t.Errorf("Expected 2 processed, got %v", summary["total_processed"])
	}
}

func TestExecute_ErrorEnvelope(t *testing.T) {
	handler, _ := newTestHandler(&mockMessagingRepo{names: []string{"Alice Chen"}})
	ctx := context.Background()

	if _, err := handler.Execute(ctx, "list_conversations", nil); err != nil {
		t.Fatalf("list_conversations: %v", err)
	}

	raw, err := handler.Execute(ctx, "enter_conversation", map[string]interface{}{
		"target_name": "Carol Jones",
	})
	if err == nil {
		t.Fatal("Expected error for unknown name")
	}

	env := parseEnvelope(t, raw)
	if env.Success {
		t.Error("Expected success=false")
	}
	if env.Error == nil {
		t.Fatal("Expected error in envelope")
	}
	if env.Error.Code != "not_found" {
		t.Errorf("Expected code 'not_found', got '%s'", env.Error.Code)
	}
}

func TestExecute_AmbiguousCode(t *testing.T) {
	handler, _ := newTestHandler(&mockMessagingRepo{names: []string{"Alice Chen", "Alice Chen"}})
	ctx := context.Background()

	if _, err := handler.Execute(ctx, "list_conversations", nil); err != nil {
		t.Fatalf("list_conversations: %v", err)
	}

	raw, err := handler.Execute(ctx, "enter_conversation", map[string]interface{}{
		"target_name": "Alice Chen",
	})
	if err == nil {
		t.Fatal("Expected error for ambiguous name")
	}
	env := parseEnvelope(t, raw)
	if env.Error == nil || env.Error.Code != "ambiguous" {
		t.Errorf("Expected code 'ambiguous', got %+v", env.Error)
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	handler, _ := newTestHandler(&mockMessagingRepo{})

	raw, err := handler.Execute(context.Background(), "no_such_tool", nil)
	if err == nil {
		t.Fatal("Expected error for unknown tool")
	}
	env := parseEnvelope(t, raw)
	if env.Success {
		t.Error("Expected success=false")
	}
	if env.Error == nil || env.Error.Code != "error" {
		t.Errorf("Expected generic error code, got %+v", env.Error)
	}
}

func TestExecute_EnterRequiresTarget(t *testing.T) {
	handler, _ := newTestHandler(&mockMessagingRepo{})

	_, err := handler.Execute(context.Background(), "enter_conversation", nil)
	if err == nil {
		t.Fatal("Expected error without target_name or conversation_id")
	}
}

func TestToolTableShrinksWhenUnauthorized(t *testing.T) {
	handler, usecases := newTestHandler(&mockMessagingRepo{})

	full := handler.CurrentDefinitions()
	if len(full) != 7 {
		t.Fatalf("Expected 7 tools when authorized, got %d", len(full))
	}

	usecases.Auth.MarkUnauthorized()
	restricted := handler.CurrentDefinitions()
	if len(restricted) != 2 {
		t.Fatalf("Expected 2 tools when unauthorized, got %d", len(restricted))
	}
	names := map[string]bool{}
	for _, def := range restricted {
		names[def.Name] = true
	}
	if !names["check_login_status"] || !names["sign_out"] {
		t.Errorf("Expected auth tools only, got %v", names)
	}
}

func TestExecute_NotAuthorizedFlipsTable(t *testing.T) {
	messaging := &mockMessagingRepo{fetchErr: domain.ErrNotAuthorized}
	handler, _ := newTestHandler(messaging)

	raw, err := handler.Execute(context.Background(), "list_conversations", nil)
	if err == nil {
		t.Fatal("Expected not-authorized error")
	}
	env := parseEnvelope(t, raw)
	if env.Error == nil || env.Error.Code != "not_authorized" {
		t.Errorf("Expected code 'not_authorized', got %+v", env.Error)
	}

	if len(handler.CurrentDefinitions()) != 2 {
		t.Error("Expected restricted tool table after not-authorized failure")
	}
}

func TestDefinitionsMatchBrokerShape(t *testing.T) {
	handler, _ := newTestHandler(&mockMessagingRepo{})

	defs := handler.Definitions(context.Background())
	if len(defs) != 7 {
		t.Fatalf("Expected 7 broker definitions, got %d", len(defs))
	}
	for _, def := range defs {
		if def.Name == "" || def.Parameters == nil {
			t.Errorf("Incomplete definition: %+v", def)
		}
	}
}
