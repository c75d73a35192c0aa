package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/conf"
	"github.com/anthropics/linkedin-agent-bridge/internal/mcp"
	"github.com/anthropics/linkedin-agent-bridge/internal/service"
)

// Mock implementations

type scriptedAgent struct {
	mu        sync.Mutex
	events    chan repo.Event
	threadSeq int
	script    func(threadID, turnID string)
}

func newScriptedAgent() *scriptedAgent {
	return &scriptedAgent{events: make(chan repo.Event, 16)}
}

func (a *scriptedAgent) CreateThread(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threadSeq++
	return fmt.Sprintf("thread-%d", a.threadSeq), nil
}

func (a *scriptedAgent) StartTurn(ctx context.Context, threadID, prompt string) (string, error) {
	if a.script != nil {
		a.script(threadID, "turn-1")
	}
	return "turn-1", nil
}

func (a *scriptedAgent) ResumeThread(ctx context.Context, threadID string) error { return nil }

func (a *scriptedAgent) Stop() {}

func (a *scriptedAgent) Events() <-chan repo.Event { return a.events }

func (a *scriptedAgent) DebugConversation(ctx context.Context, prompt string, timeout time.Duration) (string, string, error) {
	return "debug: " + prompt, "thread-debug", nil
}

func (a *scriptedAgent) emit(threadID, turnID string, eventType repo.EventType, data interface{}) {
	a.events <- repo.Event{Type: eventType, ThreadID: threadID, TurnID: turnID, Data: data}
}

func (a *scriptedAgent) createdCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.threadSeq
}

type apiMessagingRepo struct {
	names []string
	login repo.LoginStatus
}

func (m *apiMessagingRepo) FetchConversations(ctx context.Context, generation string, limit int) ([]*domain.ConversationRecord, int, error) {
	var records []*domain.ConversationRecord
	for i, name := range m.names {
		if i >= limit {
			break
		}
		records = append(records, &domain.ConversationRecord{
			Identity:    domain.SyntheticIdentity(generation, i),
			DisplayName: name,
		})
	}
	return records, len(m.names), nil
}

func (m *apiMessagingRepo) OpenConversation(ctx context.Context, rec *domain.ConversationRecord) (*repo.OpenResult, error) {
	return &repo.OpenResult{Clicked: true, Verified: true}, nil
}

func (m *apiMessagingRepo) ReadThread(ctx context.Context) ([]*domain.MessageRecord, error) {
	return nil, nil
}

func (m *apiMessagingRepo) SendToOpenThread(ctx context.Context, text string) error { return nil }

func (m *apiMessagingRepo) StartConversation(ctx context.Context, recipient, text string) error {
	return nil
}

func (m *apiMessagingRepo) CheckLogin(ctx context.Context) (*repo.LoginStatus, error) {
	return &m.login, nil
}

func (m *apiMessagingRepo) SignOut(ctx context.Context) error { return nil }

func (m *apiMessagingRepo) CurrentURL(ctx context.Context) (string, error) { return "", nil }

type apiSnapshotRepo struct {
	mu     sync.Mutex
	latest *domain.Snapshot
}

func (m *apiSnapshotRepo) ReplaceConversations(ctx context.Context, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = snap
	return nil
}

func (m *apiSnapshotRepo) LatestConversations(ctx context.Context) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest, nil
}

func (m *apiSnapshotRepo) SaveThread(ctx context.Context, t *domain.ThreadSnapshot) error { return nil }

func (m *apiSnapshotRepo) Thread(ctx context.Context, conversationID string) (*domain.ThreadSnapshot, error) {
	return nil, nil
}

func (m *apiSnapshotRepo) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = nil
	return nil
}

type apiVisitRepo struct {
	visits []*domain.Visit
}

func (m *apiVisitRepo) Get(ctx context.Context, conversationID string) (*domain.Visit, error) {
	return nil, nil
}

func (m *apiVisitRepo) Save(ctx context.Context, visit *domain.Visit) error { return nil }

func (m *apiVisitRepo) RecordOpen(ctx context.Context, conversationID, name string) error {
	return nil
}

func (m *apiVisitRepo) RecordRead(ctx context.Context, conversationID string, messageCount int) error {
	return nil
}

func (m *apiVisitRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Visit, error) {
	return m.visits, nil
}

func (m *apiVisitRepo) CleanupStale(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (m *apiVisitRepo) Close() error { return nil }

type serverFixture struct {
	server    *Server
	agent     *scriptedAgent
	messaging *apiMessagingRepo
	snapshots *apiSnapshotRepo
	visits    *apiVisitRepo
}

func newServerFixture(t *testing.T, displayURL string) *serverFixture {
	t.Helper()

	agent := newScriptedAgent()
	messaging := &apiMessagingRepo{login: repo.LoginStatus{LoggedIn: true, AccountName: "Jane Doe"}}
	snapshots := &apiSnapshotRepo{}
	visits := &apiVisitRepo{}

	usecases := biz.NewUsecases(messaging, snapshots, visits)
	toolHandler := mcp.NewHandler(usecases)
	agentSvc := service.NewAgentService(agent, nil, domain.SessionConfig{})
	agentSvc.StartEventLoop()

	server := NewServer(agentSvc, usecases, toolHandler, agent, snapshots, visits, conf.APIConfig{
		Host:       "127.0.0.1",
		Port:       8080,
		DisplayURL: displayURL,
	})

	return &serverFixture{
		server:    server,
		agent:     agent,
		messaging: messaging,
		snapshots: snapshots,
		visits:    visits,
	}
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// parseSSE splits an event-stream body into its data payloads, minus
// the terminal [DONE].
func parseSSE(t *testing.T, body string) (payloads []string, done bool) {
	t.Helper()
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if !strings.HasPrefix(block, "data: ") {
			t.Fatalf("Unexpected SSE block: %q", block)
		}
		payload := strings.TrimPrefix(block, "data: ")
		if payload == "[DONE]" {
			done = true
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads, done
}

// Tests

func TestHealthEndpoint(t *testing.T) {
	fx := newServerFixture(t, "")
	rec := getPath(t, fx.server.Handler(), "/health")

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got %q", rec.Body.String())
	}
}

func TestProcessingURLReady(t *testing.T) {
	fx := newServerFixture(t, "http://localhost:6080/vnc.html")
	rec := getPath(t, fx.server.Handler(), "/processing-url")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if body["url"] != "http://localhost:6080/vnc.html" {
		t.Errorf("Expected display URL, got %q", body["url"])
	}
	if body["status"] != "ready" {
		t.Errorf("Expected status 'ready', got %q", body["status"])
	}
}

func TestProcessingURLNotReady(t *testing.T) {
	fx := newServerFixture(t, "")
	rec := getPath(t, fx.server.Handler(), "/processing-url")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if body["status"] != "not ready" {
		t.Errorf("Expected status 'not ready', got %q", body["status"])
	}
}

func TestPromptPing(t *testing.T) {
	fx := newServerFixture(t, "")
	rec := postJSON(t, fx.server.Handler(), "/prompt", `{"ping": true}`)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "online" {
		t.Errorf("Expected 'online', got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain, got %q", ct)
	}
}

func TestPromptRequiresMessages(t *testing.T) {
	fx := newServerFixture(t, "")
	rec := postJSON(t, fx.server.Handler(), "/prompt", `{"messages": []}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if body["message"] == "" {
		t.Error("Expected an error message in the body")
	}
}

func TestPromptRequiresTextContent(t *testing.T) {
	fx := newServerFixture(t, "")
	rec := postJSON(t, fx.server.Handler(), "/prompt",
		`{"messages": [{"role": "user", "content": [{"type": "image_url"}]}]}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-text content, got %d", rec.Code)
	}
}

func TestPromptStreamsCompletionChunks(t *testing.T) {
	fx := newServerFixture(t, "")
	fx.agent.script = func(threadID, turnID string) {
		fx.agent.emit(threadID, turnID, repo.EventTypeAgentDelta, &repo.AgentDeltaData{Delta: "Hi "})
		fx.agent.emit(threadID, turnID, repo.EventTypeAgentDelta, &repo.AgentDeltaData{Delta: "there"})
		fx.agent.emit(threadID, turnID, repo.EventTypeTurnComplete, &repo.TurnCompleteData{Response: "Hi there"})
	}

	rec := postJSON(t, fx.server.Handler(), "/prompt",
		`{"messages": [{"role": "user", "content": "hello"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	payloads, done := parseSSE(t, rec.Body.String())
	if !done {
		t.Error("Expected a terminal [DONE] marker")
	}
	if len(payloads) == 0 {
		t.Fatal("Expected at least one chunk")
	}

	var text strings.Builder
	var id string
	for _, payload := range payloads {
		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			t.Fatalf("Failed to parse chunk %q: %v", payload, err)
		}
		if chunk.Object != "chat.completion.chunk" {
			t.Errorf("Expected chunk object, got %q", chunk.Object)
		}
		if id == "" {
			id = chunk.ID
		} else if chunk.ID != id {
			t.Errorf("Expected a stable response ID, got %q then %q", id, chunk.ID)
		}
		if len(chunk.Choices) != 1 {
			t.Fatalf("Expected one choice, got %d", len(chunk.Choices))
		}
		text.WriteString(chunk.Choices[0].Delta.Content)
	}

	if text.String() != "Hi there" {
		t.Errorf("Expected streamed text 'Hi there', got %q", text.String())
	}
	if !strings.HasPrefix(id, "chatcmpl-") {
		t.Errorf("Expected a chatcmpl- response ID, got %q", id)
	}
}

func TestPromptStreamsErrorMessage(t *testing.T) {
	fx := newServerFixture(t, "")
	fx.agent.script = func(threadID, turnID string) {
		fx.agent.emit(threadID, turnID, repo.EventTypeError, &repo.ErrorData{Error: fmt.Errorf("model unavailable")})
	}

	rec := postJSON(t, fx.server.Handler(), "/prompt",
		`{"messages": [{"role": "user", "content": "hello"}]}`)

	payloads, done := parseSSE(t, rec.Body.String())
	if !done {
		t.Error("Expected a terminal [DONE] marker after the error")
	}
	if len(payloads) != 1 {
		t.Fatalf("Expected one error payload, got %d", len(payloads))
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(payloads[0]), &body); err != nil {
		t.Fatalf("Failed to parse error payload: %v", err)
	}
	if !strings.Contains(body["message"], "model unavailable") {
		t.Errorf("Expected the error message, got %q", body["message"])
	}
}

func TestLastTextMessagePicksNewestString(t *testing.T) {
	messages := []promptMessage{
		{Role: "user", Content: json.RawMessage(`"first"`)},
		{Role: "assistant", Content: json.RawMessage(`"reply"`)},
		{Role: "user", Content: json.RawMessage(`[{"type": "image_url"}]`)},
		{Role: "user", Content: json.RawMessage(`"second"`)},
	}

	text, ok := lastTextMessage(messages)
	if !ok {
		t.Fatal("Expected a text message")
	}
	if text != "second" {
		t.Errorf("Expected 'second', got %q", text)
	}

	blank := []promptMessage{{Role: "user", Content: json.RawMessage(`"   "`)}}
	if _, ok := lastTextMessage(blank); ok {
		t.Error("Expected whitespace-only content to be rejected")
	}
}

func TestConversationsReturnsLatestSnapshot(t *testing.T) {
	fx := newServerFixture(t, "")
	fx.snapshots.ReplaceConversations(context.Background(), &domain.Snapshot{
		Generation: "gen-1",
		TakenAt:    time.Now(),
		Records: []*domain.ConversationRecord{
			{Identity: domain.SyntheticIdentity("gen-1", 0), DisplayName: "Alice Chen"},
		},
	})

	rec := getPath(t, fx.server.Handler(), "/api/conversations")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Snapshot *domain.Snapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if body.Snapshot == nil || body.Snapshot.Generation != "gen-1" {
		t.Errorf("Expected the stored snapshot, got %+v", body.Snapshot)
	}
}

func TestConversationsLiveEnumerates(t *testing.T) {
	fx := newServerFixture(t, "")
	fx.messaging.names = []string{"Alice Chen", "Bob Li", "Carol Park"}

	rec := getPath(t, fx.server.Handler(), "/api/conversations/live?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Snapshot *domain.Snapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if body.Snapshot == nil {
		t.Fatal("Expected a snapshot")
	}
	if len(body.Snapshot.Records) != 2 {
		t.Errorf("Expected 2 records with limit=2, got %d", len(body.Snapshot.Records))
	}
	if body.Snapshot.Summary.TotalAvailable != 3 {
		t.Errorf("Expected total 3, got %d", body.Snapshot.Summary.TotalAvailable)
	}
}

func TestLoginStatusEndpoint(t *testing.T) {
	fx := newServerFixture(t, "")
	rec := getPath(t, fx.server.Handler(), "/api/login-status")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if body["logged_in"] != true {
		t.Errorf("Expected logged_in true, got %v", body["logged_in"])
	}
	if body["account_name"] != "Jane Doe" {
		t.Errorf("Expected account name, got %v", body["account_name"])
	}
}

func TestSignOutEndpoint(t *testing.T) {
	fx := newServerFixture(t, "")
	fx.snapshots.ReplaceConversations(context.Background(), &domain.Snapshot{Generation: "gen-1"})

	rec := postJSON(t, fx.server.Handler(), "/api/sign-out", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	if snap, _ := fx.snapshots.LatestConversations(context.Background()); snap != nil {
		t.Error("Expected sign-out to clear the stored snapshot")
	}

	rec = getPath(t, fx.server.Handler(), "/api/sign-out")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", rec.Code)
	}
}

func TestToolsEndpoint(t *testing.T) {
	fx := newServerFixture(t, "")
	rec := getPath(t, fx.server.Handler(), "/api/tools")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body struct {
		Tools []mcp.ToolDefinition `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if len(body.Tools) != 7 {
		t.Errorf("Expected 7 tools while authorized, got %d", len(body.Tools))
	}
}

func TestDebugAgentEndpoint(t *testing.T) {
	fx := newServerFixture(t, "")
	rec := postJSON(t, fx.server.Handler(), "/api/debug/agent", `{"prompt": "say hi"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body DebugAgentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if body.Response != "debug: say hi" {
		t.Errorf("Expected the debug response, got %q", body.Response)
	}
	if body.ThreadID != "thread-debug" {
		t.Errorf("Expected the debug thread ID, got %q", body.ThreadID)
	}
}

func TestCORSPreflight(t *testing.T) {
	fx := newServerFixture(t, "")
	req := httptest.NewRequest(http.MethodOptions, "/prompt", nil)
	rec := httptest.NewRecorder()
	fx.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Expected allow-all origin, got %q", origin)
	}
}

func TestExecuteRunsTool(t *testing.T) {
	fx := newServerFixture(t, "")
	fx.messaging.names = []string{"Alice Chen"}

	rec := postJSON(t, fx.server.Handler(), "/api/execute",
		`{"tool": "list_conversations", "arguments": {"limit": 10}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Result  map[string]interface{} `json:"result"`
		Error   *struct{ Code string } `json:"error"`
		Success bool                   `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}
	if !envelope.Success {
		t.Errorf("Expected success, got error %+v", envelope.Error)
	}
	if envelope.Result["conversations"] == nil {
		t.Error("Expected conversations in the result")
	}
}

func TestExecuteReportsToolFailureInEnvelope(t *testing.T) {
	fx := newServerFixture(t, "")
	fx.messaging.names = []string{"Alice Chen"}

	rec := postJSON(t, fx.server.Handler(), "/api/execute",
		`{"tool": "enter_conversation", "arguments": {"target_name": "Nobody"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 with a failure envelope, got %d", rec.Code)
	}

	var envelope struct {
		Error   *struct{ Code string } `json:"error"`
		Success bool                   `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}
	if envelope.Success {
		t.Error("Expected a failure envelope")
	}
	if envelope.Error == nil || envelope.Error.Code != "not_found" {
		t.Errorf("Expected not_found code, got %+v", envelope.Error)
	}
}

func TestExecuteRequiresTool(t *testing.T) {
	fx := newServerFixture(t, "")
	rec := postJSON(t, fx.server.Handler(), "/api/execute", `{"arguments": {}}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a tool name, got %d", rec.Code)
	}
}

func TestResetSessionEndpoint(t *testing.T) {
	fx := newServerFixture(t, "")
	fx.agent.script = func(threadID, turnID string) {
		fx.agent.emit(threadID, turnID, repo.EventTypeTurnComplete, &repo.TurnCompleteData{Response: "ok"})
	}

	postJSON(t, fx.server.Handler(), "/prompt", `{"messages": [{"role": "user", "content": "hello"}]}`)
	if got := fx.agent.createdCount(); got != 1 {
		t.Fatalf("Expected one thread after the first prompt, got %d", got)
	}

	rec := postJSON(t, fx.server.Handler(), "/reset-session", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if body["reset"] != true {
		t.Errorf("Expected reset true, got %v", body["reset"])
	}
	if body["session"] != "default" {
		t.Errorf("Expected the default session key, got %v", body["session"])
	}

	postJSON(t, fx.server.Handler(), "/prompt", `{"messages": [{"role": "user", "content": "hello again"}]}`)
	if got := fx.agent.createdCount(); got != 2 {
		t.Errorf("Expected a fresh thread after reset, got %d thread(s)", got)
	}

	rec = getPath(t, fx.server.Handler(), "/reset-session")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", rec.Code)
	}
}

func TestVisitsEndpoint(t *testing.T) {
	fx := newServerFixture(t, "")
	fx.visits.visits = []*domain.Visit{
		{ConversationID: "snap:gen-1:0", Name: "Alice Chen", OpenCount: 3, MessageCount: 12},
	}

	rec := getPath(t, fx.server.Handler(), "/api/visits")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body struct {
		Visits []visitView `json:"visits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if len(body.Visits) != 1 {
		t.Fatalf("Expected 1 visit, got %d", len(body.Visits))
	}
	if body.Visits[0].Name != "Alice Chen" || body.Visits[0].OpenCount != 3 {
		t.Errorf("Expected the visit row, got %+v", body.Visits[0])
	}
}
