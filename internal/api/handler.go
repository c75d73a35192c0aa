package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/conf"
	"github.com/anthropics/linkedin-agent-bridge/internal/mcp"
	"github.com/anthropics/linkedin-agent-bridge/internal/service"
)

// Server exposes the agent and the messaging operations over HTTP. The
// /prompt endpoint speaks the OpenAI chat-completion chunk format so
// any OpenAI-compatible chat frontend can drive the agent directly.
type Server struct {
	agentSvc     *service.AgentService
	usecases     *biz.Usecases
	toolHandler  *mcp.Handler
	agentRepo    repo.AgentRepo
	snapshotRepo repo.SnapshotRepo
	visitRepo    repo.VisitRepo

	displayURL string
	addr       string

	server *http.Server
}

// NewServer creates a new API server
func NewServer(
	agentSvc *service.AgentService,
	usecases *biz.Usecases,
	toolHandler *mcp.Handler,
	agentRepo repo.AgentRepo,
	snapshotRepo repo.SnapshotRepo,
	visitRepo repo.VisitRepo,
	cfg conf.APIConfig,
) *Server {
	return &Server{
		agentSvc:     agentSvc,
		usecases:     usecases,
		toolHandler:  toolHandler,
		agentRepo:    agentRepo,
		snapshotRepo: snapshotRepo,
		visitRepo:    visitRepo,
		displayURL:   cfg.DisplayURL,
		addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	fmt.Printf("[API] Starting HTTP server on %s\n", s.addr)
	return s.server.ListenAndServe()
}

// Handler builds the route table. Exposed separately so tests can drive
// it without a listening socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Chat frontend surface
	mux.HandleFunc("/prompt", s.handlePrompt)
	mux.HandleFunc("/reset-session", s.handleResetSession)
	mux.HandleFunc("/processing-url", s.handleProcessingURL)

	// Messaging state
	mux.HandleFunc("/api/conversations", s.handleConversations)
	mux.HandleFunc("/api/conversations/live", s.handleConversationsLive)
	mux.HandleFunc("/api/login-status", s.handleLoginStatus)
	mux.HandleFunc("/api/sign-out", s.handleSignOut)
	mux.HandleFunc("/api/visits", s.handleVisits)
	mux.HandleFunc("/api/tools", s.handleTools)
	mux.HandleFunc("/api/execute", s.handleExecute)

	// Debug endpoint for direct agent communication
	mux.HandleFunc("/api/debug/agent", s.handleDebugAgent)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return withCORS(mux)
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// withCORS allows any origin. The server fronts a single local browser
// session and is meant to sit behind the operator's own network.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ============ Prompt Handler ============

type promptMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type promptRequest struct {
	Messages []promptMessage `json:"messages"`
	Ping     bool            `json:"ping"`
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	// Liveness probe from the chat frontend.
	if req.Ping {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("online"))
		return
	}

	if s.agentSvc == nil {
		s.writeMessage(w, http.StatusServiceUnavailable, "agent not configured")
		return
	}

	if len(req.Messages) == 0 {
		s.writeMessage(w, http.StatusBadRequest, "messages is required")
		return
	}

	prompt, ok := lastTextMessage(req.Messages)
	if !ok {
		s.writeMessage(w, http.StatusBadRequest, "no text message to process")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeMessage(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionKey := r.Header.Get("X-Session-Id")
	if sessionKey == "" {
		sessionKey = "default"
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	responseID := "chatcmpl-" + uuid.NewString()
	var streamed strings.Builder

	response, err := s.agentSvc.Prompt(r.Context(), sessionKey, prompt, func(delta string) {
		streamed.WriteString(delta)
		s.writeChunk(w, flusher, responseID, delta)
	})
	if err != nil {
		fmt.Printf("[API] Prompt turn failed: %v\n", err)
		s.writeStreamError(w, flusher, err)
		return
	}

	// Deltas are best effort; whatever did not stream goes out as one
	// trailing chunk so the client always ends with the full text.
	sent := streamed.String()
	switch {
	case sent == response:
	case strings.HasPrefix(response, sent):
		s.writeChunk(w, flusher, responseID, response[len(sent):])
	case sent == "":
		s.writeChunk(w, flusher, responseID, response)
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// lastTextMessage walks the history backwards and returns the newest
// message whose content is a plain string. Frontends may append
// non-text parts (images, tool transcripts) that the agent cannot use.
func lastTextMessage(messages []promptMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		var text string
		if err := json.Unmarshal(messages[i].Content, &text); err == nil && strings.TrimSpace(text) != "" {
			return text, true
		}
	}
	return "", false
}

func (s *Server) writeChunk(w http.ResponseWriter, flusher http.Flusher, responseID, content string) {
	chunk := openai.ChatCompletionStreamResponse{
		ID:      responseID,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   "unspecified",
		Choices: []openai.ChatCompletionStreamChoice{
			{
				Index: 0,
				Delta: openai.ChatCompletionStreamChoiceDelta{
					Content: content,
					Role:    openai.ChatMessageRoleAssistant,
				},
			},
		},
	}

	data, err := json.Marshal(chunk)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func (s *Server) writeStreamError(w http.ResponseWriter, flusher http.Flusher, err error) {
	data, _ := json.Marshal(map[string]string{"message": err.Error()})
	fmt.Fprintf(w, "data: %s\n\n", data)
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// ============ Frontend Support Handlers ============

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.agentSvc == nil {
		http.Error(w, "agent not configured", http.StatusServiceUnavailable)
		return
	}

	sessionKey := r.Header.Get("X-Session-Id")
	if sessionKey == "" {
		sessionKey = "default"
	}

	s.agentSvc.ResetSession(sessionKey)
	s.writeJSON(w, map[string]interface{}{"reset": true, "session": sessionKey})
}

func (s *Server) handleProcessingURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.displayURL == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
		return
	}

	s.writeJSON(w, map[string]string{"url": s.displayURL, "status": "ready"})
}

// ============ Messaging Handlers ============

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := s.snapshotRepo.LatestConversations(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{"snapshot": snap})
}

func (s *Server) handleConversationsLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	var includeWords []string
	if include := r.URL.Query().Get("include"); include != "" {
		for _, word := range strings.Split(include, ",") {
			if word = strings.TrimSpace(word); word != "" {
				includeWords = append(includeWords, word)
			}
		}
	}

	snap, err := s.usecases.Conversations.ListConversations(r.Context(), limit, includeWords)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{"snapshot": snap})
}

func (s *Server) handleLoginStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, err := s.usecases.Auth.CheckLoginStatus(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"logged_in":    status.LoggedIn,
		"account_name": status.AccountName,
		"url":          status.URL,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.usecases.Auth.SignOut(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, map[string]interface{}{"signed_out": true})
}

// visitView shapes a visit row for JSON output
type visitView struct {
	ConversationID string    `json:"conversation_id"`
	Name           string    `json:"name"`
	OpenCount      int       `json:"open_count"`
	LastOpenedAt   time.Time `json:"last_opened_at"`
	LastReadAt     time.Time `json:"last_read_at"`
	MessageCount   int       `json:"message_count"`
}

func (s *Server) handleVisits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	visits, err := s.visitRepo.ListRecent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	views := make([]visitView, len(visits))
	for i, v := range visits {
		views[i] = visitView{
			ConversationID: v.ConversationID,
			Name:           v.Name,
			OpenCount:      v.OpenCount,
			LastOpenedAt:   v.LastOpenedAt,
			LastReadAt:     v.LastReadAt,
			MessageCount:   v.MessageCount,
		}
	}

	s.writeJSON(w, map[string]interface{}{"visits": views})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, map[string]interface{}{"tools": s.toolHandler.CurrentDefinitions()})
}

// ExecuteRequest is a direct tool invocation
type ExecuteRequest struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
}

// handleExecute runs one tool directly and returns its result envelope.
// This is the same surface the agent and the MCP relay use, so anything
// they can do is scriptable from here too.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Tool == "" {
		s.writeMessage(w, http.StatusBadRequest, "tool is required")
		return
	}

	// Failures ride inside the envelope with their error code; the
	// HTTP status stays 200 so callers get one uniform result shape.
	envelope, err := s.toolHandler.Execute(r.Context(), req.Tool, req.Arguments)
	if envelope == "" {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(envelope))
}

// ============ Debug Handlers ============

// DebugAgentRequest is the request for direct agent communication
type DebugAgentRequest struct {
	Prompt  string `json:"prompt"`
	Timeout int    `json:"timeout"` // timeout in seconds, default 120
}

// DebugAgentResponse is the response from the agent
type DebugAgentResponse struct {
	ThreadID string `json:"thread_id"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleDebugAgent(w http.ResponseWriter, r *http.Request) {
	if s.agentRepo == nil {
		http.Error(w, "agent not initialized", http.StatusServiceUnavailable)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DebugAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 120
	}

	response, threadID, err := s.agentRepo.DebugConversation(r.Context(), req.Prompt, time.Duration(timeout)*time.Second)

	result := DebugAgentResponse{
		ThreadID: threadID,
		Response: response,
	}
	if err != nil {
		result.Error = err.Error()
	}

	s.writeJSON(w, result)
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
