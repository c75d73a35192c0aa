package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
)

// turnOutcome is the terminal result of one agent turn.
type turnOutcome struct {
	response string
	err      error
}

// turnState tracks one in-flight turn so events from the agent event
// loop can be routed back to the caller waiting in Prompt.
type turnState struct {
	deltas chan string
	done   chan turnOutcome
}

// AgentService runs agent turns on behalf of the HTTP API. Each API
// session maps to one agent thread so follow-up prompts keep their
// conversation history. Mappings are persisted through the session
// repository so a restarted bridge resumes existing threads.
type AgentService struct {
	agentRepo   repo.AgentRepo
	sessionRepo repo.SessionRepo // optional, nil disables persistence
	sessionCfg  domain.SessionConfig

	mu       sync.Mutex
	sessions map[string]string     // session key -> thread ID
	turns    map[string]*turnState // thread ID -> in-flight turn
}

// NewAgentService creates a new agent service
func NewAgentService(agentRepo repo.AgentRepo, sessionRepo repo.SessionRepo, sessionCfg domain.SessionConfig) *AgentService {
	return &AgentService{
		agentRepo:   agentRepo,
		sessionRepo: sessionRepo,
		sessionCfg:  sessionCfg,
		sessions:    make(map[string]string),
		turns:       make(map[string]*turnState),
	}
}

// Prompt runs one agent turn and blocks until it completes. Streaming
// deltas are forwarded to onDelta as they arrive; the returned string is
// the full response. Only one turn per session may run at a time.
func (s *AgentService) Prompt(ctx context.Context, sessionKey, prompt string, onDelta func(string)) (string, error) {
	threadID, err := s.resolveThread(ctx, sessionKey)
	if err != nil {
		return "", err
	}

	state := &turnState{
		deltas: make(chan string, 256),
		done:   make(chan turnOutcome, 1),
	}

	s.mu.Lock()
	if _, busy := s.turns[threadID]; busy {
		s.mu.Unlock()
		return "", fmt.Errorf("a turn is already running for this session")
	}
	s.turns[threadID] = state
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.turns, threadID)
		s.mu.Unlock()
	}()

	turnID, err := s.agentRepo.StartTurn(ctx, threadID, prompt)
	if err != nil {
		return "", fmt.Errorf("start turn: %w", err)
	}
	fmt.Printf("[Service] Turn %s started on thread %s\n", turnID, threadID)

	for {
		select {
		case delta := <-state.deltas:
			if onDelta != nil {
				onDelta(delta)
			}
		case outcome := <-state.done:
			// Deltas and the terminal event travel on separate
			// channels, so flush any stragglers before returning.
			s.flushDeltas(state, onDelta)
			if outcome.err != nil {
				return "", outcome.err
			}
			return outcome.response, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (s *AgentService) flushDeltas(state *turnState, onDelta func(string)) {
	for {
		select {
		case delta := <-state.deltas:
			if onDelta != nil {
				onDelta(delta)
			}
		default:
			return
		}
	}
}

// resolveThread finds the session's agent thread, creating one if the
// session is new or its thread no longer resumes.
func (s *AgentService) resolveThread(ctx context.Context, sessionKey string) (string, error) {
	s.mu.Lock()
	threadID, ok := s.sessions[sessionKey]
	s.mu.Unlock()

	if !ok {
		threadID, ok = s.restoreSession(ctx, sessionKey)
	}

	if ok {
		if err := s.agentRepo.ResumeThread(ctx, threadID); err == nil {
			s.mu.Lock()
			s.sessions[sessionKey] = threadID
			s.mu.Unlock()
			if s.sessionRepo != nil {
				_ = s.sessionRepo.Touch(ctx, sessionKey)
			}
			return threadID, nil
		}
		fmt.Printf("[Service] Thread %s no longer resumes, creating a new one\n", threadID)
		if s.sessionRepo != nil {
			_ = s.sessionRepo.Delete(ctx, sessionKey)
		}
	}

	threadID, err := s.agentRepo.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	s.mu.Lock()
	s.sessions[sessionKey] = threadID
	s.mu.Unlock()
	s.storeSession(ctx, sessionKey, threadID)

	fmt.Printf("[Service] Session %s -> new thread %s\n", sessionKey, threadID)
	return threadID, nil
}

// restoreSession consults the persisted mapping for a session the
// in-memory map does not know, which happens after a bridge restart.
func (s *AgentService) restoreSession(ctx context.Context, sessionKey string) (string, bool) {
	if s.sessionRepo == nil {
		return "", false
	}

	stored, err := s.sessionRepo.Get(ctx, sessionKey)
	if err != nil {
		fmt.Printf("[Service] Session lookup failed: %v\n", err)
		return "", false
	}
	if stored == nil {
		return "", false
	}
	if !stored.IsFresh(s.sessionCfg) {
		_ = s.sessionRepo.Delete(ctx, sessionKey)
		return "", false
	}

	fmt.Printf("[Service] Session %s restored from store (thread %s)\n", sessionKey, stored.ThreadID)
	return stored.ThreadID, true
}

func (s *AgentService) storeSession(ctx context.Context, sessionKey, threadID string) {
	if s.sessionRepo == nil {
		return
	}
	now := time.Now()
	err := s.sessionRepo.Save(ctx, &domain.AgentSession{
		SessionKey: sessionKey,
		ThreadID:   threadID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		fmt.Printf("[Service] Session save failed: %v\n", err)
	}
}

// ResetSession drops the session's thread mapping so the next prompt
// starts from a fresh conversation.
func (s *AgentService) ResetSession(sessionKey string) {
	s.mu.Lock()
	delete(s.sessions, sessionKey)
	s.mu.Unlock()

	if s.sessionRepo != nil {
		_ = s.sessionRepo.Delete(context.Background(), sessionKey)
	}
}

// HandleAgentEvent processes an event from the agent
func (s *AgentService) HandleAgentEvent(event repo.Event) {
	switch event.Type {
	case repo.EventTypeAgentDelta:
		if data, ok := event.Data.(*repo.AgentDeltaData); ok {
			s.handleAgentDelta(event.ThreadID, data.Delta)
		}
	case repo.EventTypeToolCall:
		if data, ok := event.Data.(*repo.ToolCallData); ok {
			fmt.Printf("[Service] Tool call on thread %s: %s (success=%v)\n", event.ThreadID, data.Name, data.Success)
		}
	case repo.EventTypeTurnComplete:
		if data, ok := event.Data.(*repo.TurnCompleteData); ok {
			s.handleTurnComplete(event.ThreadID, data.Response)
		}
	case repo.EventTypeError:
		if data, ok := event.Data.(*repo.ErrorData); ok {
			s.handleTurnError(event.ThreadID, data.Error)
		}
	}
}

func (s *AgentService) handleAgentDelta(threadID, delta string) {
	state := s.findTurn(threadID)
	if state == nil {
		return
	}

	// Drop the delta if the waiter is not keeping up. The full
	// response still arrives with the turn-complete event.
	select {
	case state.deltas <- delta:
	default:
	}
}

func (s *AgentService) handleTurnComplete(threadID, response string) {
	state := s.findTurn(threadID)
	if state == nil {
		fmt.Printf("[Service] Turn complete for unknown thread %s\n", threadID)
		return
	}
	state.done <- turnOutcome{response: response}
}

func (s *AgentService) handleTurnError(threadID string, err error) {
	state := s.findTurn(threadID)
	if state == nil {
		fmt.Printf("[Service] Error on unknown thread %s: %v\n", threadID, err)
		return
	}
	if err == nil {
		err = fmt.Errorf("agent turn failed")
	}
	state.done <- turnOutcome{err: err}
}

func (s *AgentService) findTurn(threadID string) *turnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns[threadID]
}

// StartEventLoop starts processing agent events
func (s *AgentService) StartEventLoop() {
	go func() {
		for event := range s.agentRepo.Events() {
			s.HandleAgentEvent(event)
		}
	}()
	fmt.Println("[Service] Agent event loop started")
}
