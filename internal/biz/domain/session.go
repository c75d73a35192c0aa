package domain

import "time"

// AgentSession maps one client session key to the agent thread serving
// it. The key comes from the transport (the X-Session-Id header); the
// thread id is minted by the agent backend.
type AgentSession struct {
	SessionKey string
	ThreadID   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SessionConfig bounds how long a stored mapping stays resumable.
type SessionConfig struct {
	IdleTimeout time.Duration // zero disables the idle check
}

// IsFresh reports whether the mapping is still worth resuming.
func (s *AgentSession) IsFresh(cfg SessionConfig) bool {
	if cfg.IdleTimeout > 0 && time.Since(s.UpdatedAt) > cfg.IdleTimeout {
		return false
	}
	return true
}

// Touch updates the active time.
func (s *AgentSession) Touch() {
	s.UpdatedAt = time.Now()
}
