package repo

import (
	"context"
	"time"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

// SessionRepo persists session-to-thread mappings so agent threads
// survive a bridge restart.
type SessionRepo interface {
	// Get returns the stored mapping for a session key, or nil when none.
	Get(ctx context.Context, sessionKey string) (*domain.AgentSession, error)

	// Save creates or replaces a mapping.
	Save(ctx context.Context, session *domain.AgentSession) error

	// Touch refreshes the mapping's active time.
	Touch(ctx context.Context, sessionKey string) error

	// Delete removes a mapping.
	Delete(ctx context.Context, sessionKey string) error

	// CleanupStale deletes mappings with no activity since before.
	CleanupStale(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
