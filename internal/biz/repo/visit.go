package repo

import (
	"context"
	"time"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

// VisitRepo is the thread-activity ledger (SQLite).
type VisitRepo interface {
	// Get returns the visit row for a conversation, or nil when none.
	Get(ctx context.Context, conversationID string) (*domain.Visit, error)

	// Save creates or updates a visit row.
	Save(ctx context.Context, visit *domain.Visit) error

	// RecordOpen bumps the open counter for a conversation, creating the
	// row if needed.
	RecordOpen(ctx context.Context, conversationID, name string) error

	// RecordRead stores the message count of a completed read.
	RecordRead(ctx context.Context, conversationID string, messageCount int) error

	// ListRecent returns visits ordered by most recent activity.
	ListRecent(ctx context.Context, limit int) ([]*domain.Visit, error)

	// CleanupStale deletes rows with no activity since before.
	CleanupStale(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
