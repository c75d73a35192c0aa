package repo

import (
	"context"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
)

// SnapshotRepo persists enumeration results.
// The conversation snapshot is single-writer and replaced atomically at
// the file level; readers always observe a complete snapshot.
type SnapshotRepo interface {
	// ReplaceConversations atomically replaces the latest snapshot.
	ReplaceConversations(ctx context.Context, snap *domain.Snapshot) error

	// LatestConversations returns the latest snapshot, or nil when none
	// has been written yet.
	LatestConversations(ctx context.Context) (*domain.Snapshot, error)

	// SaveThread writes the per-thread snapshot keyed by conversation
	// identity, replacing any previous one for the same identity.
	SaveThread(ctx context.Context, t *domain.ThreadSnapshot) error

	// Thread returns the stored snapshot for a conversation identity, or
	// nil when none exists. Thread snapshots are never invalidated
	// automatically; the caller owns staleness policy.
	Thread(ctx context.Context, conversationID string) (*domain.ThreadSnapshot, error)

	// Clear removes the latest conversation snapshot (sign-out wipe).
	Clear(ctx context.Context) error
}
