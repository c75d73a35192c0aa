package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
)

const conversationListFile = "conversation_list.json"

// snapshotRepo implements the Snapshot repository on JSON files.
// The latest conversation list lives in one file that is replaced
// atomically via rename, so a concurrent reader sees either the old or
// the new snapshot, never a torn one.
type snapshotRepo struct {
	dir string
	mu  sync.Mutex
}

// NewSnapshotRepo creates a new Snapshot repository rooted at dir
func NewSnapshotRepo(dir string) (repo.SnapshotRepo, error) {
	if err := os.MkdirAll(filepath.Join(dir, "threads"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &snapshotRepo{dir: dir}, nil
}

// ReplaceConversations atomically replaces the latest snapshot
func (r *snapshotRepo) ReplaceConversations(ctx context.Context, snap *domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeJSON(filepath.Join(r.dir, conversationListFile), snap)
}

// LatestConversations returns the latest snapshot, or nil when none exists
func (r *snapshotRepo) LatestConversations(ctx context.Context) (*domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(r.dir, conversationListFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snap, nil
}

// SaveThread writes the per-thread snapshot keyed by conversation identity
func (r *snapshotRepo) SaveThread(ctx context.Context, t *domain.ThreadSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeJSON(r.threadPath(t.ConversationID), t)
}

// Thread returns the stored snapshot for a conversation, or nil when none
func (r *snapshotRepo) Thread(ctx context.Context, conversationID string) (*domain.ThreadSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.threadPath(conversationID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read thread snapshot: %w", err)
	}

	var t domain.ThreadSnapshot
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse thread snapshot: %w", err)
	}
	return &t, nil
}

// Clear removes the conversation snapshot and all thread snapshots
func (r *snapshotRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(filepath.Join(r.dir, conversationListFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	threadsDir := filepath.Join(r.dir, "threads")
	if err := os.RemoveAll(threadsDir); err != nil {
		return fmt.Errorf("failed to remove thread snapshots: %w", err)
	}
	if err := os.MkdirAll(threadsDir, 0755); err != nil {
		return fmt.Errorf("failed to recreate threads directory: %w", err)
	}
	return nil
}

// writeJSON writes v to path through a temp file and rename
func (r *snapshotRepo) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) threadPath(conversationID string) string {
	return filepath.Join(r.dir, "threads", sanitizeFileName(conversationID)+".json")
}

// sanitizeFileName maps an identity to a safe file name component.
func sanitizeFileName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
