package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
)

func newTestSessionRepo(t *testing.T) repo.SessionRepo {
	t.Helper()
	r, err := NewSessionRepo(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSessionRepo: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSessionGetMissing(t *testing.T) {
	r := newTestSessionRepo(t)

	got, err := r.Get(context.Background(), "default")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for unknown session, got %+v", got)
	}
}

func TestSessionSaveAndGet(t *testing.T) {
	r := newTestSessionRepo(t)
	ctx := context.Background()

	now := time.Now()
	session := &domain.AgentSession{
		SessionKey: "default",
		ThreadID:   "thread-1",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := r.Get(ctx, "default")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Expected session, got nil")
	}
	if got.ThreadID != "thread-1" {
		t.Errorf("Expected thread 'thread-1', got '%s'", got.ThreadID)
	}
	// Storage keeps second precision
	if got.UpdatedAt.Unix() != now.Unix() {
		t.Errorf("Expected updated at %d, got %d", now.Unix(), got.UpdatedAt.Unix())
	}
}

func TestSessionSaveReplaces(t *testing.T) {
	r := newTestSessionRepo(t)
	ctx := context.Background()

	now := time.Now()
	if err := r.Save(ctx, &domain.AgentSession{SessionKey: "default", ThreadID: "thread-1", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := r.Save(ctx, &domain.AgentSession{SessionKey: "default", ThreadID: "thread-2", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := r.Get(ctx, "default")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ThreadID != "thread-2" {
		t.Errorf("Expected replacement thread 'thread-2', got '%s'", got.ThreadID)
	}
}

func TestSessionTouchRefreshes(t *testing.T) {
	r := newTestSessionRepo(t)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour)
	if err := r.Save(ctx, &domain.AgentSession{SessionKey: "default", ThreadID: "thread-1", CreatedAt: old, UpdatedAt: old}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := r.Touch(ctx, "default"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	got, err := r.Get(ctx, "default")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.UpdatedAt.After(old) {
		t.Errorf("Expected touch to refresh updated at, got %v", got.UpdatedAt)
	}
}

func TestSessionDelete(t *testing.T) {
	r := newTestSessionRepo(t)
	ctx := context.Background()

	now := time.Now()
	if err := r.Save(ctx, &domain.AgentSession{SessionKey: "default", ThreadID: "thread-1", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := r.Delete(ctx, "default"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := r.Get(ctx, "default")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Expected session gone after delete, got %+v", got)
	}
}

func TestSessionCleanupStale(t *testing.T) {
	r := newTestSessionRepo(t)
	ctx := context.Background()

	stale := time.Now().Add(-48 * time.Hour)
	fresh := time.Now()
	if err := r.Save(ctx, &domain.AgentSession{SessionKey: "stale", ThreadID: "t1", CreatedAt: stale, UpdatedAt: stale}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := r.Save(ctx, &domain.AgentSession{SessionKey: "fresh", ThreadID: "t2", CreatedAt: fresh, UpdatedAt: fresh}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	deleted, err := r.CleanupStale(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CleanupStale: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted, got %d", deleted)
	}

	got, err := r.Get(ctx, "fresh")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Error("Expected fresh session to survive cleanup")
	}
}

func TestSessionFreshness(t *testing.T) {
	cfg := domain.SessionConfig{IdleTimeout: time.Hour}

	fresh := &domain.AgentSession{SessionKey: "a", ThreadID: "t", UpdatedAt: time.Now().Add(-30 * time.Minute)}
	if !fresh.IsFresh(cfg) {
		t.Error("Expected recently used session to be fresh")
	}

	idle := &domain.AgentSession{SessionKey: "b", ThreadID: "t", UpdatedAt: time.Now().Add(-2 * time.Hour)}
	if idle.IsFresh(cfg) {
		t.Error("Expected idle session to be stale")
	}

	// Zero timeout disables the check
	if !idle.IsFresh(domain.SessionConfig{}) {
		t.Error("Expected zero idle timeout to keep everything fresh")
	}
}
