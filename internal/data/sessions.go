package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/domain"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// sessionRepo implements the Session repository
type sessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new Session repository
func NewSessionRepo(dbPath string) (repo.SessionRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_key TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &sessionRepo{db: db}, nil
}

// Get gets a session mapping by key
func (r *sessionRepo) Get(ctx context.Context, sessionKey string) (*domain.AgentSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT session_key, thread_id, created_at, updated_at
		FROM sessions
		WHERE session_key = ?
	`, sessionKey)

	var session domain.AgentSession
	var createdAt, updatedAt int64
	err := row.Scan(&session.SessionKey, &session.ThreadID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)
	return &session, nil
}

// Save saves a session mapping
func (r *sessionRepo) Save(ctx context.Context, session *domain.AgentSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (session_key, thread_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`,
		session.SessionKey,
		session.ThreadID,
		session.CreatedAt.Unix(),
		session.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Touch updates session active time
func (r *sessionRepo) Touch(ctx context.Context, sessionKey string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET updated_at = ? WHERE session_key = ?
	`, time.Now().Unix(), sessionKey)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Delete deletes a session mapping
func (r *sessionRepo) Delete(ctx context.Context, sessionKey string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_key = ?`, sessionKey)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupStale cleans up stale session mappings
func (r *sessionRepo) CleanupStale(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE updated_at < ?
	`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup stale sessions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (r *sessionRepo) Close() error {
	return r.db.Close()
}
