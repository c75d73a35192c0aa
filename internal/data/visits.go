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

// visitRepo implements the Visit repository
type visitRepo struct {
	db *sql.DB
}

// NewVisitRepo creates a new Visit repository
func NewVisitRepo(dbPath string) (repo.VisitRepo, error) {
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
		CREATE TABLE IF NOT EXISTS visits (
			conversation_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			open_count INTEGER NOT NULL DEFAULT 0,
			last_opened_at INTEGER NOT NULL DEFAULT 0,
			last_read_at INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_visits_updated_at ON visits(updated_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	// Add message_count column (if not exists) - for database migration
	_, _ = db.Exec(`ALTER TABLE visits ADD COLUMN message_count INTEGER NOT NULL DEFAULT 0`)

	return &visitRepo{db: db}, nil
}

// Get gets a visit row by conversation ID
func (r *visitRepo) Get(ctx context.Context, conversationID string) (*domain.Visit, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT conversation_id, name, open_count, last_opened_at, last_read_at, message_count, updated_at
		FROM visits
		WHERE conversation_id = ?
	`, conversationID)

	visit, err := scanVisit(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query visit: %w", err)
	}
	return visit, nil
}

// Save saves a visit row
func (r *visitRepo) Save(ctx context.Context, visit *domain.Visit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO visits (conversation_id, name, open_count, last_opened_at, last_read_at, message_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		visit.ConversationID,
		visit.Name,
		visit.OpenCount,
		visit.LastOpenedAt.Unix(),
		visit.LastReadAt.Unix(),
		visit.MessageCount,
		visit.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save visit: %w", err)
	}
	return nil
}

// RecordOpen bumps the open counter, creating the row if needed
func (r *visitRepo) RecordOpen(ctx context.Context, conversationID, name string) error {
	now := time.Now().Unix()
	result, err := r.db.ExecContext(ctx, `
		UPDATE visits SET open_count = open_count + 1, name = ?, last_opened_at = ?, updated_at = ?
		WHERE conversation_id = ?
	`, name, now, now, conversationID)
	if err != nil {
		return fmt.Errorf("failed to record open: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record open: %w", err)
	}
	if affected == 0 {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO visits (conversation_id, name, open_count, last_opened_at, last_read_at, message_count, updated_at)
			VALUES (?, ?, 1, ?, 0, 0, ?)
		`, conversationID, name, now, now)
		if err != nil {
			return fmt.Errorf("failed to record open: %w", err)
		}
	}
	return nil
}

// RecordRead stores the message count of a completed read
func (r *visitRepo) RecordRead(ctx context.Context, conversationID string, messageCount int) error {
	now := time.Now().Unix()
	result, err := r.db.ExecContext(ctx, `
		UPDATE visits SET message_count = ?, last_read_at = ?, updated_at = ?
		WHERE conversation_id = ?
	`, messageCount, now, now, conversationID)
	if err != nil {
		return fmt.Errorf("failed to record read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record read: %w", err)
	}
	if affected == 0 {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO visits (conversation_id, name, open_count, last_opened_at, last_read_at, message_count, updated_at)
			VALUES (?, '', 0, 0, ?, ?, ?)
		`, conversationID, now, messageCount, now)
		if err != nil {
			return fmt.Errorf("failed to record read: %w", err)
		}
	}
	return nil
}

// ListRecent lists visits ordered by most recent activity
func (r *visitRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Visit, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT conversation_id, name, open_count, last_opened_at, last_read_at, message_count, updated_at
		FROM visits
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	var visits []*domain.Visit
	for rows.Next() {
		visit, err := scanVisit(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, visit)
	}
	return visits, rows.Err()
}

// CleanupStale deletes rows with no activity since before
func (r *visitRepo) CleanupStale(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM visits WHERE updated_at < ?
	`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup stale visits: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database
func (r *visitRepo) Close() error {
	return r.db.Close()
}

func scanVisit(scan func(dest ...any) error) (*domain.Visit, error) {
	var visit domain.Visit
	var lastOpenedAt, lastReadAt, updatedAt int64
	err := scan(&visit.ConversationID, &visit.Name, &visit.OpenCount, &lastOpenedAt, &lastReadAt, &visit.MessageCount, &updatedAt)
	if err != nil {
		return nil, err
	}
	visit.LastOpenedAt = time.Unix(lastOpenedAt, 0)
	visit.LastReadAt = time.Unix(lastReadAt, 0)
	visit.UpdatedAt = time.Unix(updatedAt, 0)
	return &visit, nil
}
