package data

import (
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/conf"
	"github.com/anthropics/linkedin-agent-bridge/internal/infra/linkedin"
)

// Repositories contains all repositories
type Repositories struct {
	Messaging repo.MessagingRepo
	Snapshot  repo.SnapshotRepo
	Visit     repo.VisitRepo
	Session   repo.SessionRepo
}

// NewRepositories creates the browser-backed and storage repositories.
// The agent repository is created separately because its tool broker
// depends on use cases built on top of these.
func NewRepositories(client *linkedin.Client, store conf.StoreConfig, session conf.SessionConfig) (*Repositories, error) {
	snapshotRepo, err := NewSnapshotRepo(store.SnapshotDir)
	if err != nil {
		return nil, err
	}

	visitRepo, err := NewVisitRepo(store.DBPath)
	if err != nil {
		return nil, err
	}

	sessionRepo, err := NewSessionRepo(session.DBPath)
	if err != nil {
		visitRepo.Close()
		return nil, err
	}

	return &Repositories{
		Messaging: NewMessagingRepo(client),
		Snapshot:  snapshotRepo,
		Visit:     visitRepo,
		Session:   sessionRepo,
	}, nil
}

// Close releases storage handles
func (r *Repositories) Close() error {
	var firstErr error
	if r.Visit != nil {
		firstErr = r.Visit.Close()
	}
	if r.Session != nil {
		if err := r.Session.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
