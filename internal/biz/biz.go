package biz

import (
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
	"github.com/anthropics/linkedin-agent-bridge/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Conversations *usecase.ConversationUsecase
	Compose       *usecase.ComposeUsecase
	Auth          *usecase.AuthUsecase
}

// NewUsecases wires the usecases onto the repositories
func NewUsecases(messaging repo.MessagingRepo, snapshot repo.SnapshotRepo, visit repo.VisitRepo) *Usecases {
	conversations := usecase.NewConversationUsecase(messaging, snapshot, visit)
	return &Usecases{
		Conversations: conversations,
		Compose:       usecase.NewComposeUsecase(messaging, conversations),
		Auth:          usecase.NewAuthUsecase(messaging, snapshot, conversations),
	}
}
