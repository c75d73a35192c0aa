package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
)

// AuthUsecase handles session authorization state
type AuthUsecase struct {
	messagingRepo repo.MessagingRepo
	snapshotRepo  repo.SnapshotRepo
	conversations *ConversationUsecase

	mu         sync.Mutex
	authorized bool
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(
	messagingRepo repo.MessagingRepo,
	snapshotRepo repo.SnapshotRepo,
	conversations *ConversationUsecase,
) *AuthUsecase {
	return &AuthUsecase{
		messagingRepo: messagingRepo,
		snapshotRepo:  snapshotRepo,
		conversations: conversations,
		// Optimistic until the first check says otherwise
		authorized: true,
	}
}

// CheckLoginStatus probes the live session and records the result
func (uc *AuthUsecase) CheckLoginStatus(ctx context.Context) (*repo.LoginStatus, error) {
	status, err := uc.messagingRepo.CheckLogin(ctx)
	if err != nil {
		return nil, fmt.Errorf("check login: %w", err)
	}

	uc.mu.Lock()
	uc.authorized = status.LoggedIn
	uc.mu.Unlock()

	return status, nil
}

// SignOut ends the browser session and wipes local conversation state.
// Storage cleanup failures are logged, not fatal, once the browser-side
// sign-out succeeded.
func (uc *AuthUsecase) SignOut(ctx context.Context) error {
	if err := uc.messagingRepo.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	if err := uc.snapshotRepo.Clear(ctx); err != nil {
		fmt.Printf("[Auth] Warning: could not clear snapshots: %v\n", err)
	}
	uc.conversations.Reset()

	uc.mu.Lock()
	uc.authorized = false
	uc.mu.Unlock()

	fmt.Println("[Auth] Signed out and cleared local state")
	return nil
}

// Authorized reports the last observed authorization state
func (uc *AuthUsecase) Authorized() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.authorized
}

// MarkUnauthorized records that an operation hit a guest page
func (uc *AuthUsecase) MarkUnauthorized() {
	uc.mu.Lock()
	uc.authorized = false
	uc.mu.Unlock()
}
