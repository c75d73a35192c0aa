package usecase

import (
	"context"
	"fmt"

	"github.com/anthropics/linkedin-agent-bridge/internal/biz/repo"
)

// ComposeUsecase handles outgoing messages
type ComposeUsecase struct {
	messagingRepo repo.MessagingRepo
	conversations *ConversationUsecase
}

// NewComposeUsecase creates a new compose usecase
func NewComposeUsecase(messagingRepo repo.MessagingRepo, conversations *ConversationUsecase) *ComposeUsecase {
	return &ComposeUsecase{
		messagingRepo: messagingRepo,
		conversations: conversations,
	}
}

// SendMessage sends a message into the conversation with the given
// identity, entering it first unless it is already open.
func (uc *ComposeUsecase) SendMessage(ctx context.Context, conversationID, message string) error {
	if message == "" {
		return fmt.Errorf("message must not be empty")
	}

	current := uc.conversations.Current()
	if current == nil || current.Identity != conversationID {
		if _, err := uc.conversations.EnterByIdentity(ctx, conversationID); err != nil {
			return err
		}
	}

	if err := uc.messagingRepo.SendToOpenThread(ctx, message); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	fmt.Printf("[Compose] Sent %d chars to %s\n", len(message), conversationID)
	return nil
}

// StartNewConversation opens the compose flow for a recipient and sends
// the first message.
func (uc *ComposeUsecase) StartNewConversation(ctx context.Context, recipient, message string) error {
	if recipient == "" {
		return fmt.Errorf("recipient must not be empty")
	}
	if message == "" {
		return fmt.Errorf("message must not be empty")
	}

	if err := uc.messagingRepo.StartConversation(ctx, recipient, message); err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}

	// The new thread is now the open one, but we have no snapshot record
	// for it until the next enumeration
	uc.conversations.Reset()

	fmt.Printf("[Compose] Started new conversation with %s\n", recipient)
	return nil
}
